package primitives

import (
	"context"
	"os/exec"
	"time"
)

// CommandExists reports whether name can be resolved on PATH. The
// sensor sources shell out to small helper binaries (arecord, ffmpeg)
// and must degrade to unavailable rather than fail when the binary is
// missing.
func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// RunWithTimeout runs name with args, killing it if it does not finish
// within timeout, and returns combined stdout+stderr. The audio source
// runs its arecord burst through this instead of exec.Command directly
// so a hung subprocess degrades
// a single collect() call rather than the whole source.
func RunWithTimeout(timeout time.Duration, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
