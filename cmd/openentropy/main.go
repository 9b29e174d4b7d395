// Command openentropy is the CLI front end for the entropy pool: it
// can inspect sources, stream conditioned bytes, run the HTTP server
// and terminal monitor, and record sessions to disk.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"openentropy/internal/config"
	"openentropy/internal/entropy/pool"
	"openentropy/internal/entropy/source"
	"openentropy/internal/entropy/sources"
	"openentropy/internal/logging"
)

// Exit codes per the documented CLI contract: 0 on success, 1 on "no
// sources / no data", 2 on a bad argument.
const (
	exitOK      = 0
	exitNoData  = 1
	exitBadArgs = 2
)

// cliError carries the process exit code a command wants on failure.
type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string { return e.err.Error() }

func badArg(format string, args ...any) error {
	return &cliError{code: exitBadArgs, err: fmt.Errorf(format, args...)}
}

func noData(format string, args ...any) error {
	return &cliError{code: exitNoData, err: fmt.Errorf(format, args...)}
}

func main() {
	cfg := config.DefaultConfig()
	cfg.ApplyEnvOverrides()

	log, err := logging.New(&logging.Config{
		Level:  logging.LevelInfo,
		Format: logging.FormatText,
		Output: "stderr",
	})
	if err != nil {
		log = logging.Default()
	}

	root := &cobra.Command{
		Use:           "openentropy",
		Short:         "Multi-source hardware entropy harvester",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newScanCmd(),
		newProbeCmd(),
		newBenchCmd(),
		newStreamCmd(cfg),
		newDeviceCmd(cfg),
		newServerCmd(cfg, log),
		newMonitorCmd(cfg),
		newReportCmd(cfg),
		newPoolCmd(cfg),
	)

	if err := root.Execute(); err != nil {
		var ce *cliError
		if asCliError(err, &ce) {
			fmt.Fprintln(os.Stderr, "error:", ce.Error())
			os.Exit(ce.code)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitBadArgs)
	}
}

func asCliError(err error, target **cliError) bool {
	ce, ok := err.(*cliError)
	if !ok {
		return false
	}
	*target = ce
	return true
}

// sourcesFlag parses a comma-separated --sources list into a name set.
// An empty string means "all".
func sourcesFlag(raw string) map[string]bool {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	set := make(map[string]bool)
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			set[name] = true
		}
	}
	return set
}

// buildPool constructs an auto-discovered pool, optionally narrowed to
// the named subset. An empty or nil allow set keeps every discovered
// source.
func buildPool(allow map[string]bool) (*pool.Pool, error) {
	p := pool.New(nil)
	discovered := sources.DetectAvailableSources()
	added := 0
	for _, src := range discovered {
		id := src.Info().ID
		if allow != nil && !allow[id] {
			continue
		}
		p.AddSource(src, 1.0)
		added++
	}
	if added == 0 {
		return p, noData("no matching sources available on this host")
	}
	return p, nil
}

func findSource(name string) (source.EntropySource, error) {
	for _, s := range sources.AllSources() {
		if s.Info().ID == name {
			return s, nil
		}
	}
	return nil, badArg("unknown source %q", name)
}
