package sources

import (
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"openentropy/internal/entropy/primitives"
	"openentropy/internal/entropy/source"
)

// cameraDeviceEnv selects a specific camera device index, overriding
// auto-probing.
const cameraDeviceEnv = "OPENENTROPY_CAMERA_DEVICE"

// AudioADCNoise captures a short burst from the default microphone via
// the `arecord` helper and extracts the low 4 bits of each raw PCM
// sample. ADC quantization noise and ambient acoustic noise floor are
// independent of any other signal this host produces.
type AudioADCNoise struct {
	recordTimeout time.Duration
}

func NewAudioADCNoise() *AudioADCNoise {
	return &AudioADCNoise{recordTimeout: 5 * time.Second}
}

func (s *AudioADCNoise) Info() source.Info {
	return source.Info{
		ID:               "audio_adc_noise",
		Description:      "Low 4 bits of PCM samples from a short microphone burst",
		PhysicsRationale: "ADC quantization noise and the ambient acoustic noise floor are thermal/acoustic in origin, independent of host computation",
		Category:         source.CategorySensor,
		Platform:         source.PlatformLinux,
		Capabilities:     []source.Capability{source.CapabilityAudio, source.CapabilitySubprocess},
		EntropyRateBPS:   3200,
	}
}

func (s *AudioADCNoise) IsAvailable() bool {
	return primitives.CommandExists("arecord")
}

func (s *AudioADCNoise) Collect(nBytes int) []byte {
	if nBytes <= 0 || !s.IsAvailable() {
		return nil
	}
	tmp, err := os.CreateTemp("", "openentropy-audio-*.raw")
	if err != nil {
		return nil
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	_, err = primitives.RunWithTimeout(s.recordTimeout, "arecord",
		"-q", "-f", "S16_LE", "-r", "8000", "-d", "1", "-t", "raw", path)
	if err != nil {
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil || len(raw) == 0 {
		return nil
	}

	nibbles := make([]byte, len(raw))
	for i, b := range raw {
		nibbles[i] = b & 0x0F
	}
	return primitives.PackNibbles(nibbles, nBytes)
}

// CameraFrameNoise streams low-resolution gray frames from a camera
// device through a single long-lived ffmpeg child process. A reader
// goroutine keeps overwriting a "latest frame" slot so collect() never
// blocks on device re-initialisation; on reader EOF the child is
// respawned on the next collect() call. CMOS/CCD sensor read noise and
// dark current are physical ADC noise sources independent of scene
// content.
type CameraFrameNoise struct {
	device string

	mu          sync.Mutex
	cmd         *exec.Cmd
	stdout      io.ReadCloser
	latestFrame []byte
	frameSize   int
}

const cameraFrameSize = 32 * 24 // scale=32:24, format=gray, one byte/pixel

// NewCameraFrameNoise creates a camera source. The actual device is
// resolved lazily on first collect(), honoring OPENENTROPY_CAMERA_DEVICE
// if set at that time.
func NewCameraFrameNoise() *CameraFrameNoise {
	return &CameraFrameNoise{frameSize: cameraFrameSize}
}

func (s *CameraFrameNoise) resolveDevice() string {
	if idx, err := strconv.Atoi(os.Getenv(cameraDeviceEnv)); err == nil {
		return "/dev/video" + strconv.Itoa(idx)
	}
	return "/dev/video0"
}

func (s *CameraFrameNoise) Info() source.Info {
	return source.Info{
		ID:               "camera_frame_noise",
		Description:      "Low 4 bits of a low-resolution gray camera frame streamed from a persistent reader",
		PhysicsRationale: "CMOS/CCD sensor read noise and dark current are physical ADC noise sources independent of scene content",
		Category:         source.CategorySensor,
		Platform:         source.PlatformLinux,
		Capabilities:     []source.Capability{source.CapabilityCamera, source.CapabilitySubprocess},
		EntropyRateBPS:   2000,
	}
}

func (s *CameraFrameNoise) IsAvailable() bool {
	if _, err := os.Stat(s.resolveDevice()); err != nil {
		return false
	}
	return primitives.CommandExists("ffmpeg")
}

// ensureRunning starts the persistent ffmpeg child and its reader
// goroutine if not already running. Caller must hold s.mu.
func (s *CameraFrameNoise) ensureRunning() error {
	if s.cmd != nil {
		return nil
	}
	device := s.resolveDevice()
	cmd := exec.Command("ffmpeg",
		"-f", "v4l2", "-i", device,
		"-vf", "scale=32:24,format=gray",
		"-f", "rawvideo", "-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	s.cmd = cmd
	s.stdout = stdout

	go s.readFrames(cmd, stdout)
	return nil
}

// readFrames reads frames until the pipe closes (natural EOF, or the
// process being killed by Close), then reaps cmd itself so the child
// never lingers as a zombie.
func (s *CameraFrameNoise) readFrames(cmd *exec.Cmd, r io.ReadCloser) {
	buf := make([]byte, s.frameSize)
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			cmd.Wait()
			s.mu.Lock()
			if s.cmd == cmd {
				s.cmd = nil
				s.stdout = nil
			}
			s.mu.Unlock()
			return
		}
		frame := make([]byte, len(buf))
		copy(frame, buf)
		s.mu.Lock()
		s.latestFrame = frame
		s.mu.Unlock()
	}
}

func (s *CameraFrameNoise) Collect(nBytes int) []byte {
	if nBytes <= 0 || !s.IsAvailable() {
		return nil
	}
	s.mu.Lock()
	if err := s.ensureRunning(); err != nil {
		s.mu.Unlock()
		return nil
	}
	frame := s.latestFrame
	s.mu.Unlock()

	if len(frame) == 0 {
		return nil
	}
	nibbles := make([]byte, len(frame))
	for i, b := range frame {
		nibbles[i] = b & 0x0F
	}
	return primitives.PackNibbles(nibbles, nBytes)
}

// Close terminates the persistent child process, if any.
func (s *CameraFrameNoise) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil
	}
	err := s.cmd.Process.Kill()
	s.cmd = nil
	s.stdout = nil
	return err
}
