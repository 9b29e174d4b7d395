package main

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"openentropy/internal/config"
	"openentropy/internal/entropy/conditioning"
	"openentropy/internal/entropy/pool"
)

func encodeChunk(format string, data []byte) (string, error) {
	switch format {
	case "", "raw":
		return string(data), nil
	case "hex":
		return hex.EncodeToString(data), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", badArg("unknown --format %q, want raw|hex|base64", format)
	}
}

func streamMode(unconditioned bool, cfg *config.Config) conditioning.Mode {
	if unconditioned {
		return conditioning.Raw
	}
	mode, err := conditioning.ParseMode(cfg.Conditioning.Default)
	if err != nil {
		return conditioning.Sha256
	}
	return mode
}

func newStreamCmd(cfg *config.Config) *cobra.Command {
	var format string
	var rate int
	var sourceNames string
	var chunkBytes int
	var unconditioned bool

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Continuously emit entropy to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rate <= 0 {
				return badArg("--rate must be positive")
			}
			p, err := buildPool(sourcesFlag(sourceNames))
			if err != nil {
				return err
			}
			mode := streamMode(unconditioned, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			interval := time.Second / time.Duration(rate)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.CollectAll()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					p.CollectAll()
					chunk := p.GetBytes(chunkBytes, mode)
					encoded, err := encodeChunk(format, chunk)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), encoded)
				}
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "hex", "output encoding: raw|hex|base64")
	cmd.Flags().IntVar(&rate, "rate", 1, "chunks emitted per second")
	cmd.Flags().StringVar(&sourceNames, "sources", "", "comma-separated source IDs to use (default: all)")
	cmd.Flags().IntVar(&chunkBytes, "bytes", 32, "bytes per emitted chunk")
	cmd.Flags().BoolVar(&unconditioned, "unconditioned", false, "emit raw bytes instead of conditioned output")
	return cmd
}

func newDeviceCmd(cfg *config.Config) *cobra.Command {
	var bufferSize int
	var sourceNames string
	var unconditioned bool

	cmd := &cobra.Command{
		Use:   "device <path>",
		Short: "Create a FIFO and continuously stream entropy into it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if err := createFifo(path); err != nil {
				return badArg("create fifo: %v", err)
			}
			defer os.Remove(path)

			p, err := buildPool(sourcesFlag(sourceNames))
			if err != nil {
				return err
			}
			mode := streamMode(unconditioned, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return writeDevice(ctx, path, p, mode, bufferSize)
		},
	}
	cmd.Flags().IntVar(&bufferSize, "buffer-size", 4096, "bytes written per FIFO write")
	cmd.Flags().StringVar(&sourceNames, "sources", "", "comma-separated source IDs to use (default: all)")
	cmd.Flags().BoolVar(&unconditioned, "unconditioned", false, "write raw bytes instead of conditioned output")
	return cmd
}

// writeDevice opens path for writing (blocking until a reader attaches,
// the usual FIFO contract) and then feeds it entropy until ctx is
// canceled.
func writeDevice(ctx context.Context, path string, p *pool.Pool, mode conditioning.Mode, bufferSize int) error {
	f, err := os.OpenFile(path, os.O_WRONLY, os.ModeNamedPipe)
	if err != nil {
		return fmt.Errorf("device: open fifo for writing: %w", err)
	}
	defer f.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		p.CollectAll()
		chunk := p.GetBytes(bufferSize, mode)
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("device: write fifo: %w", err)
		}
	}
}
