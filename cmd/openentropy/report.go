package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"openentropy/internal/config"
	"openentropy/internal/entropy/pool"
	"openentropy/internal/recorder"
)

// reportSummary is written alongside the recorder's schema-validated
// session.json as a human-friendly companion. YAML here is purely a
// convenience rendering; session.json remains the canonical, schema
// validated record.
type reportSummary struct {
	PoolID       string   `yaml:"pool_id"`
	Samples      int      `yaml:"samples"`
	Sources      []string `yaml:"sources"`
	UnhealthyIDs []string `yaml:"unhealthy_sources,omitempty"`
	RawBytes     uint64   `yaml:"raw_bytes"`
}

func newReportCmd(cfg *config.Config) *cobra.Command {
	var samples int
	var sourceName string
	var output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Collect a fixed number of samples and write a session report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if samples <= 0 {
				return badArg("--samples must be positive")
			}

			var allow map[string]bool
			if sourceName != "" {
				allow = map[string]bool{sourceName: true}
			}
			p, err := buildPool(allow)
			if err != nil {
				return err
			}

			if output == "" {
				output = filepath.Join(cfg.Recorder.OutputDir, time.Now().UTC().Format("20060102T150405Z"))
			}
			sess, err := recorder.NewSession(output, p.ID(), cfg.Conditioning.Default)
			if err != nil {
				return fmt.Errorf("report: start session: %w", err)
			}

			unhealthy := make(map[string]bool)
			for i := 0; i < samples; i++ {
				p.CollectAllParallel(0)
				if err := recordCycle(p, sess, unhealthy); err != nil {
					return fmt.Errorf("report: record sample: %w", err)
				}
			}

			if err := sess.Close(); err != nil {
				return fmt.Errorf("report: finalize session: %w", err)
			}

			infos := p.SourceInfos()
			summary := reportSummary{PoolID: p.ID(), Samples: samples}
			for _, info := range infos {
				summary.Sources = append(summary.Sources, info.ID)
			}
			for id := range unhealthy {
				summary.UnhealthyIDs = append(summary.UnhealthyIDs, id)
			}
			report := p.HealthReport()
			summary.RawBytes = report.RawBytesCumulative

			yamlBytes, err := yaml.Marshal(summary)
			if err != nil {
				return fmt.Errorf("report: marshal summary: %w", err)
			}
			if err := os.WriteFile(filepath.Join(output, "report.yaml"), yamlBytes, 0o644); err != nil {
				return fmt.Errorf("report: write report.yaml: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples to %s\n", samples, output)
			for _, id := range summary.UnhealthyIDs {
				fmt.Fprintf(cmd.OutOrStdout(), "unhealthy: %s\n", id)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 10, "number of collection cycles to record")
	cmd.Flags().StringVar(&sourceName, "source", "", "restrict recording to a single source")
	cmd.Flags().StringVar(&output, "output", "", "session output directory (default: a timestamped dir under the configured recorder path)")
	return cmd
}

// recordCycle writes one sample per registered source, pulling each
// source's current buffer contents and the health report's freshly
// computed Shannon estimate for it.
func recordCycle(p *pool.Pool, sess *recorder.Session, unhealthy map[string]bool) error {
	report := p.HealthReport()
	now := time.Now().UnixNano()
	for _, sh := range report.Sources {
		if !sh.Healthy {
			unhealthy[sh.ID] = true
		}
		data, ok := p.SourceBuffer(sh.ID)
		if !ok {
			continue
		}
		if err := sess.RecordSample(sh.ID, data, sh.LastShannon, now); err != nil {
			return err
		}
	}
	return nil
}

func newPoolCmd(cfg *config.Config) *cobra.Command {
	var sourceNames string

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Print a one-shot snapshot of pool identity, sources, and health",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := buildPool(sourcesFlag(sourceNames))
			if err != nil {
				return err
			}
			p.CollectAllParallel(0)

			report := p.HealthReport()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pool:      %s\n", p.ID())
			fmt.Fprintf(out, "sources:   %d/%d healthy\n", report.HealthyCount, report.TotalCount)
			fmt.Fprintf(out, "raw:       %d bytes\n", report.RawBytesCumulative)
			fmt.Fprintf(out, "output:    %d bytes\n", report.OutputBytesCumulative)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "%-28s %-8s %12s %10s\n", "SOURCE", "STATUS", "BYTES", "SHANNON")
			for _, sh := range report.Sources {
				status := "up"
				if !sh.Healthy {
					status = "down"
				}
				fmt.Fprintf(out, "%-28s %-8s %12d %10.3f\n", sh.ID, status, sh.BytesCumulative, sh.LastShannon)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sourceNames, "sources", "", "comma-separated source IDs to use (default: all)")
	return cmd
}
