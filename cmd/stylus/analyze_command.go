package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stylus/internal/spectral"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run the spectral authenticity check on a local audio file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := args[0]
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("open %s: %w", path, err)
			}

			analyzer := spectral.NewAnalyzer(cfg.Analysis, cfg.FFmpegBinary(), os.TempDir())
			report := analyzer.AnalyzeFile(cmd.Context(), path)

			if ctx.JSONMode() {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File:        %s\n", path)
			fmt.Fprintf(out, "Verdict:     %s %s\n", report.Verdict.Emoji(), report.Verdict)
			if report.SampleRate > 0 {
				fmt.Fprintf(out, "Sample rate: %d Hz (Nyquist %.1f kHz)\n", report.SampleRate, report.NyquistKHz)
			}
			if report.BitDepth > 0 {
				fmt.Fprintf(out, "Bit depth:   %d\n", report.BitDepth)
			}
			if report.CutoffKHz > 0 {
				fmt.Fprintf(out, "Cutoff:      %.1f kHz\n", report.CutoffKHz)
			}
			fmt.Fprintln(out, report.Summary())
			return nil
		},
	}
}
