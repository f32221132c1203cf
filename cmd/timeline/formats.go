package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pipelined/timeline/codec"
	"github.com/pipelined/timeline/export"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported source and export formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "sources: %s\n", strings.Join(codec.Extensions, " "))
		exporter := export.New(codec.Encoders(0)...)
		names := make([]string, 0, len(export.Formats))
		for _, f := range export.Formats {
			if exporter.Supports(f) {
				names = append(names, f.String())
			}
		}
		fmt.Fprintf(out, "export: %s\n", strings.Join(names, " "))
		if !registry().Fallback() {
			fmt.Fprintf(out, "ffmpeg not found at %q: only wav, aiff, mp3 and flac sources are decoded\n", cfg.FFmpegPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
