package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pipelined/timeline/codec"
	"github.com/pipelined/timeline/export"
	"github.com/pipelined/timeline/mp3"
)

var renderFlags struct {
	format  string
	bitRate int
	quality int
}

var renderCmd = &cobra.Command{
	Use:   "render <manifest> <output>",
	Short: "Mix down the arrangement into a file",
	Long: `Mix down every track of the arrangement into a single file. Output
format is taken from --format or the output extension: wav, flac, mp3 or ogg.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := export.FormatOf(args[1])
		if renderFlags.format != "" {
			format, err = export.ParseFormat(renderFlags.format)
		}
		if err != nil {
			return err
		}
		p, err := load(args[0])
		if err != nil {
			return err
		}
		defer p.Cleanup()

		bitRate := cfg.ExportBitRate
		if renderFlags.bitRate > 0 {
			bitRate = renderFlags.bitRate
		}
		exporter := export.New(append(codec.Encoders(renderFlags.quality),
			export.WithFormat(cfg.Format()),
			export.WithBitRate(bitRate),
			export.WithDecoder(registry()),
			export.WithLogger(logger),
		)...)
		out := cmd.OutOrStdout()
		err = exporter.Export(p, args[1], format, func(percent int, message string) {
			fmt.Fprintf(out, "%3d%% %s\n", percent, message)
		})
		printStats(out, export.Component)
		return err
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderFlags.format, "format", "f", "", "output format")
	renderCmd.Flags().IntVarP(&renderFlags.bitRate, "bitrate", "b", 0, "bit rate of compressed formats in kbps")
	renderCmd.Flags().IntVar(&renderFlags.quality, "quality", mp3.DefaultQuality, "mp3 encoder quality, 0 is the best")
	rootCmd.AddCommand(renderCmd)
}
