package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/pipelined/timeline/conflict"
)

var infoFlags struct {
	dump bool
}

var infoCmd = &cobra.Command{
	Use:   "info <manifest>",
	Short: "Print tracks layout of the arrangement",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := load(args[0])
		if err != nil {
			return err
		}
		defer p.Cleanup()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "duration: %v\n", p.Duration())
		for _, t := range p.Tracks() {
			info := t.Info()
			if infoFlags.dump {
				spew.Fdump(out, info)
				continue
			}
			if err := info.Print(out); err != nil {
				return err
			}
			if pairs := conflict.DetectConflicts(t.Clips()); len(pairs) > 0 {
				fmt.Fprintf(out, "  %d conflicts\n", len(pairs))
			}
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoFlags.dump, "dump", false, "dump layout structures")
	rootCmd.AddCommand(infoCmd)
}
