package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/pipelined/timeline/internal/config"
	"github.com/pipelined/timeline/oto"
	"github.com/pipelined/timeline/portaudio"
	"github.com/pipelined/timeline/project"
)

var playFlags struct {
	start time.Duration
}

var playCmd = &cobra.Command{
	Use:   "play <manifest>",
	Short: "Play the arrangement on the audio device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var output project.Output
		switch cfg.Device {
		case config.DeviceOto:
			output = oto.New()
		default:
			output = portaudio.New(cfg.Chunk)
		}
		out := cmd.OutOrStdout()
		var last int
		p, err := load(args[0],
			project.WithOutput(output),
			project.WithObserver(project.ObserverFunc(func(progress float64) {
				// one line per ten percent
				if step := int(progress * 10); step != last {
					last = step
					fmt.Fprintf(out, "%3.0f%%\n", progress*100)
				}
			})),
		)
		if err != nil {
			return err
		}
		defer p.Cleanup()

		p.SetPlaybackTime(playFlags.start, false)
		if err := p.TogglePlay(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		err = wait(ctx, p)
		printStats(out, project.Component)
		return err
	},
}

// wait blocks until playback stops or context is done.
func wait(ctx context.Context, p *project.Project) error {
	ticker := time.NewTicker(p.Chunk())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Stop()
			return nil
		case <-ticker.C:
			if p.State() == project.Stopped {
				return nil
			}
		}
	}
}

func init() {
	playCmd.Flags().DurationVarP(&playFlags.start, "start", "s", 0, "playback start time")
	rootCmd.AddCommand(playCmd)
}
