package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pipelined/timeline/codec"
	"github.com/pipelined/timeline/internal/config"
	"github.com/pipelined/timeline/internal/manifest"
	"github.com/pipelined/timeline/log"
	"github.com/pipelined/timeline/metric"
	"github.com/pipelined/timeline/project"
)

var (
	envFiles []string
	cfg      *config.Config
	logger   *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "timeline",
	Short:         "Timeline arranges audio clips on tracks, plays and exports them.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(envFiles...); err != nil {
			return err
		}
		if logger, err = log.New(cfg.Log); err != nil {
			return fmt.Errorf("cannot create logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", nil, "env files to load, .env if empty")
}

// registry returns decoders configured for the project format.
func registry() *codec.Registry {
	return codec.New(
		codec.WithFFmpeg(cfg.FFmpegPath, cfg.Format()),
		codec.WithLogger(logger),
	)
}

// load creates project from the manifest file.
func load(path string, options ...project.Option) (*project.Project, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	p := project.New(append([]project.Option{
		project.WithFormat(cfg.Format()),
		project.WithChunk(cfg.Chunk),
		project.WithDecoder(registry()),
		project.WithLogger(logger),
	}, options...)...)
	if err := m.Apply(p); err != nil {
		return nil, err
	}
	return p, nil
}

// printStats writes counters of the metric component in one line.
func printStats(w io.Writer, component string) {
	counters := metric.Get(component)
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprint(w, component)
	for _, name := range names {
		fmt.Fprintf(w, " %s=%s", strings.ToLower(name), counters[name])
	}
	fmt.Fprintln(w)
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
