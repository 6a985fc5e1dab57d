// Command demo shows the blurred backdrop, the reflective torus and the
// animated model, either in a window or rendered offline to an image.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"backdrop-engine/config"
)

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	verbose    bool
	flags      config.Flags
}

func (o *options) logger() *slog.Logger {
	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// load reads the config file when given and applies flag overrides.
func (o *options) load() (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	cfg.Resolve(o.flags)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	opts := &options{flags: config.Flags{Profile: config.NoProfile}}

	root := &cobra.Command{
		Use:           "demo",
		Short:         "Environment-mapped backdrop with bloom",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "TOML config file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	pf.IntVar(&opts.flags.Width, "width", 0, "viewport width in logical pixels")
	pf.IntVar(&opts.flags.Height, "height", 0, "viewport height in logical pixels")
	pf.IntVar(&opts.flags.Profile, "profile", config.NoProfile, "color profile 0, 1 or 2")
	pf.StringVar(&opts.flags.Source, "source", "", "backdrop source image")
	pf.StringVar(&opts.flags.Model, "model", "", "glTF model path")
	pf.StringVar(&opts.flags.ParamsFile, "params", "", "TOML file watched for live shader params")
	pf.Float32Var(&opts.flags.PixelRatio, "pixel-ratio", 0, "override the native pixel ratio")

	root.AddCommand(newSnapshotCommand(opts))
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}
