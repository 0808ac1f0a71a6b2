package main

import (
	"context"
	"fmt"

	"pixed/internal/config"
	"pixed/internal/editor"
	"pixed/internal/log"

	"github.com/spf13/cobra"
)

// rootOptions carries the persistent flags and the configuration they
// resolve to.
type rootOptions struct {
	cfgFile string
	debug   bool
	jsonLog bool
	cfg     *config.Config
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "pixed",
		Short:   "A layered raster image editor",
		Long:    drawLogo() + "\nPixed composites image layers, lets you move them around and\ncan remove backgrounds or fill selections with generative AI.",
		Version: version,
		// Errors are printed once by main.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return o.load(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&o.cfgFile, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().BoolVar(&o.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&o.jsonLog, "json-log", false, "log as JSON lines")

	rootCmd.AddCommand(newGUICmd(o))
	rootCmd.AddCommand(newTUICmd(o))
	rootCmd.AddCommand(newRenderCmd(o))
	rootCmd.AddCommand(newRemoveBgCmd(o))
	rootCmd.AddCommand(newFillCmd(o))
	rootCmd.AddCommand(newPresetsCmd(o))

	return rootCmd
}

// load reads the config file and configures logging. A broken config file
// falls back to the defaults with a warning.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.LoadConfigFile(o.cfgFile)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), warningText(fmt.Sprintf("Warning: %v", err)))
		fmt.Fprintln(cmd.ErrOrStderr(), infoText("Using default settings."))
		cfg = config.New()
	}
	o.cfg = cfg

	opts := []log.Option{log.WithOutput(cmd.ErrOrStderr())}
	if o.jsonLog || cfg.Log.JSON {
		opts = append(opts, log.WithJSON())
	}
	level := cfg.Log.Level
	if level == "" {
		level = "info"
	}
	if o.debug || cfg.Log.Debug {
		level = "debug"
	}
	opts = append(opts, log.WithLevel(level))
	if cfg.Log.File != "" {
		opts = append(opts, log.WithFile(cfg.Log.File))
	}
	log.Configure(opts...)
	log.SetDebug(level == "debug")
	return nil
}

func (o *rootOptions) config() *config.Config {
	if o.cfg == nil {
		o.cfg = config.New()
	}
	return o.cfg
}

// newEditor builds an editor on the loaded configuration.
func (o *rootOptions) newEditor(ctx context.Context, opts ...editor.Option) (*editor.Editor, error) {
	opts = append([]editor.Option{editor.WithLogger(log.Default())}, opts...)
	return editor.New(ctx, o.config(), opts...)
}
