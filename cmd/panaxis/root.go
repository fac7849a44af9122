package main

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cjeanneret/PanAxis/internal/config"
	"github.com/cjeanneret/PanAxis/internal/debug"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configPath string
	overrides  overrides
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "panaxis",
		Short: "Single-axis stepper position controller.",
		Long: "panaxis moves a stepper-driven axis to absolute or relative " +
			"angles within a symmetric hard limit. Commands come from a " +
			"serial line, the web API, stdin, a script or a hand tracker.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", filepath.Join("configs", "default.yaml"), "path to config file")
	f.StringVar(&opts.overrides.mode, "mode", "", "override axis.mode (absolute|relative)")
	f.Float64Var(&opts.overrides.limit, "limit", 0, "override axis.angle_limit in degrees (0-180)")
	f.StringVar(&opts.overrides.device, "device", "", "override serial.device")
	f.BoolVar(&opts.overrides.mock, "mock", false, "force mock GPIO")
	f.IntVar(&opts.overrides.debugLevel, "debug", -1, "override defaults.debug_level (0-4)")

	root.AddCommand(
		newServeCmd(opts),
		newMoveCmd(opts),
		newReplCmd(opts),
		newDemoCmd(opts),
		newFollowCmd(opts),
	)
	return root
}

// load reads .env and the config file, then applies flag overrides.
func (o *options) load(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	if err := config.ValidateConfigPath(o.configPath); err != nil {
		return err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return fmt.Errorf("load config failed: %w", err)
	}
	o.overrides.mockSet = cmd.Flags().Changed("mock")
	if err := validateOverrides(o.overrides); err != nil {
		return fmt.Errorf("invalid CLI override: %w", err)
	}
	if err := applyOverrides(cfg, o.overrides); err != nil {
		return err
	}

	debug.Init(cfg.Defaults.DebugLevel)
	debug.Section("Initialization")
	debug.Value("Config path", o.configPath)
	debug.Value("Debug level", cfg.Defaults.DebugLevel)
	debug.PrintStruct("Axis config", cfg.Axis)
	o.cfg = cfg
	return nil
}
