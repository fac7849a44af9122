package main

import (
	"fmt"
	"os"

	"github.com/cjeanneret/PanAxis/internal/config"
	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/hw/gpio"
	"github.com/cjeanneret/PanAxis/internal/hw/stepper"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
	"github.com/cjeanneret/PanAxis/internal/logic/session"
	"github.com/cjeanneret/PanAxis/internal/telemetry"
)

// app is the wired hardware and session shared by the subcommands.
type app struct {
	cfg      *config.Config
	gpio     gpio.Driver
	session  *session.Session
	recorder *telemetry.Recorder
}

func newApp(cfg *config.Config) (*app, error) {
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	g, err := gpio.NewDriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, fmt.Errorf("init GPIO failed: %w", err)
	}

	motor, err := stepper.New(cfg.Motor.Type, g, motorConfig(cfg))
	if err != nil {
		g.Close()
		return nil, fmt.Errorf("init motor failed: %w", err)
	}
	motor.SetSpeed(cfg.Motor.SpeedRPM)
	debug.PrintStruct("Motor config", cfg.Motor)

	ctrl, err := motion.NewController(motor, cfg.MotionConfig())
	if err != nil {
		g.Close()
		return nil, err
	}
	debug.Value("Steps per degree", ctrl.StepsPerDegree())

	a := &app{cfg: cfg, gpio: g, session: session.New(ctrl)}
	if t := cfg.Telemetry; t.InfluxURL != "" {
		a.recorder = telemetry.NewRecorder(telemetry.Config{
			URL:    t.InfluxURL,
			Token:  os.Getenv("INFLUX_TOKEN"),
			Org:    t.Org,
			Bucket: t.Bucket,
		})
		a.session.Subscribe(a.recorder)
	}
	return a, nil
}

func motorConfig(cfg *config.Config) stepper.Config {
	mc := stepper.Config{
		StepPin:          cfg.Motor.StepPin,
		DirPin:           cfg.Motor.DirPin,
		EnablePin:        cfg.Motor.EnablePin,
		StepsPerRev:      cfg.Motor.StepsPerRev,
		ReleaseAfterMove: cfg.Motor.ReleaseAfterMove,
	}
	copy(mc.CoilPins[:], cfg.Motor.CoilPins)
	return mc
}

func (a *app) Close() {
	if a.recorder != nil {
		a.recorder.Close()
	}
	if err := a.gpio.Close(); err != nil {
		debug.Error(fmt.Errorf("closing GPIO driver failed: %w", err))
	}
}
