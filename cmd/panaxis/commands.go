package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/session"
	"github.com/cjeanneret/PanAxis/internal/transport/serial"
	"github.com/cjeanneret/PanAxis/internal/web"
)

// run builds the app, runs fn under a signal-bound context and releases
// the hardware afterwards.
func (o *options) run(fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(o.cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	err = fn(ctx, a)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// lineHandler adapts the session to a line-oriented transport.
func lineHandler(s *session.Session, source string) serial.Handler {
	return func(ctx context.Context, line string) []string {
		rep, _ := s.Execute(ctx, source, line)
		return rep.Lines
	}
}

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept commands from the serial line and the web API.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(func(ctx context.Context, a *app) error {
				return serve(ctx, a)
			})
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	if cfg.Serial.Device == "" && cfg.Web.Addr == "" {
		return errors.New("nothing to serve: set serial.device or web.addr")
	}

	// Everything that can fail is built before any goroutine starts, so an
	// early return never leaves a reader or listener behind.
	var (
		srv         *web.Server
		broadcaster *web.StatusBroadcaster
	)
	if cfg.Web.Addr != "" {
		broadcaster = web.NewStatusBroadcaster()
		var err error
		if srv, err = web.NewServer(cfg.Web.Addr, broadcaster, a.session); err != nil {
			return err
		}
	}

	var port serial.Port
	if cfg.Serial.Device != "" {
		var err error
		port, err = serial.Open(serial.Config{
			Device:      cfg.Serial.Device,
			Baud:        cfg.Serial.Baud,
			ReadTimeout: cfg.SerialReadTimeout(),
		})
		if err != nil {
			return err
		}
		debug.Info("Serial command line on %s at %d baud", cfg.Serial.Device, cfg.Serial.Baud)
	}

	g, ctx := errgroup.WithContext(ctx)
	if port != nil {
		g.Go(func() error {
			return serial.Serve(ctx, port, lineHandler(a.session, "serial"))
		})
	}
	if srv != nil {
		debug.SetOutput(io.MultiWriter(os.Stdout, web.BroadcastWriter(broadcaster)))
		a.session.Subscribe(broadcaster)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}
	return g.Wait()
}

func newMoveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "move COMMAND...",
		Short: "Run commands once, e.g. `panaxis move 40.5 -90` or `panaxis --mode relative move \"move -10\"`.",
		Long: "Run commands once, in order. Negative angles are accepted as " +
			"plain arguments; any flag that follows one is read as a command, " +
			"so put flags before `move` or end them with `--`.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(func(ctx context.Context, a *app) error {
				return a.session.RunScript(ctx, "cli", args, 0, cmd.OutOrStdout())
			})
		},
	}
}

func newReplCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read commands from stdin, one per line.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(func(ctx context.Context, a *app) error {
				rw := serial.ReadWriter{Reader: cmd.InOrStdin(), Writer: cmd.OutOrStdout()}
				done := make(chan error, 1)
				go func() {
					done <- serial.Serve(ctx, rw, lineHandler(a.session, "stdin"))
				}()
				// stdin cannot be interrupted; return on cancel without waiting.
				select {
				case err := <-done:
					return err
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		},
	}
}

func newDemoCmd(o *options) *cobra.Command {
	var loop bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Replay the configured command script.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(func(ctx context.Context, a *app) error {
				for {
					err := a.session.RunScript(ctx, "demo", a.cfg.Demo.Commands, a.cfg.DemoDelay(), cmd.OutOrStdout())
					if err != nil || !loop {
						return err
					}
				}
			})
		},
	}
	cmd.Flags().BoolVar(&loop, "loop", false, "repeat the script until interrupted")
	return cmd
}

func newFollowCmd(o *options) *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "follow",
		Short: "Track normalized hand positions written by the hand tracker.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = o.cfg.Follow.Path
			}
			if path == "" {
				return errors.New("no input: set follow.path or --path")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open follow input: %w", err)
			}
			defer f.Close()
			return o.run(func(ctx context.Context, a *app) error {
				debug.Info("Following %s", path)
				return a.session.Follow(ctx, "follow", f, a.cfg.FollowPollInterval(), cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "override follow.path")
	return cmd
}
