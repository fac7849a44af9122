package main

import (
	"bytes"
	"context"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cjeanneret/PanAxis/internal/config"
	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// ---------- validateOverrides ----------

func TestValidateOverrides_Unset(t *testing.T) {
	if err := validateOverrides(overrides{debugLevel: -1}); err != nil {
		t.Errorf("unset overrides should be valid (use config defaults), got: %v", err)
	}
}

func TestValidateOverrides_Valid(t *testing.T) {
	cases := []struct {
		name string
		o    overrides
	}{
		{"mode_absolute", overrides{mode: "absolute", debugLevel: -1}},
		{"mode_rel", overrides{mode: "rel", debugLevel: -1}},
		{"min_limit", overrides{limit: 0.001, debugLevel: -1}},
		{"max_limit", overrides{limit: 180, debugLevel: -1}},
		{"debug_off", overrides{debugLevel: 0}},
		{"debug_trace", overrides{debugLevel: 4}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateOverrides(tc.o); err != nil {
				t.Errorf("expected valid, got: %v", err)
			}
		})
	}
}

func TestValidateOverrides_Invalid(t *testing.T) {
	cases := []struct {
		name string
		o    overrides
	}{
		{"bad_mode", overrides{mode: "sideways", debugLevel: -1}},
		{"limit_negative", overrides{limit: -1, debugLevel: -1}},
		{"limit_too_large", overrides{limit: 181, debugLevel: -1}},
		{"limit_NaN", overrides{limit: math.NaN(), debugLevel: -1}},
		{"limit_+Inf", overrides{limit: math.Inf(1), debugLevel: -1}},
		{"debug_too_high", overrides{debugLevel: 5}},
		{"debug_too_low", overrides{debugLevel: -2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateOverrides(tc.o); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

// ---------- applyOverrides ----------

func baseConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Axis.Mode = motion.Absolute
	cfg.Axis.AngleLimit = 90
	cfg.Serial.Device = "/dev/ttyUSB0"
	cfg.Defaults.MockGPIO = false
	cfg.Defaults.DebugLevel = 2
	return cfg
}

func TestApplyOverrides_Unset(t *testing.T) {
	cfg := baseConfig()
	if err := applyOverrides(cfg, overrides{debugLevel: -1}); err != nil {
		t.Fatal(err)
	}
	want := baseConfig()
	if cfg.Axis != want.Axis || cfg.Serial != want.Serial || cfg.Defaults != want.Defaults {
		t.Errorf("unset overrides changed config: %+v", cfg)
	}
}

func TestApplyOverrides_All(t *testing.T) {
	cfg := baseConfig()
	err := applyOverrides(cfg, overrides{
		mode:       "relative",
		limit:      45,
		device:     "/dev/ttyACM0",
		mock:       true,
		mockSet:    true,
		debugLevel: 0,
	})
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Axis.Mode != motion.Relative {
		t.Errorf("mode = %v, want relative", cfg.Axis.Mode)
	}
	if cfg.Axis.AngleLimit != 45 {
		t.Errorf("angle_limit = %v, want 45", cfg.Axis.AngleLimit)
	}
	if cfg.Serial.Device != "/dev/ttyACM0" {
		t.Errorf("device = %q", cfg.Serial.Device)
	}
	if !cfg.Defaults.MockGPIO {
		t.Error("mock_gpio not applied")
	}
	if cfg.Defaults.DebugLevel != 0 {
		t.Errorf("debug_level = %d, want 0", cfg.Defaults.DebugLevel)
	}
}

func TestApplyOverrides_MockFalseOnlyWhenSet(t *testing.T) {
	cfg := baseConfig()
	cfg.Defaults.MockGPIO = true
	if err := applyOverrides(cfg, overrides{mock: false, debugLevel: -1}); err != nil {
		t.Fatal(err)
	}
	if !cfg.Defaults.MockGPIO {
		t.Error("mock_gpio changed although --mock was not given")
	}
}

// ---------- motorConfig ----------

func TestMotorConfig_CoilPins(t *testing.T) {
	cfg := &config.Config{}
	cfg.Motor.CoilPins = []int{17, 22, 27, 23}
	cfg.Motor.StepsPerRev = 2048
	mc := motorConfig(cfg)
	if mc.CoilPins != [4]int{17, 22, 27, 23} {
		t.Errorf("CoilPins = %v", mc.CoilPins)
	}
	if mc.StepsPerRev != 2048 {
		t.Errorf("StepsPerRev = %d", mc.StepsPerRev)
	}
}

// ---------- commands ----------

// chdirRepoRoot runs the test from the module root so the default
// configs/default.yaml resolves.
func chdirRepoRoot(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(filepath.Join("..", "..")); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestMoveCmd_MockHardware(t *testing.T) {
	chdirRepoRoot(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	err := execute(root, []string{"--mock", "--debug", "0", "move", "40.5", "abc", "-90"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Moved to position: 40.50\r\n",
		"Invalid angle: \"abc\"\r\n",
		"Moved to position: -90.00\r\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestReplCmd_RelativeMode(t *testing.T) {
	chdirRepoRoot(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetIn(strings.NewReader("move -59.8\nmove -65\nmove\n"))

	if err := execute(root, []string{"--mock", "--debug", "0", "--mode", "relative", "repl"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "Moved to position: -90.00\r\n") {
		t.Errorf("expected saturation at -90:\n%s", got)
	}
	if !strings.HasSuffix(got, "Invalid command\r\n") {
		t.Errorf("expected final Invalid command:\n%s", got)
	}
}

func TestRootCmd_RejectsBadOverride(t *testing.T) {
	chdirRepoRoot(t)
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := execute(root, []string{"--mock", "--limit", "500", "move", "1"}); err == nil {
		t.Error("expected error for --limit 500")
	}
}

// ---------- negative angles ----------

func TestProtectNegativeArgs(t *testing.T) {
	flags := newRootCmd().PersistentFlags()
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"no_negatives", []string{"move", "10", "20"}, []string{"move", "10", "20"}},
		{"negative_angle", []string{"--mock", "move", "40.5", "-90", "5"},
			[]string{"--mock", "move", "40.5", "--", "-90", "5"}},
		{"leading_dot", []string{"move", "-.5"}, []string{"move", "--", "-.5"}},
		{"flag_value_after_move", []string{"move", "--debug", "-1", "-2"},
			[]string{"move", "--debug", "-1", "--", "-2"}},
		{"flag_with_equals", []string{"move", "--limit=90", "-5"},
			[]string{"move", "--limit=90", "--", "-5"}},
		{"already_separated", []string{"move", "--", "-90"}, []string{"move", "--", "-90"}},
		{"before_move_untouched", []string{"--debug", "-1", "repl"}, []string{"--debug", "-1", "repl"}},
		{"other_command", []string{"demo", "-5"}, []string{"demo", "-5"}},
		{"quoted_relative", []string{"move", "move -10"}, []string{"move", "move -10"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := protectNegativeArgs(flags, tc.in)
			if strings.Join(got, " ") != strings.Join(tc.want, " ") || len(got) != len(tc.want) {
				t.Errorf("protectNegativeArgs(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestMoveCmd_NegativeOnly(t *testing.T) {
	chdirRepoRoot(t)
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)

	if err := execute(root, []string{"--mock", "--debug", "0", "move", "-45", "-90"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), "Moved to position: -90.00\r\n") {
		t.Errorf("expected final move to -90:\n%s", out.String())
	}
}

// ---------- serve ----------

func TestServe_SerialOpenFailureStartsNothing(t *testing.T) {
	chdirRepoRoot(t)
	cfg, err := config.Load(filepath.Join("configs", "default.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Defaults.MockGPIO = true
	cfg.Serial.Device = filepath.Join(t.TempDir(), "no-such-tty")

	// Reserve a free port for the web server, then release it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Web.Addr = ln.Addr().String()
	ln.Close()

	a, err := newApp(cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	defer debug.SetOutput(os.Stdout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := serve(ctx, a); err == nil {
		t.Fatal("expected serial open error")
	}
	if ctx.Err() != nil {
		t.Fatal("serve blocked instead of returning the open error")
	}
	if conn, err := net.DialTimeout("tcp", cfg.Web.Addr, 200*time.Millisecond); err == nil {
		conn.Close()
		t.Errorf("web server still listening on %s after serve failed", cfg.Web.Addr)
	}
}
