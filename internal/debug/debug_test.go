package debug

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, lvl int) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	Init(lvl)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		Init(LevelOff)
	})
	return &buf
}

func TestLevelGating(t *testing.T) {
	cases := []struct {
		level int
		want  []string
		skip  []string
	}{
		{LevelOff, nil, []string{"[INFO]", "[LIVE]", "[VERBOSE]", "[GPIO]"}},
		{LevelInfo, []string{"[INFO] started", "[ERROR] boom"}, []string{"[LIVE]"}},
		{LevelLive, []string{"[LIVE] Command c1 from serial: \"40.5\"", "Motor: 307 steps"}, []string{"[VERBOSE]"}},
		{LevelVerbose, []string{"[VERBOSE] detail", "  Setup"}, []string{"[GPIO]"}},
		{LevelTrace, []string{"[GPIO] WritePin pin=17 value=HIGH", "[TRACE] phase"}, nil},
	}
	for _, tc := range cases {
		buf := capture(t, tc.level)
		Info("started")
		Error(errors.New("boom"))
		Command("c1", "serial", "40.5")
		Move(307, 0, 40.5)
		Verbose("detail")
		Section("Setup")
		GPIO("WritePin", 17, "HIGH")
		Trace("phase")

		out := buf.String()
		for _, w := range tc.want {
			if !strings.Contains(out, w) {
				t.Errorf("level %d: output missing %q:\n%s", tc.level, w, out)
			}
		}
		for _, s := range tc.skip {
			if strings.Contains(out, s) {
				t.Errorf("level %d: output should not contain %q:\n%s", tc.level, s, out)
			}
		}
	}
}

func TestIsEnabled(t *testing.T) {
	capture(t, LevelLive)
	if !IsEnabled(LevelInfo) || !IsEnabled(LevelLive) {
		t.Error("info and live should be enabled at level 2")
	}
	if IsEnabled(LevelVerbose) {
		t.Error("verbose should be disabled at level 2")
	}
	if Level() != LevelLive {
		t.Errorf("Level() = %d, want %d", Level(), LevelLive)
	}
}

func TestSetOutputAfterInit(t *testing.T) {
	capture(t, LevelInfo)
	var other bytes.Buffer
	SetOutput(&other)
	Info("redirected")
	if !strings.Contains(other.String(), "[PanAxis] ") || !strings.Contains(other.String(), "redirected") {
		t.Errorf("output = %q", other.String())
	}
}
