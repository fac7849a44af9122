package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// MaxConfigFileBytes caps the size of a configuration file.
const MaxConfigFileBytes = 1 << 20

// MotorConfig holds the configuration for the stepper motor.
type MotorConfig struct {
	Type             string `yaml:"type"`      // "coil4" (ULN2003) or "step_dir" (A4988)
	CoilPins         []int  `yaml:"coil_pins"` // coil4: BCM pins in driving order IN1, IN3, IN2, IN4
	StepPin          int    `yaml:"step_pin"`
	DirPin           int    `yaml:"dir_pin"`
	EnablePin        int    `yaml:"enable_pin"` // A4988 ENABLE pin (BCM). 0 = not used. Active LOW.
	StepsPerRev      int    `yaml:"steps_per_rev"`
	SpeedRPM         int    `yaml:"speed_rpm"`
	ReleaseAfterMove bool   `yaml:"release_after_move"`
}

// AxisConfig describes the actuator travel and how commands are read.
type AxisConfig struct {
	Mode            motion.Mode `yaml:"mode"`             // absolute | relative
	TravelDegrees   float64     `yaml:"travel_degrees"`   // travel covered by one motor revolution (270 or 90)
	AngleLimit      float64     `yaml:"angle_limit"`      // symmetric hard limit in degrees
	InvertDirection bool        `yaml:"invert_direction"` // negate commanded values (reverses rotation)
}

// SerialConfig is the serial command line. Empty Device disables it.
type SerialConfig struct {
	Device        string `yaml:"device"` // e.g., "/dev/ttyUSB0"
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"` // 0 = blocking reads
}

// WebConfig is the HTTP/websocket surface. Empty Addr disables it.
type WebConfig struct {
	Addr string `yaml:"addr"` // e.g., ":8080"
}

// TelemetryConfig points at an InfluxDB 2 instance. Empty URL disables it.
// The token is read from the INFLUX_TOKEN environment variable.
type TelemetryConfig struct {
	InfluxURL string `yaml:"influx_url"`
	Org       string `yaml:"org"`
	Bucket    string `yaml:"bucket"`
}

// FollowConfig is the hand-position follower input.
type FollowConfig struct {
	Path           string `yaml:"path"`             // file of positions in [-1, 1], one per line
	PollIntervalMs int    `yaml:"poll_interval_ms"` // delay between reads once EOF is reached
}

// DemoConfig is the scripted command sequence run by "panaxis demo".
type DemoConfig struct {
	Commands []string `yaml:"commands"`
	DelayMs  int      `yaml:"delay_ms"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Motor     MotorConfig     `yaml:"motor"`
	Axis      AxisConfig      `yaml:"axis"`
	Serial    SerialConfig    `yaml:"serial"`
	Web       WebConfig       `yaml:"web"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Follow    FollowConfig    `yaml:"follow"`
	Demo      DemoConfig      `yaml:"demo"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// Default values used when a key is missing or zero.
const (
	DefaultStepsPerRev   = 2048
	DefaultTravelDegrees = 270.0
	DefaultAngleLimit    = 90.0
	DefaultSpeedRPM      = 10
	DefaultSerialBaud    = 115200
	DefaultPollMs        = 100
	DefaultDemoDelayMs   = 1000
)

// DefaultDemoCommands is the bench test sweep.
var DefaultDemoCommands = []string{"40.5", "0", "-30", "90", "0", "-90"}

// ValidateConfigPath checks that path names a .yaml file directly inside a
// "configs" directory and contains no parent-directory references.
func ValidateConfigPath(path string) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return fmt.Errorf("config path %q must not contain '..'", path)
		}
	}
	if filepath.Ext(path) != ".yaml" {
		return fmt.Errorf("config path %q must have a .yaml extension", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve config path: %w", err)
	}
	if filepath.Base(filepath.Dir(abs)) != "configs" {
		return fmt.Errorf("config file %q must be inside a configs/ directory", path)
	}
	return nil
}

// Load reads a YAML file and returns the configuration.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if info.Size() > MaxConfigFileBytes {
		return nil, fmt.Errorf("config file is %d bytes, limit is %d", info.Size(), MaxConfigFileBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Motor.Type == "" {
		c.Motor.Type = "coil4"
	}
	if c.Motor.StepsPerRev <= 0 {
		c.Motor.StepsPerRev = DefaultStepsPerRev // 28BYJ-48 with 1:64 gearbox
	}
	if c.Motor.SpeedRPM <= 0 {
		c.Motor.SpeedRPM = DefaultSpeedRPM
	}
	if c.Axis.TravelDegrees == 0 {
		c.Axis.TravelDegrees = DefaultTravelDegrees
	}
	if c.Axis.AngleLimit == 0 {
		c.Axis.AngleLimit = DefaultAngleLimit
	}
	if c.Serial.Baud <= 0 {
		c.Serial.Baud = DefaultSerialBaud
	}
	if c.Follow.PollIntervalMs <= 0 {
		c.Follow.PollIntervalMs = DefaultPollMs
	}
	if c.Demo.DelayMs <= 0 {
		c.Demo.DelayMs = DefaultDemoDelayMs
	}
	if len(c.Demo.Commands) == 0 {
		c.Demo.Commands = append([]string(nil), DefaultDemoCommands...)
	}
}

// Validate checks ranges and cross-field requirements.
func (c *Config) Validate() error {
	switch c.Motor.Type {
	case "coil4":
		if len(c.Motor.CoilPins) != 4 {
			return fmt.Errorf("motor.coil_pins must list 4 pins, got %d", len(c.Motor.CoilPins))
		}
	case "step_dir":
		if c.Motor.StepPin <= 0 || c.Motor.DirPin <= 0 {
			return errors.New("motor.step_pin and motor.dir_pin are required for step_dir")
		}
	default:
		return fmt.Errorf("unsupported motor.type: %s", c.Motor.Type)
	}
	if c.Motor.SpeedRPM > 60 {
		return fmt.Errorf("motor.speed_rpm must be <= 60, got %d", c.Motor.SpeedRPM)
	}
	if !finitePositive(c.Axis.TravelDegrees) || c.Axis.TravelDegrees > 360 {
		return fmt.Errorf("axis.travel_degrees must be between 0 and 360, got %.2f", c.Axis.TravelDegrees)
	}
	if !finitePositive(c.Axis.AngleLimit) || c.Axis.AngleLimit > 180 {
		return fmt.Errorf("axis.angle_limit must be between 0 and 180, got %.2f", c.Axis.AngleLimit)
	}
	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be 0-4, got %d", c.Defaults.DebugLevel)
	}
	if c.Telemetry.InfluxURL != "" && (c.Telemetry.Org == "" || c.Telemetry.Bucket == "") {
		return errors.New("telemetry.org and telemetry.bucket are required with telemetry.influx_url")
	}
	return nil
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// MotionConfig returns the controller parameters.
func (c *Config) MotionConfig() motion.Config {
	return motion.Config{
		Mode:            c.Axis.Mode,
		StepsPerRev:     c.Motor.StepsPerRev,
		TravelDegrees:   c.Axis.TravelDegrees,
		AngleLimit:      c.Axis.AngleLimit,
		InvertDirection: c.Axis.InvertDirection,
	}
}

// SerialReadTimeout returns the serial read timeout (0 = blocking).
func (c *Config) SerialReadTimeout() time.Duration {
	return time.Duration(c.Serial.ReadTimeoutMs) * time.Millisecond
}

// FollowPollInterval returns the follower polling interval.
func (c *Config) FollowPollInterval() time.Duration {
	return time.Duration(c.Follow.PollIntervalMs) * time.Millisecond
}

// DemoDelay returns the pause between demo commands.
func (c *Config) DemoDelay() time.Duration {
	return time.Duration(c.Demo.DelayMs) * time.Millisecond
}
