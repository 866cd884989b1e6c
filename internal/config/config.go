package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Versifine/kinematic/internal/controller"
	"github.com/Versifine/kinematic/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	ModeTUI      = "tui"
	ModeConsole  = "console"
	ModeHeadless = "headless"

	BackendGrid     = "grid"
	BackendChipmunk = "chipmunk"

	DefaultHeadlessSteps = 300
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Mode      string          `yaml:"mode"`
	Logging   LoggingConfig   `yaml:"logging"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Player    PlayerConfig    `yaml:"player"`
	Layers    LayersConfig    `yaml:"layers"`
	Level     LevelConfig     `yaml:"level"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Audio     AudioConfig     `yaml:"audio"`
	Headless  HeadlessConfig  `yaml:"headless"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type PhysicsConfig struct {
	Gravity              []float64 `yaml:"gravity"`
	FixedDelta           float64   `yaml:"fixed_delta"`
	MaxStepsPerFrame     int       `yaml:"max_steps_per_frame"`
	MinGroundNormalY     float64   `yaml:"min_ground_normal_y"`
	MinMoveDistance      float64   `yaml:"min_move_distance"`
	ShellRadius          float64   `yaml:"shell_radius"`
	PushDecelerationRate float64   `yaml:"push_deceleration_rate"`
}

type PlayerConfig struct {
	MaxSpeed          float64 `yaml:"max_speed"`
	JumpTakeOffSpeed  float64 `yaml:"jump_take_off_speed"`
	JumpReleaseFactor float64 `yaml:"jump_release_factor"`
	GravityModifier   float64 `yaml:"gravity_modifier"`
}

// LayersConfig names collision layers and lists pairs that do not collide.
// Everything collides by default.
type LayersConfig struct {
	Names  []string   `yaml:"names"`
	Ignore [][]string `yaml:"ignore"`
}

type LevelConfig struct {
	Backend string   `yaml:"backend"`
	Tiles   []string `yaml:"tiles"`
}

type TelemetryConfig struct {
	Listen string `yaml:"listen"`
}

type AudioConfig struct {
	Enabled bool `yaml:"enabled"`
}

type HeadlessConfig struct {
	Steps int `yaml:"steps"`
}

// Default returns a fully populated configuration. Load decodes on top of
// it, so a key present in the file wins even when its value is zero.
func Default() *Config {
	return &Config{
		Mode:    ModeTUI,
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Physics: PhysicsConfig{
			Gravity:              []float64{physics.DefaultGravity.X, physics.DefaultGravity.Y},
			FixedDelta:           physics.DefaultFixedDelta,
			MaxStepsPerFrame:     5,
			MinGroundNormalY:     physics.DefaultMinGroundNormalY,
			MinMoveDistance:      physics.DefaultMinMoveDistance,
			ShellRadius:          physics.DefaultShellRadius,
			PushDecelerationRate: physics.DefaultPushDecelerationRate,
		},
		Player: PlayerConfig{
			MaxSpeed:          controller.DefaultMaxSpeed,
			JumpTakeOffSpeed:  controller.DefaultJumpTakeOffSpeed,
			JumpReleaseFactor: controller.DefaultJumpReleaseFactor,
			GravityModifier:   physics.DefaultGravityModifier,
		},
		Layers:   LayersConfig{Names: []string{"default", "player", "crate"}},
		Level:    LevelConfig{Backend: BackendGrid},
		Headless: HeadlessConfig{Steps: DefaultHeadlessSteps},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills fields whose zero value is never usable, such as an
// empty mode or a zero time step. Tuning values where zero means something
// are left alone.
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Logging.Level == "" {
		c.Logging.Level = d.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = d.Logging.Format
	}
	if len(c.Physics.Gravity) == 0 {
		c.Physics.Gravity = d.Physics.Gravity
	}
	if c.Physics.FixedDelta == 0 {
		c.Physics.FixedDelta = d.Physics.FixedDelta
	}
	if c.Physics.MaxStepsPerFrame == 0 {
		c.Physics.MaxStepsPerFrame = d.Physics.MaxStepsPerFrame
	}
	if len(c.Layers.Names) == 0 {
		c.Layers.Names = d.Layers.Names
	}
	if c.Level.Backend == "" {
		c.Level.Backend = d.Level.Backend
	}
	if c.Headless.Steps == 0 {
		c.Headless.Steps = d.Headless.Steps
	}
}

func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTUI, ModeConsole, ModeHeadless:
	default:
		return fmt.Errorf("%w: mode %q", ErrInvalid, c.Mode)
	}
	switch c.Level.Backend {
	case BackendGrid, BackendChipmunk:
	default:
		return fmt.Errorf("%w: level.backend %q", ErrInvalid, c.Level.Backend)
	}

	p := c.Physics
	switch {
	case len(p.Gravity) != 2:
		return fmt.Errorf("%w: physics.gravity needs 2 components, got %d", ErrInvalid, len(p.Gravity))
	case p.FixedDelta < 0:
		return fmt.Errorf("%w: physics.fixed_delta %v", ErrInvalid, p.FixedDelta)
	case p.MaxStepsPerFrame < 0:
		return fmt.Errorf("%w: physics.max_steps_per_frame %d", ErrInvalid, p.MaxStepsPerFrame)
	case p.MinGroundNormalY < 0 || p.MinGroundNormalY >= 1:
		return fmt.Errorf("%w: physics.min_ground_normal_y %v outside [0,1)", ErrInvalid, p.MinGroundNormalY)
	case p.MinMoveDistance < 0:
		return fmt.Errorf("%w: physics.min_move_distance %v", ErrInvalid, p.MinMoveDistance)
	case p.ShellRadius < 0:
		return fmt.Errorf("%w: physics.shell_radius %v", ErrInvalid, p.ShellRadius)
	case p.PushDecelerationRate < 0 || p.PushDecelerationRate > 1:
		return fmt.Errorf("%w: physics.push_deceleration_rate %v outside [0,1]", ErrInvalid, p.PushDecelerationRate)
	}

	if c.Player.MaxSpeed < 0 || c.Player.JumpTakeOffSpeed < 0 {
		return fmt.Errorf("%w: player speeds must not be negative", ErrInvalid)
	}
	if c.Player.JumpReleaseFactor < 0 || c.Player.JumpReleaseFactor > 1 {
		return fmt.Errorf("%w: player.jump_release_factor %v outside [0,1]", ErrInvalid, c.Player.JumpReleaseFactor)
	}

	if _, err := c.LayerMatrix(); err != nil {
		return err
	}
	if c.Headless.Steps < 0 {
		return fmt.Errorf("%w: headless.steps %d", ErrInvalid, c.Headless.Steps)
	}
	return nil
}

// LayerIndex returns the index of a named layer.
func (c *Config) LayerIndex(name string) (int, bool) {
	for i, n := range c.Layers.Names {
		if strings.EqualFold(n, name) {
			return i, true
		}
	}
	return 0, false
}

// LayerMatrix builds the collision matrix from the layer section.
func (c *Config) LayerMatrix() (physics.LayerMatrix, error) {
	m := physics.NewLayerMatrix()
	if len(c.Layers.Names) > physics.MaxLayers {
		return m, fmt.Errorf("%w: %d layers, max %d", ErrInvalid, len(c.Layers.Names), physics.MaxLayers)
	}
	for _, pair := range c.Layers.Ignore {
		if len(pair) != 2 {
			return m, fmt.Errorf("%w: layers.ignore entry %v needs 2 names", ErrInvalid, pair)
		}
		a, okA := c.LayerIndex(pair[0])
		b, okB := c.LayerIndex(pair[1])
		if !okA || !okB {
			return m, fmt.Errorf("%w: layers.ignore entry %v names an unknown layer", ErrInvalid, pair)
		}
		m.Ignore(a, b, true)
	}
	return m, nil
}

// BodyConfig maps the physics section onto a body configuration.
func (c *Config) BodyConfig() physics.BodyConfig {
	cfg := physics.DefaultBodyConfig()
	if len(c.Physics.Gravity) == 2 {
		cfg.Gravity.X = c.Physics.Gravity[0]
		cfg.Gravity.Y = c.Physics.Gravity[1]
	}
	cfg.MinGroundNormalY = c.Physics.MinGroundNormalY
	cfg.MinMoveDistance = c.Physics.MinMoveDistance
	cfg.ShellRadius = c.Physics.ShellRadius
	return cfg
}

func (c *Config) ControllerConfig() controller.Config {
	return controller.Config{
		MaxSpeed:          c.Player.MaxSpeed,
		JumpTakeOffSpeed:  c.Player.JumpTakeOffSpeed,
		JumpReleaseFactor: c.Player.JumpReleaseFactor,
	}
}
