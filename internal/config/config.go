// Package config holds the tunable surface of the tracking pipeline and
// loads overrides from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/ayusman/kursorin/internal/click"
	"github.com/ayusman/kursorin/internal/fusion"
)

// Config is the full configuration surface. Field defaults are expressed as
// env defaults so Default and FromEnv stay in sync.
type Config struct {
	// Camera
	CameraIndex  int  `env:"KURSORIN_CAMERA_INDEX" envDefault:"0"`
	CameraWidth  int  `env:"KURSORIN_CAMERA_WIDTH" envDefault:"1280"`
	CameraHeight int  `env:"KURSORIN_CAMERA_HEIGHT" envDefault:"720"`
	CameraFPS    int  `env:"KURSORIN_CAMERA_FPS" envDefault:"30"`
	WarmupFrames int  `env:"KURSORIN_WARMUP_FRAMES" envDefault:"30"`
	Mirror       bool `env:"KURSORIN_MIRROR" envDefault:"true"`

	// Modalities and fusion weights
	HeadEnabled bool    `env:"KURSORIN_HEAD_ENABLED" envDefault:"true"`
	EyeEnabled  bool    `env:"KURSORIN_EYE_ENABLED" envDefault:"true"`
	HandEnabled bool    `env:"KURSORIN_HAND_ENABLED" envDefault:"true"`
	WeightHead  float64 `env:"KURSORIN_WEIGHT_HEAD" envDefault:"0.4"`
	WeightEye   float64 `env:"KURSORIN_WEIGHT_EYE" envDefault:"0.3"`
	WeightHand  float64 `env:"KURSORIN_WEIGHT_HAND" envDefault:"0.3"`

	// Adaptive filter
	FilterMinCutoff float64 `env:"KURSORIN_FILTER_MIN_CUTOFF" envDefault:"1.0"`
	FilterBeta      float64 `env:"KURSORIN_FILTER_BETA" envDefault:"0.007"`

	// Click detection
	BlinkEnabled     bool          `env:"KURSORIN_BLINK_ENABLED" envDefault:"true"`
	BlinkThreshold   float64       `env:"KURSORIN_BLINK_THRESHOLD" envDefault:"0.2"`
	BlinkMinDuration time.Duration `env:"KURSORIN_BLINK_MIN_DURATION" envDefault:"50ms"`
	BlinkMaxDuration time.Duration `env:"KURSORIN_BLINK_MAX_DURATION" envDefault:"400ms"`

	PinchEnabled      bool          `env:"KURSORIN_PINCH_ENABLED" envDefault:"true"`
	PinchThreshold    float64       `env:"KURSORIN_PINCH_THRESHOLD" envDefault:"0.05"`
	PinchHoldDuration time.Duration `env:"KURSORIN_PINCH_HOLD_DURATION" envDefault:"500ms"`

	DwellEnabled  bool          `env:"KURSORIN_DWELL_ENABLED" envDefault:"true"`
	DwellRadius   float64       `env:"KURSORIN_DWELL_RADIUS" envDefault:"0.02"`
	DwellDuration time.Duration `env:"KURSORIN_DWELL_DURATION" envDefault:"1s"`

	// Actuation
	InvertX bool `env:"KURSORIN_INVERT_X" envDefault:"false"`
	InvertY bool `env:"KURSORIN_INVERT_Y" envDefault:"false"`

	// Server
	ListenAddr string `env:"KURSORIN_LISTEN_ADDR" envDefault:":8080"`
}

// Default returns the configuration with all defaults applied and no
// environment overrides.
func Default() Config {
	var cfg Config
	// Parsing an empty environment applies the envDefault tags.
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}}); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// FromEnv loads the configuration from environment variables, falling back
// to defaults for unset ones.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Fusion derives the fusion engine configuration.
func (c Config) Fusion() fusion.Config {
	return fusion.Config{
		HeadEnabled: c.HeadEnabled,
		EyeEnabled:  c.EyeEnabled,
		HandEnabled: c.HandEnabled,
		Weights: fusion.Weights{
			Head: c.WeightHead,
			Eye:  c.WeightEye,
			Hand: c.WeightHand,
		},
	}
}

// Click derives the click detector configuration.
func (c Config) Click() click.Config {
	return click.Config{
		BlinkEnabled:      c.BlinkEnabled,
		BlinkThreshold:    c.BlinkThreshold,
		BlinkMinDuration:  c.BlinkMinDuration,
		BlinkMaxDuration:  c.BlinkMaxDuration,
		PinchEnabled:      c.PinchEnabled,
		PinchThreshold:    c.PinchThreshold,
		PinchHoldDuration: c.PinchHoldDuration,
		DwellEnabled:      c.DwellEnabled,
		DwellRadius:       c.DwellRadius,
		DwellDuration:     c.DwellDuration,
	}
}
