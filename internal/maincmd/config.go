package maincmd

import "github.com/caarlos0/env/v6"

// Config carries the virtual machine's runtime limits, read from the
// environment in addition to (and independently of) the command's flags.
// It mirrors the struct-tag style mainer.Parser itself uses for env-var
// flag fallback.
type Config struct {
	// MaxSteps bounds the number of dispatched instructions before a
	// thread aborts with a runtime error. Zero means unlimited.
	MaxSteps int `env:"RILL_MAX_STEPS" envDefault:"0"`

	// MaxCallStackDepth bounds call-frame nesting before Call fails
	// instead of recursing further. Zero means unlimited.
	MaxCallStackDepth int `env:"RILL_MAX_CALL_DEPTH" envDefault:"0"`
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
