package loadparameters

import "time"

type Config struct {
	Timeout time.Duration
	// Pre-fill initial values from the entity's latest document of the same type.
	PrefillEnabled bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        10 * time.Second,
		PrefillEnabled: true,
	}
}
