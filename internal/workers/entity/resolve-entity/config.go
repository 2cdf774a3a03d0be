package resolveentity

import "time"

type Config struct {
	Timeout         time.Duration
	CacheTTL        time.Duration
	AllowedPrefixes string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:         10 * time.Second,
		CacheTTL:        5 * time.Minute,
		AllowedPrefixes: DefaultAllowedPrefixes,
	}
}
