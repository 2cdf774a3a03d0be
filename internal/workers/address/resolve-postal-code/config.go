package resolvepostalcode

import "time"

type Config struct {
	Timeout time.Duration
	Index   string
	// Upper bound on candidates returned for one code.
	MaxCandidates int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:       10 * time.Second,
		Index:         "postal_codes",
		MaxCandidates: 50,
	}
}
