package createdocument

import "time"

type Config struct {
	Timeout time.Duration
	// Bounds the post-creation invoice check separately from the create call.
	InvoiceTimeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		InvoiceTimeout: 10 * time.Second,
	}
}
