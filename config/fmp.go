package config

import "time"

type FMPConfig struct {
	APIKey  string        `env:"FMP_KEY"`
	BaseURL string        `env:"FMP_BASE_URL"`
	Timeout time.Duration `env:"FMP_TIMEOUT"`
}

func NewFMPConfig() *FMPConfig {
	return &FMPConfig{
		BaseURL: "https://financialmodelingprep.com/stable",
		Timeout: 30 * time.Second,
	}
}

func ResolveFMPConfig() (*FMPConfig, error) {
	conf := NewFMPConfig()
	if err := resolveConfig(conf, false); err != nil {
		return nil, err
	}
	return conf, nil
}
