package config

type LogConfig struct {
	Level             string `yaml:"level" env:"POLYMARKET_LOG_LEVEL"` // debug, info, warn, error
	Encoding          string `yaml:"encoding"`                         // console, json
	Development       bool   `yaml:"development"`
	Sampling          bool   `yaml:"sampling"`
	DisableCaller     bool   `yaml:"disable_caller"`
	DisableStacktrace bool   `yaml:"disable_stacktrace"`
}
