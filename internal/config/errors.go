package config

import (
	"errors"
)

// Sentinel kinds for configuration loading and validation.
var (
	ErrInvalidConfig      = errors.New("invalid config")
	ErrLoadConfig         = errors.New("load config failed")
	ErrConfigFileNotFound = errors.New("config file not found")
)
