package config

import "errors"

// Validation errors returned when the merged configuration is unusable.
var (
	ErrInvalidDatabaseConfig = errors.New("invalid database configuration")
	ErrInvalidCommandsConfig = errors.New("invalid commands configuration")
	ErrInvalidLoggingConfig  = errors.New("invalid logging configuration")
	ErrInvalidNetworkConfig  = errors.New("invalid network configuration")
)
