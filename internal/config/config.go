// Package config reads the settings the Lambda runtime injects into the
// environment.
package config

import "os"

// Settings describes the function as the runtime sees it.
type Settings struct {
	FunctionName    string // AWS_LAMBDA_FUNCTION_NAME
	FunctionVersion string // AWS_LAMBDA_FUNCTION_VERSION
	MemoryMB        string // AWS_LAMBDA_FUNCTION_MEMORY_SIZE
	Region          string // AWS_REGION
	RuntimeAPI      string // AWS_LAMBDA_RUNTIME_API
	LogLevel        string // LOG_LEVEL
}

// FromEnv collects settings from the reserved runtime variables. Absent
// variables come back empty; outside a sandbox that is the normal case.
func FromEnv() Settings {
	return Settings{
		FunctionName:    os.Getenv("AWS_LAMBDA_FUNCTION_NAME"),
		FunctionVersion: os.Getenv("AWS_LAMBDA_FUNCTION_VERSION"),
		MemoryMB:        os.Getenv("AWS_LAMBDA_FUNCTION_MEMORY_SIZE"),
		Region:          os.Getenv("AWS_REGION"),
		RuntimeAPI:      os.Getenv("AWS_LAMBDA_RUNTIME_API"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
	}
}
