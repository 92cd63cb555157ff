package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file named by DIAG_ENV (or .env by default).
// A missing file is not an error; values already in the environment win.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("DIAG_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	if _, err := os.Stat(envFile); err != nil {
		return nil
	}
	return godotenv.Load(envFile)
}

// Reliability returns the per-bit sensor reliability.
// Defaults to 0.9 if not set or outside (0,1).
func Reliability() float64 {
	r, err := strconv.ParseFloat(os.Getenv("DIAG_RELIABILITY"), 64)
	if err != nil || r <= 0 || r >= 1 {
		return 0.9
	}
	return r
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("DIAG_LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}

// LogFile returns the log file path; empty means stderr
func LogFile() string {
	return os.Getenv("DIAG_LOG_FILE")
}

// Workers returns the number of batch evaluation workers.
// Defaults to the number of CPUs.
func Workers() int {
	n, err := strconv.Atoi(os.Getenv("DIAG_WORKERS"))
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
