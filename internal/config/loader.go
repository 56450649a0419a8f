package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the per-project config file looked up in the
// working directory.
const ConfigFileName = ".goalrun.yaml"

// EnvFileName holds API credentials as KEY=VALUE lines.
const EnvFileName = ".goalrun.env"

// Default values for Config.
const (
	DefaultModel         = "gpt-4o"
	DefaultMaxIterations = 5
	DefaultUVBin         = "uv"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:         DefaultModel,
		MaxIterations: DefaultMaxIterations,
		UVBin:         DefaultUVBin,
	}
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// LoadConfig reads and parses .goalrun.yaml from the given base path.
// If the file doesn't exist, returns default config.
// Applies defaults for any missing fields.
func LoadConfig(basePath string) (*Config, error) {
	configPath := filepath.Join(basePath, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ValidateConfig checks that all config values are valid.
func ValidateConfig(cfg *Config) error {
	if cfg.Model == "" {
		return ValidationError{Field: "model", Message: "required field is empty"}
	}
	if cfg.MaxIterations <= 0 {
		return ValidationError{Field: "max_iterations", Message: "must be positive"}
	}
	if cfg.UVBin == "" {
		return ValidationError{Field: "uv_bin", Message: "required field is empty"}
	}
	return nil
}

// LoadEnvFile parses a .goalrun.env file into a map of key-value pairs.
// The file format is KEY=VALUE per line. Lines starting with # are comments.
// Empty lines are ignored.
func LoadEnvFile(basePath string) (map[string]string, error) {
	envPath := filepath.Join(basePath, EnvFileName)

	file, err := os.Open(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, fmt.Errorf("failed to open env file: %w", err)
	}
	defer file.Close()

	env := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Split on first =
		idx := strings.Index(line, "=")
		if idx == -1 {
			return nil, fmt.Errorf("invalid env file line %d: missing '='", lineNum)
		}

		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])

		// Strip surrounding quotes (single or double)
		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		if key == "" {
			return nil, fmt.Errorf("invalid env file line %d: empty key", lineNum)
		}

		env[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	return env, nil
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
