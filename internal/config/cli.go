package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// CLI is the configuration of the babylog command line tracker.
type CLI struct {
	DBPath    string `yaml:"db_path" envconfig:"DB_PATH"`
	Subject   string `yaml:"subject" envconfig:"SUBJECT"`
	Caregiver string `yaml:"caregiver" envconfig:"CAREGIVER"`
	Name      string `yaml:"name" envconfig:"NAME"`
	TimeZone  string `yaml:"time_zone" envconfig:"TIME_ZONE"`
	LogLevel  string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// DefaultCLIPath is $XDG_CONFIG_HOME/babylog/config.yaml.
func DefaultCLIPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "babylog.yaml"
	}
	return filepath.Join(dir, "babylog", "config.yaml")
}

// LoadCLI reads the CLI configuration. A missing file is not an error; environment variables
// prefixed with BABYLOG_ override file values.
func LoadCLI(path string) (CLI, error) {
	cfg := CLI{
		DBPath:   defaultDBPath(),
		TimeZone: "Local",
		LogLevel: "warn",
	}
	if user := os.Getenv("USER"); user != "" {
		cfg.Caregiver = user
		cfg.Name = user
	}

	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return CLI{}, err
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return CLI{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

func defaultDBPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return "babylog.db"
	}
	return filepath.Join(dir, ".babylog", "babylog.db")
}
