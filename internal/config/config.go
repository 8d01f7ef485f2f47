// Package config provides configuration utilities for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ledgerkeep/buxsync/internal/buxfer"
	"github.com/ledgerkeep/buxsync/internal/common"
	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// LoadDotenv loads a .env file into the process environment if one exists.
// Missing files are fine; explicit config and environment variables win over
// .env entries.
func LoadDotenv() {
	_ = godotenv.Load()
}

// BuxferConfig assembles the Buxfer client configuration from viper,
// falling back to BUXFER_EMAIL / BUXFER_PASSWORD environment variables so a
// .env file alone is enough to authenticate.
func BuxferConfig() (buxfer.Config, error) {
	cfg := buxfer.Config{
		Email:    viper.GetString("buxfer.email"),
		Password: viper.GetString("buxfer.password"),
		BaseURL:  viper.GetString("buxfer.base_url"),
	}

	if cfg.Email == "" {
		cfg.Email = os.Getenv("BUXFER_EMAIL")
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv("BUXFER_PASSWORD")
	}

	if err := cfg.Validate(); err != nil {
		return buxfer.Config{}, common.NewUserError(
			"set buxfer.email and buxfer.password in the config file, or BUXFER_EMAIL and BUXFER_PASSWORD in the environment", err)
	}

	return cfg, nil
}

// DatabasePath resolves the sync journal location.
func DatabasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return ExpandPath(path), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		dataDir = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataDir, "buxsync", "buxsync.db"), nil
}
