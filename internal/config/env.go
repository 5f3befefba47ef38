package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override YAML settings.
const (
	EnvServerAddress = "LOST_ITEM_SERVER_ADDR"
	EnvUserID        = "LOST_ITEM_USER_ID"
	EnvLogLevel      = "LOST_ITEM_LOG_LEVEL"
	EnvStorageDriver = "LOST_ITEM_STORAGE_DRIVER"
	EnvStoragePath   = "LOST_ITEM_STORAGE_PATH"
	EnvRedisAddress  = "LOST_ITEM_REDIS_ADDR"
	EnvRedisPassword = "LOST_ITEM_REDIS_PASSWORD"
	EnvRedisDB       = "LOST_ITEM_REDIS_DB"
)

// environment merges the dotenv file with the process environment.
// Real environment variables win over the file.
func environment(envFile string) (map[string]string, error) {
	values := make(map[string]string)

	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)

		switch {
		case err == nil:
			values = fromFile
		case errors.Is(err, os.ErrNotExist):
			// Optional file.
		default:
			return nil, fmt.Errorf("read env file: %w", err)
		}
	}

	for _, key := range []string{
		EnvServerAddress,
		EnvUserID,
		EnvLogLevel,
		EnvStorageDriver,
		EnvStoragePath,
		EnvRedisAddress,
		EnvRedisPassword,
		EnvRedisDB,
	} {
		if v, ok := os.LookupEnv(key); ok {
			values[key] = v
		}
	}

	return values, nil
}

// applyEnv copies known overrides into cfg.
func applyEnv(cfg *Config, env map[string]string) error {
	targets := map[string]*string{
		EnvServerAddress: &cfg.ServerAddress,
		EnvUserID:        &cfg.UserID,
		EnvLogLevel:      &cfg.LogLevel,
		EnvStorageDriver: &cfg.Storage.Driver,
		EnvStoragePath:   &cfg.Storage.Path,
		EnvRedisAddress:  &cfg.Storage.RedisAddress,
		EnvRedisPassword: &cfg.Storage.RedisPassword,
	}

	for key, target := range targets {
		if v, ok := env[key]; ok && v != "" {
			*target = v
		}
	}

	if v, ok := env[EnvRedisDB]; ok && v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvRedisDB, err)
		}

		cfg.Storage.RedisDB = db
	}

	return nil
}
