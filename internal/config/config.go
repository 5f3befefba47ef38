package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds every setting used by the reminder binaries.
type Config struct {
	// ServerAddress is the gRPC address of the reminder server.
	ServerAddress string `yaml:"server_addr" validate:"required"`
	// UserID identifies whose home location the session tracks.
	UserID string `yaml:"user_id" validate:"required"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// Timeout is the duration for network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`

	Storage      StorageConfig      `yaml:"storage"`
	Reminder     ReminderConfig     `yaml:"reminder"`
	Position     PositionConfig     `yaml:"position"`
	Notification NotificationConfig `yaml:"notification"`
}

// StorageConfig selects and configures the home location backend.
type StorageConfig struct {
	// Driver is file, sqlite or redis.
	Driver string `yaml:"driver" validate:"oneof=file sqlite redis"`
	// Path is the JSON file or SQLite database location.
	Path string `yaml:"path" validate:"required_unless=Driver redis"`
	// RedisAddress is host:port of the Redis server.
	RedisAddress string `yaml:"redis_addr" validate:"required_if=Driver redis"`
	// RedisPassword is usually provided through LOST_ITEM_REDIS_PASSWORD.
	RedisPassword string `yaml:"redis_password,omitempty"`
	// RedisDB is the Redis database number.
	RedisDB int `yaml:"redis_db" validate:"gte=0,lte=15"`
	// KeyPrefix is prepended to Redis keys.
	KeyPrefix string `yaml:"key_prefix,omitempty"`
}

// ReminderConfig is the hysteresis band in meters.
type ReminderConfig struct {
	DepartureThreshold float64 `yaml:"departure_threshold_m" validate:"gt=0"`
	ReturnThreshold    float64 `yaml:"return_threshold_m" validate:"gt=0,ltfield=DepartureThreshold"`
}

// PositionConfig configures the position source and sampler.
type PositionConfig struct {
	// Source is replay, push or unsupported.
	Source string `yaml:"source" validate:"oneof=replay push unsupported"`
	// TrackFile is the YAML track played by the replay source.
	TrackFile string `yaml:"track_file,omitempty" validate:"required_if=Source replay"`
	// HighAccuracy asks the device for its most precise fixes. Unset means true.
	HighAccuracy *bool `yaml:"high_accuracy,omitempty"`
	// MaxFixAge drops fixes older than this. Zero means the default, a
	// negative value keeps fixes of any age.
	MaxFixAge time.Duration `yaml:"max_fix_age"`
	// Timeout reports a timeout when no fix arrives within this window.
	// Zero means the default, a negative value never times out.
	Timeout time.Duration `yaml:"timeout"`
}

// HighAccuracyEnabled reports the effective accuracy mode.
func (p *PositionConfig) HighAccuracyEnabled() bool {
	return p.HighAccuracy == nil || *p.HighAccuracy
}

// NotificationConfig configures the leave-home alert.
type NotificationConfig struct {
	// Platform is desktop or log.
	Platform string `yaml:"platform" validate:"oneof=desktop log"`
	Title    string `yaml:"title" validate:"required"`
	Body     string `yaml:"body" validate:"required"`
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "lost-item-tracker.yaml"
	// DefaultEnvFilename is the optional dotenv file read next to the settings.
	DefaultEnvFilename = ".env"
	// DefaultStorageFilename is the default JSON home location file.
	DefaultStorageFilename = "lost-item-tracker-users.json"
	// DefaultServerAddress is the loopback gRPC address used by Default.
	DefaultServerAddress = "127.0.0.1:50061"
	// DefaultUserID is used when the settings do not name a user.
	DefaultUserID = "local"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 5 * time.Second
	// DefaultMaxFixAge matches the browser geolocation maximumAge used by the web app.
	DefaultMaxFixAge = 10 * time.Second
	// DefaultPositionTimeout matches the browser geolocation timeout used by the web app.
	DefaultPositionTimeout = 5 * time.Second

	// DefaultDepartureThreshold is the departure distance in meters.
	DefaultDepartureThreshold = 200.0
	// DefaultReturnThreshold is the re-arm distance in meters.
	DefaultReturnThreshold = 50.0

	// DefaultNotificationTitle is the alert title.
	DefaultNotificationTitle = "Wait! Lost Item Tracker"
	// DefaultNotificationBody is the alert text.
	DefaultNotificationBody = "You just left home. Did you forget your important items (Keys, Wallet)?"

	// DefaultFilePermissions is the permission for files written by the project.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")

	//nolint:gochecknoglobals // validator caches struct metadata and is safe for concurrent use.
	validate = validator.New(validator.WithRequiredStructEnabled())
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		ServerAddress: DefaultServerAddress,
	}

	applyDefaults(cfg)

	return cfg
}

// Load reads configuration from the provided path, applies dotenv and
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	envFile := filepath.Join(filepath.Dir(filepath.Clean(path)), DefaultEnvFilename)

	return LoadWithEnv(path, envFile)
}

// LoadWithEnv is Load with an explicit dotenv file; a missing file is ignored.
func LoadWithEnv(path, envFile string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	env, err := environment(envFile)
	if err != nil {
		return nil, err
	}

	if err = applyEnv(&cfg, env); err != nil {
		return nil, err
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and checks the settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	applyDefaults(cfg)

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server socket: %w", err)
	}

	return nil
}

//nolint:cyclop // A flat list of defaults reads better than helpers.
func applyDefaults(cfg *Config) {
	if cfg.UserID == "" {
		cfg.UserID = DefaultUserID
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}

	if cfg.Storage.Path == "" && cfg.Storage.Driver == "file" {
		cfg.Storage.Path = DefaultStorageFilename
	}

	if cfg.Reminder.DepartureThreshold == 0 {
		cfg.Reminder.DepartureThreshold = DefaultDepartureThreshold
	}

	if cfg.Reminder.ReturnThreshold == 0 {
		cfg.Reminder.ReturnThreshold = DefaultReturnThreshold
	}

	if cfg.Position.Source == "" {
		cfg.Position.Source = "push"
	}

	if cfg.Position.HighAccuracy == nil {
		highAccuracy := true
		cfg.Position.HighAccuracy = &highAccuracy
	}

	if cfg.Position.MaxFixAge == 0 {
		cfg.Position.MaxFixAge = DefaultMaxFixAge
	}

	if cfg.Position.Timeout == 0 {
		cfg.Position.Timeout = DefaultPositionTimeout
	}

	if cfg.Notification.Platform == "" {
		cfg.Notification.Platform = "log"
	}

	if cfg.Notification.Title == "" {
		cfg.Notification.Title = DefaultNotificationTitle
	}

	if cfg.Notification.Body == "" {
		cfg.Notification.Body = DefaultNotificationBody
	}
}
