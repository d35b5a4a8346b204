package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Avatar   AvatarConfig   `mapstructure:"avatar" validate:"required"`
	Tasks    TasksConfig    `mapstructure:"tasks" validate:"required"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port      int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel  string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"required,oneof=json text"`
	// ShutdownTimeoutSeconds bounds how long in-flight requests may run after a shutdown signal.
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gt=0"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres mongo"`
	URL    string `mapstructure:"url" validate:"required,url"`
	// Name is the MongoDB database name. Postgres takes it from the URL.
	Name         string `mapstructure:"name" validate:"required"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes of 0 issues tokens without expiry; they stay valid until logout.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gte=0"`
	BCryptCost           int `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// AvatarConfig limits and shapes uploaded avatar images.
type AvatarConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes" validate:"gt=0"`
	Size     int   `mapstructure:"size" validate:"gt=0,lte=2048"`
}

// TasksConfig contains task listing settings.
type TasksConfig struct {
	MaxPageSize int `mapstructure:"max_page_size" validate:"gt=0"`
}

// CORSConfig lists the origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
