// File: internal/config/config.go
// MUD Engine - Configuration Management

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the MUD server.
type Config struct {
	// Server settings
	ServerName    string
	ServerVersion string
	ServerHost    string // Host/IP to bind to (empty string = all interfaces, "localhost" = local only)
	ServerPort    int    // telnet port
	WebSocketPort int    // WebSocket bridge port (C3's second listener); 0 disables it

	// Database settings
	DBType           string // "sqlite" or "postgres"
	DBHost           string // For PostgreSQL
	DBPort           int    // For PostgreSQL
	DBName           string // Database name or file path for SQLite
	DBUser           string // For PostgreSQL
	DBPassword       string // For PostgreSQL
	DBMaxConnections int
	DBMaxIdleConns   int

	// Redis settings
	RedisEnabled bool
	RedisHost    string
	RedisPort    int
	RedisDB      int

	// Filesystem layout (§6) — created at boot if absent.
	PlayerDir   string
	AreaDir     string
	LogDir      string
	HelpDir     string
	DefaultArea string

	// Server behavior
	MaxPlayers          int
	ShutdownTimeoutSecs int
	ReconnectAttempts   int
	SessionTimeoutMins  int
	IdleTimeoutMins     int

	// Cache capacities (C4)
	RoomCacheCapacity    int
	MonsterCacheCapacity int
	ObjectCacheCapacity  int

	// Tick periods (C7), in seconds.
	PrimaryTickSecs   int
	SecondaryTickSecs int
	HarmfulTickSecs   int
	SaveIntervalSecs  int

	// Output pipeline defaults (C2)
	DefaultWrapWidth int

	// MFA (supplemented login FSM branch)
	MFAEnabled bool
	MFAIssuer  string

	// TLS settings (for future use)
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// Boot flags (§6), not persisted to the .env file.
	Rebooting bool
	GDBMode   bool
	Valgrind  bool
}

// Default configuration values.
var defaultConfig = Config{
	ServerName:           "MUD Engine",
	ServerVersion:        "0.1.0",
	ServerHost:           "", // Empty = bind to all interfaces (0.0.0.0)
	ServerPort:           4000,
	WebSocketPort:        8080,
	DBType:               "sqlite",
	DBHost:               "localhost",
	DBPort:               5432,
	DBName:               "data/mud.db",
	DBUser:               "muduser",
	DBPassword:           "",
	DBMaxConnections:     25,
	DBMaxIdleConns:       5,
	RedisEnabled:         false,
	RedisHost:            "localhost",
	RedisPort:            6379,
	RedisDB:              0,
	PlayerDir:            "data/players",
	AreaDir:              "data/areas",
	LogDir:               "data/log",
	HelpDir:              "data/help",
	DefaultArea:          "misc",
	MaxPlayers:           100,
	ShutdownTimeoutSecs:  30,
	ReconnectAttempts:    5,
	SessionTimeoutMins:   60,
	IdleTimeoutMins:      30,
	RoomCacheCapacity:    600,
	MonsterCacheCapacity: 200,
	ObjectCacheCapacity:  200,
	PrimaryTickSecs:      60,
	SecondaryTickSecs:    60,
	HarmfulTickSecs:      30,
	SaveIntervalSecs:     300,
	DefaultWrapWidth:     80,
	MFAEnabled:           false,
	MFAIssuer:            "MUD Engine",
	TLSEnabled:           false,
	TLSCertFile:          "certs/server.crt",
	TLSKeyFile:           "certs/server.key",
}

// LoadConfig loads configuration from envFile (defaulting to ".env" when
// empty), creating it with defaults if absent. Boot flags (§6) are applied
// separately via ApplyBootArgs, since they come from hand-parsed argv, not
// the environment file.
func LoadConfig(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}

	log.Printf("Loading configuration from: %s", envFile)

	cfg := defaultConfig

	if err := loadEnvFile(envFile); err != nil {
		if os.IsNotExist(err) {
			log.Printf("Configuration file %s not found, creating with defaults...", envFile)
			if err := createDefaultEnvFile(envFile); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			log.Printf("Created default configuration file: %s", envFile)
		} else {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log.Println("Configuration loaded successfully")
	return &cfg, nil
}

// BootArgs is the result of hand-parsing argv per spec §6: an optional
// positional port number and the -r/-g/-v switches (also accepted with a
// leading '/', matching the original command surface).
type BootArgs struct {
	Port      int // 0 means "not specified"
	Rebooting bool
	GDBMode   bool
	Valgrind  bool
}

// ApplyBootArgs overlays parsed boot flags onto cfg. A positive Port
// overrides the configured telnet port.
func ApplyBootArgs(cfg *Config, args BootArgs) {
	if args.Port > 0 {
		cfg.ServerPort = args.Port
	}
	cfg.Rebooting = args.Rebooting
	cfg.GDBMode = args.GDBMode
	cfg.Valgrind = args.Valgrind
}

// loadEnvFile loads filename's KEY=value pairs into the process environment
// using godotenv, leaving existing environment variables untouched (so a
// real deployment's env still wins over the file).
func loadEnvFile(filename string) error {
	if _, err := os.Stat(filename); err != nil {
		return err
	}
	return godotenv.Load(filename)
}

// applyEnv maps known environment variables onto cfg, leaving the default
// in place for anything unset or malformed (malformed numeric values are
// logged and skipped, matching the teacher's per-key warning behavior).
func applyEnv(cfg *Config) {
	str(&cfg.ServerName, "SERVER_NAME")
	str(&cfg.ServerVersion, "SERVER_VERSION")
	str(&cfg.ServerHost, "SERVER_HOST")
	num(&cfg.ServerPort, "SERVER_PORT")
	num(&cfg.WebSocketPort, "WEBSOCKET_PORT")

	str(&cfg.DBType, "DB_TYPE")
	str(&cfg.DBHost, "DB_HOST")
	num(&cfg.DBPort, "DB_PORT")
	str(&cfg.DBName, "DB_NAME")
	str(&cfg.DBUser, "DB_USER")
	str(&cfg.DBPassword, "DB_PASSWORD")
	num(&cfg.DBMaxConnections, "DB_MAX_CONNECTIONS")
	num(&cfg.DBMaxIdleConns, "DB_MAX_IDLE_CONNS")

	boolean(&cfg.RedisEnabled, "REDIS_ENABLED")
	str(&cfg.RedisHost, "REDIS_HOST")
	num(&cfg.RedisPort, "REDIS_PORT")
	num(&cfg.RedisDB, "REDIS_DB")

	str(&cfg.PlayerDir, "PLAYER_DIR")
	str(&cfg.AreaDir, "AREA_DIR")
	str(&cfg.LogDir, "LOG_DIR")
	str(&cfg.HelpDir, "HELP_DIR")
	str(&cfg.DefaultArea, "DEFAULT_AREA")

	num(&cfg.MaxPlayers, "MAX_PLAYERS")
	num(&cfg.ShutdownTimeoutSecs, "SHUTDOWN_TIMEOUT_SECS")
	num(&cfg.ReconnectAttempts, "RECONNECT_ATTEMPTS")
	num(&cfg.SessionTimeoutMins, "SESSION_TIMEOUT_MINS")
	num(&cfg.IdleTimeoutMins, "IDLE_TIMEOUT_MINS")

	num(&cfg.RoomCacheCapacity, "ROOM_CACHE_CAPACITY")
	num(&cfg.MonsterCacheCapacity, "MONSTER_CACHE_CAPACITY")
	num(&cfg.ObjectCacheCapacity, "OBJECT_CACHE_CAPACITY")

	num(&cfg.PrimaryTickSecs, "PRIMARY_TICK_SECS")
	num(&cfg.SecondaryTickSecs, "SECONDARY_TICK_SECS")
	num(&cfg.HarmfulTickSecs, "HARMFUL_TICK_SECS")
	num(&cfg.SaveIntervalSecs, "SAVE_INTERVAL_SECS")

	num(&cfg.DefaultWrapWidth, "DEFAULT_WRAP_WIDTH")

	boolean(&cfg.MFAEnabled, "MFA_ENABLED")
	str(&cfg.MFAIssuer, "MFA_ISSUER")

	boolean(&cfg.TLSEnabled, "TLS_ENABLED")
	str(&cfg.TLSCertFile, "TLS_CERT_FILE")
	str(&cfg.TLSKeyFile, "TLS_KEY_FILE")
}

func str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func num(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid integer for %s: %q", key, v)
		return
	}
	*dst = n
}

func boolean(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	*dst = v == "true" || v == "1"
}

// createDefaultEnvFile creates a default .env file with comments.
func createDefaultEnvFile(filename string) error {
	content := `# MUD Engine Configuration File
# This file contains bootstrap configuration for the MUD server
# It will be automatically created with defaults if missing

# ==============================================================================
# SERVER SETTINGS
# ==============================================================================
SERVER_NAME=MUD Engine
SERVER_VERSION=0.1.0
SERVER_HOST=
SERVER_PORT=4000
WEBSOCKET_PORT=8080

# ==============================================================================
# DATABASE SETTINGS
# ==============================================================================
DB_TYPE=sqlite
DB_NAME=data/mud.db
DB_MAX_CONNECTIONS=25
DB_MAX_IDLE_CONNS=5

# ==============================================================================
# REDIS SETTINGS
# ==============================================================================
REDIS_ENABLED=false
REDIS_HOST=localhost
REDIS_PORT=6379
REDIS_DB=0

# ==============================================================================
# FILESYSTEM LAYOUT
# ==============================================================================
PLAYER_DIR=data/players
AREA_DIR=data/areas
LOG_DIR=data/log
HELP_DIR=data/help
DEFAULT_AREA=misc

# ==============================================================================
# SERVER BEHAVIOR
# ==============================================================================
MAX_PLAYERS=100
SHUTDOWN_TIMEOUT_SECS=30
RECONNECT_ATTEMPTS=5
SESSION_TIMEOUT_MINS=60
IDLE_TIMEOUT_MINS=30

ROOM_CACHE_CAPACITY=600
MONSTER_CACHE_CAPACITY=200
OBJECT_CACHE_CAPACITY=200

PRIMARY_TICK_SECS=60
SECONDARY_TICK_SECS=60
HARMFUL_TICK_SECS=30
SAVE_INTERVAL_SECS=300

DEFAULT_WRAP_WIDTH=80

# ==============================================================================
# MULTI-FACTOR AUTHENTICATION
# ==============================================================================
MFA_ENABLED=false
MFA_ISSUER=MUD Engine

# ==============================================================================
# TLS/SSL SETTINGS (Future Use)
# ==============================================================================
TLS_ENABLED=false
TLS_CERT_FILE=certs/server.crt
TLS_KEY_FILE=certs/server.key
`

	return os.WriteFile(filename, []byte(content), 0644)
}

// validateConfig checks if configuration values are valid.
func validateConfig(config *Config) error {
	if config.ServerPort < 1 || config.ServerPort > 65535 {
		return fmt.Errorf("invalid SERVER_PORT: must be between 1 and 65535")
	}

	if config.DBType != "sqlite" && config.DBType != "postgres" {
		return fmt.Errorf("invalid DB_TYPE: must be 'sqlite' or 'postgres'")
	}

	if config.DBName == "" {
		return fmt.Errorf("DB_NAME cannot be empty")
	}

	if config.DBType == "postgres" {
		if config.DBHost == "" {
			return fmt.Errorf("DB_HOST required for PostgreSQL")
		}
		if config.DBUser == "" {
			return fmt.Errorf("DB_USER required for PostgreSQL")
		}
	}

	if config.MaxPlayers < 1 {
		return fmt.Errorf("MAX_PLAYERS must be at least 1")
	}

	if config.ShutdownTimeoutSecs < 5 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECS must be at least 5 seconds")
	}

	if config.RoomCacheCapacity < 1 || config.MonsterCacheCapacity < 1 || config.ObjectCacheCapacity < 1 {
		return fmt.Errorf("cache capacities must be at least 1")
	}

	return nil
}

// GetConnectionString returns the database connection string.
func (c *Config) GetConnectionString() string {
	switch c.DBType {
	case "sqlite":
		return c.DBName
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
		)
	default:
		return ""
	}
}

// GetBindAddress returns the address to bind the server to.
func (c *Config) GetBindAddress() string {
	if c.ServerHost == "" {
		return "0.0.0.0" // All interfaces
	}
	return c.ServerHost
}

// GetListenAddress returns the full telnet listen address (host:port).
func (c *Config) GetListenAddress() string {
	return fmt.Sprintf("%s:%d", c.GetBindAddress(), c.ServerPort)
}

// GetWebSocketListenAddress returns the WebSocket bridge's listen address.
func (c *Config) GetWebSocketListenAddress() string {
	return fmt.Sprintf("%s:%d", c.GetBindAddress(), c.WebSocketPort)
}

// EnsureDirectories creates every configured filesystem-layout directory
// that doesn't already exist, per spec §6 ("Absent directories are created
// at boot").
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.PlayerDir, c.AreaDir, c.LogDir, c.HelpDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogConfig logs the current configuration (without sensitive data).
func (c *Config) LogConfig() {
	log.Println("=== Server Configuration ===")
	log.Printf("Server: %s v%s", c.ServerName, c.ServerVersion)
	log.Printf("Telnet Address: %s:%d", c.GetBindAddress(), c.ServerPort)
	log.Printf("WebSocket Address: %s:%d", c.GetBindAddress(), c.WebSocketPort)
	log.Printf("Database Type: %s", c.DBType)
	if c.DBType == "sqlite" {
		log.Printf("Database File: %s", c.DBName)
	} else {
		log.Printf("Database Host: %s:%d", c.DBHost, c.DBPort)
		log.Printf("Database Name: %s", c.DBName)
	}
	log.Printf("Max Players: %d", c.MaxPlayers)
	log.Printf("Redis: %v", c.RedisEnabled)
	log.Printf("MFA: %v", c.MFAEnabled)
	log.Printf("TLS: %v", c.TLSEnabled)
	log.Println("===========================")
}
