package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// EthereumConfig holds Ethereum-specific configuration
type EthereumConfig struct {
	WebSocketURL    string `mapstructure:"websocket_url"`
	RPCURL          string `mapstructure:"rpc_url"`
	ContractAddress string `mapstructure:"contract_address"`
	StartBlock      uint64 `mapstructure:"start_block"`
	// TokenDecimals is the decimal count of the payout token, used to scale
	// raw on-chain amounts into human units (6 for USDC).
	TokenDecimals int32 `mapstructure:"token_decimals"`
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ListenerConfig holds event listener backoff and retry configuration
type ListenerConfig struct {
	BackoffBase       time.Duration `mapstructure:"backoff_base"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	BackoffMaxDelay   time.Duration `mapstructure:"backoff_max_delay"`
	MaxRetries        int           `mapstructure:"max_retries"`
}

// ReconcileConfig holds reconciliation engine configuration
type ReconcileConfig struct {
	// Window is the trailing audit window compared against paid_at.
	Window time.Duration `mapstructure:"window"`
	// BlocksPerWindow approximates how many blocks the window spans. It is a
	// coarse, protocol-specific constant, not a timestamp-to-block lookup;
	// the tolerance-based matching absorbs window-edge drift.
	BlocksPerWindow uint64 `mapstructure:"blocks_per_window"`
	// AmountTolerance is the maximum acceptable absolute difference between
	// ledger and chain amounts, in human units.
	AmountTolerance string `mapstructure:"amount_tolerance"`
	// AlertThreshold is the unresolved discrepancy count above which a
	// high-severity alert is emitted.
	AlertThreshold int64 `mapstructure:"alert_threshold"`
	// Interval is the pass schedule period.
	Interval time.Duration `mapstructure:"interval"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// SettlementListenerConfig holds configuration for settlement-listener
type SettlementListenerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Ethereum   EthereumConfig `mapstructure:"ethereum"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Listener   ListenerConfig `mapstructure:"listener"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
}

// ReconcilerConfig holds configuration for the reconciler
type ReconcilerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Ethereum   EthereumConfig  `mapstructure:"ethereum"`
	Reconcile  ReconcileConfig `mapstructure:"reconcile"`
	Metrics    MetricsConfig   `mapstructure:"metrics"`
}

// LoadSettlementListenerConfig loads configuration for settlement-listener
func LoadSettlementListenerConfig(configFile string, envPath string) (*SettlementListenerConfig, error) {
	v := configureViper("settlement-listener", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("ethereum.token_decimals", 6)
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "SETTLEMENT_EVENTS")
	v.SetDefault("listener.backoff_base", "1s")
	v.SetDefault("listener.backoff_multiplier", 2.0)
	v.SetDefault("listener.backoff_max_delay", "1m")
	v.SetDefault("listener.max_retries", 10)
	v.SetDefault("metrics.addr", ":9091")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config SettlementListenerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Ethereum.ContractAddress == "" {
		return nil, errors.New("ethereum.contract_address is required")
	}

	return &config, nil
}

// LoadReconcilerConfig loads configuration for the reconciler
func LoadReconcilerConfig(configFile string, envPath string) (*ReconcilerConfig, error) {
	v := configureViper("reconciler", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("ethereum.token_decimals", 6)
	v.SetDefault("reconcile.window", "24h")
	v.SetDefault("reconcile.blocks_per_window", 7200)
	v.SetDefault("reconcile.amount_tolerance", "0.01")
	v.SetDefault("reconcile.alert_threshold", 10)
	v.SetDefault("reconcile.interval", "10m")
	v.SetDefault("metrics.addr", ":9092")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg ReconcilerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Ethereum.ContractAddress == "" {
		return nil, errors.New("ethereum.contract_address is required")
	}

	return &cfg, nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("BOUNTY_SETTLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Ethereum
		"ethereum.websocket_url",
		"ethereum.rpc_url",
		"ethereum.contract_address",
		"ethereum.start_block",
		"ethereum.token_decimals",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Listener
		"listener.backoff_base",
		"listener.backoff_multiplier",
		"listener.backoff_max_delay",
		"listener.max_retries",
		// Reconcile
		"reconcile.window",
		"reconcile.blocks_per_window",
		"reconcile.amount_tolerance",
		"reconcile.alert_threshold",
		"reconcile.interval",
		// Metrics
		"metrics.addr",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
