package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	JWT       JWTConfig       `yaml:"jwt"`
	LDAP      LDAPConfig      `yaml:"ldap"`
	Redis     RedisConfig     `yaml:"redis"`
	Inventory InventoryConfig `yaml:"inventory"`
}

type ServerConfig struct {
	Host            string `yaml:"host"`
	Port            string `yaml:"port"`
	Mode            string `yaml:"mode"`             // debug, release, test
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // seconds
	// RemoteUserHeader names a header set by a trusted front-end proxy
	// carrying the authenticated username. Empty disables it.
	RemoteUserHeader string   `yaml:"remote_user_header"`
	CORSOrigins      []string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type LDAPConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	BaseDN       string `yaml:"base_dn"`
	BindDN       string `yaml:"bind_dn"`
	BindPassword string `yaml:"bind_password"`
	UserFilter   string `yaml:"user_filter"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// RedisConfig for the optional scheduled task mirror queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// InventoryConfig holds the application level settings.
type InventoryConfig struct {
	BugURL           string `yaml:"bug_url"`
	LogRetentionDays int    `yaml:"log_retention_days"`
	LogCleanupCron   string `yaml:"log_cleanup_cron"`
	// DefaultWarrantyYears is applied to systems created over the REST API
	// without warranty dates.
	DefaultWarrantyYears int `yaml:"default_warranty_years"`
	// UpgradeAfterDays marks unmanaged systems older than this as upgradeable.
	UpgradeAfterDays int `yaml:"upgrade_after_days"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		fileCfg := DefaultConfig()
		if err := yaml.Unmarshal(data, fileCfg); err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.overrideFromEnv()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			Mode:            "debug",
			ShutdownTimeout: 10,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "inventory.db",
		},
		JWT: JWTConfig{
			Secret:     "inventory-secret-key-change-in-production",
			ExpireHour: 24,
		},
		LDAP: LDAPConfig{
			Enabled:    false,
			Port:       389,
			UserFilter: "(uid=%s)",
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Inventory: InventoryConfig{
			BugURL:               "https://bugzilla.mozilla.org/show_bug.cgi?id=",
			LogRetentionDays:     30,
			LogCleanupCron:       "0 3 * * *",
			DefaultWarrantyYears: 1,
			UpgradeAfterDays:     730,
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if header := os.Getenv("SERVER_REMOTE_USER_HEADER"); header != "" {
		c.Server.RemoteUserHeader = header
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if host := os.Getenv("LDAP_HOST"); host != "" {
		c.LDAP.Enabled = true
		c.LDAP.Host = host
	}
	if baseDN := os.Getenv("LDAP_BASE_DN"); baseDN != "" {
		c.LDAP.BaseDN = baseDN
	}
	if bindDN := os.Getenv("LDAP_BIND_DN"); bindDN != "" {
		c.LDAP.BindDN = bindDN
	}
	if bindPassword := os.Getenv("LDAP_BIND_PASSWORD"); bindPassword != "" {
		c.LDAP.BindPassword = bindPassword
	}
	if days := os.Getenv("INVENTORY_LOG_RETENTION_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil {
			c.Inventory.LogRetentionDays = n
		}
	}
	if bugURL := os.Getenv("INVENTORY_BUG_URL"); bugURL != "" {
		c.Inventory.BugURL = bugURL
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}
