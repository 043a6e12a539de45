// Package config provides application configuration management with support for
// command-line flags, environment variables, a YAML config file, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
// It is loaded once at startup and treated as immutable afterwards.
type Config struct {
	App       AppConfig
	Logger    LoggerConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Search    SearchConfig
	Curation  CurationConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
	DataPath    string // Base directory for the database, search index and auth key
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string
	Format string // json or pretty; empty picks by environment
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string
}

// DatabaseConfig holds relational store configuration.
type DatabaseConfig struct {
	Path string // SQLite file (default: {data}/rut.db)
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// PASETO v4 symmetric key (32 bytes), set by auth.LoadOrGenerateKey.
	AccessTokenKey      []byte
	AccessTokenDuration time.Duration

	// Argon2id cost for new password hashes. Existing hashes keep their own cost.
	Argon2MemoryKiB   int
	Argon2Iterations  int
	Argon2Parallelism int
}

// SearchConfig holds full-text search configuration.
type SearchConfig struct {
	Enabled bool
	Path    string // Directory for the bleve index (default: {data}/search)
}

// CurationConfig holds knobs for the curation engine.
type CurationConfig struct {
	// PageSize is the fixed page size of paged list queries.
	PageSize int
	// SymmetricUntag makes untag decrement the tag's rut_count for each removed association.
	SymmetricUntag bool
	// AuditInterval is how often the server checks cached counters for drift. Zero disables.
	AuditInterval time.Duration
}

// RateLimitConfig holds limits for the unauthenticated auth endpoints.
type RateLimitConfig struct {
	AuthPerMinute int
	AuthBurst     int
}

// TracingConfig holds OpenTelemetry exporter configuration.
type TracingConfig struct {
	Enabled     bool
	Endpoint    string // OTLP/HTTP collector host:port
	ServiceName string
	SampleRatio float64
	Insecure    bool // Plain HTTP to the collector
}

// fileConfig mirrors Config for the optional YAML file. All values are
// strings so they flow through the same parsing as flags and env vars.
type fileConfig struct {
	Env      string `yaml:"env"`
	DataPath string `yaml:"data_path"`
	Log      struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Server struct {
		Port           string `yaml:"port"`
		ReadTimeout    string `yaml:"read_timeout"`
		WriteTimeout   string `yaml:"write_timeout"`
		IdleTimeout    string `yaml:"idle_timeout"`
		AllowedOrigins string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Auth struct {
		AccessTokenDuration string `yaml:"access_token_duration"`
		Argon2MemoryKiB     string `yaml:"argon2_memory_kib"`
		Argon2Iterations    string `yaml:"argon2_iterations"`
		Argon2Parallelism   string `yaml:"argon2_parallelism"`
	} `yaml:"auth"`
	Search struct {
		Enabled string `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"search"`
	Curation struct {
		PageSize       string `yaml:"page_size"`
		SymmetricUntag string `yaml:"symmetric_untag"`
		AuditInterval  string `yaml:"audit_interval"`
	} `yaml:"curation"`
	RateLimit struct {
		AuthPerMinute string `yaml:"auth_per_minute"`
		AuthBurst     string `yaml:"auth_burst"`
	} `yaml:"rate_limit"`
	Tracing struct {
		Enabled     string `yaml:"enabled"`
		Endpoint    string `yaml:"endpoint"`
		ServiceName string `yaml:"service_name"`
		SampleRatio string `yaml:"sample_ratio"`
		Insecure    string `yaml:"insecure"`
	} `yaml:"tracing"`
}

// LoadConfig loads configuration from the process arguments.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:])
}

// Load loads configuration with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. YAML config file (--config or CONFIG_PATH).
// 4. .env file.
// 5. Default values (lowest priority).
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("rut-server", flag.ContinueOnError)

	env := fs.String("env", "", "Environment (development, staging, production)")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", "", "Log format (json, pretty)")
	dataPath := fs.String("data-path", "", "Base path for server data")
	dbPath := fs.String("db-path", "", "SQLite database file")
	configPath := fs.String("config", "", "Path to YAML config file")
	envFile := fs.String("env-file", ".env", "Path to .env file")

	serverPort := fs.String("port", "", "Server port (default: 8080)")
	readTimeout := fs.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := fs.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := fs.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	allowedOrigins := fs.String("allowed-origins", "", "Comma separated CORS origins")

	accessTokenDuration := fs.String("access-token-duration", "", "Access token lifetime (e.g., 24h)")
	argon2Memory := fs.String("argon2-memory-kib", "", "Argon2id memory cost in KiB (default: 65536)")
	argon2Iterations := fs.String("argon2-iterations", "", "Argon2id iterations (default: 3)")

	searchEnabled := fs.String("search-enabled", "", "Enable the full-text search index (default: true)")
	pageSize := fs.String("page-size", "", "Page size for paged list queries (default: 20)")
	symmetricUntag := fs.String("symmetric-untag", "", "Decrement tag rut_count on untag (default: false)")
	auditInterval := fs.String("audit-interval", "", "Counter audit interval, 0 to disable (default: 6h)")

	tracingEnabled := fs.String("tracing-enabled", "", "Export traces over OTLP/HTTP (default: false)")
	tracingEndpoint := fs.String("tracing-endpoint", "", "OTLP/HTTP collector endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	var file fileConfig
	if path := getConfigValue(*configPath, "CONFIG_PATH", "", ""); path != "" {
		if err := loadConfigFile(path, &file); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", file.Env, "development"),
			DataPath:    getConfigValue(*dataPath, "DATA_PATH", file.DataPath, ""),
		},
		Logger: LoggerConfig{
			Level:  getConfigValue(*logLevel, "LOG_LEVEL", file.Log.Level, "info"),
			Format: getConfigValue(*logFormat, "LOG_FORMAT", file.Log.Format, ""),
		},
		Server: ServerConfig{
			Port:           getConfigValue(*serverPort, "SERVER_PORT", file.Server.Port, "8080"),
			AllowedOrigins: splitList(getConfigValue(*allowedOrigins, "ALLOWED_ORIGINS", file.Server.AllowedOrigins, "*")),
		},
		Database: DatabaseConfig{
			Path: getConfigValue(*dbPath, "DATABASE_PATH", file.Database.Path, ""),
		},
		Auth: AuthConfig{
			Argon2MemoryKiB:   getIntConfigValue(*argon2Memory, "ARGON2_MEMORY_KIB", file.Auth.Argon2MemoryKiB, 64*1024),
			Argon2Iterations:  getIntConfigValue(*argon2Iterations, "ARGON2_ITERATIONS", file.Auth.Argon2Iterations, 3),
			Argon2Parallelism: getIntConfigValue("", "ARGON2_PARALLELISM", file.Auth.Argon2Parallelism, 4),
		},
		Search: SearchConfig{
			Enabled: getBoolConfigValue(*searchEnabled, "SEARCH_ENABLED", file.Search.Enabled, true),
			Path:    getConfigValue("", "SEARCH_PATH", file.Search.Path, ""),
		},
		Curation: CurationConfig{
			PageSize:       getIntConfigValue(*pageSize, "PAGE_SIZE", file.Curation.PageSize, 20),
			SymmetricUntag: getBoolConfigValue(*symmetricUntag, "SYMMETRIC_UNTAG", file.Curation.SymmetricUntag, false),
		},
		RateLimit: RateLimitConfig{
			AuthPerMinute: getIntConfigValue("", "AUTH_RATE_PER_MINUTE", file.RateLimit.AuthPerMinute, 20),
			AuthBurst:     getIntConfigValue("", "AUTH_RATE_BURST", file.RateLimit.AuthBurst, 5),
		},
		Tracing: TracingConfig{
			Enabled:     getBoolConfigValue(*tracingEnabled, "TRACING_ENABLED", file.Tracing.Enabled, false),
			Endpoint:    getConfigValue(*tracingEndpoint, "TRACING_ENDPOINT", file.Tracing.Endpoint, "localhost:4318"),
			ServiceName: getConfigValue("", "TRACING_SERVICE_NAME", file.Tracing.ServiceName, "rut-server"),
			Insecure:    getBoolConfigValue("", "TRACING_INSECURE", file.Tracing.Insecure, true),
		},
	}

	ratio, err := strconv.ParseFloat(getConfigValue("", "TRACING_SAMPLE_RATIO", file.Tracing.SampleRatio, "1"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid tracing sample ratio: %w", err)
	}
	cfg.Tracing.SampleRatio = ratio

	durations := []struct {
		flagValue, envKey, fileValue, def string
		dst                                *time.Duration
	}{
		{*accessTokenDuration, "ACCESS_TOKEN_DURATION", file.Auth.AccessTokenDuration, "24h", &cfg.Auth.AccessTokenDuration},
		{*readTimeout, "SERVER_READ_TIMEOUT", file.Server.ReadTimeout, "15s", &cfg.Server.ReadTimeout},
		{*writeTimeout, "SERVER_WRITE_TIMEOUT", file.Server.WriteTimeout, "15s", &cfg.Server.WriteTimeout},
		{*idleTimeout, "SERVER_IDLE_TIMEOUT", file.Server.IdleTimeout, "60s", &cfg.Server.IdleTimeout},
		{*auditInterval, "AUDIT_INTERVAL", file.Curation.AuditInterval, "6h", &cfg.Curation.AuditInterval},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagValue, d.envKey, d.fileValue, d.def)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", strings.ToLower(d.envKey), raw, err)
		}
		*d.dst = parsed
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "" && c.Logger.Format != "json" && c.Logger.Format != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", c.Logger.Format)
	}

	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.Curation.PageSize < 1 || c.Curation.PageSize > 100 {
		return fmt.Errorf("invalid page size: %d (must be between 1 and 100)", c.Curation.PageSize)
	}

	if c.Curation.AuditInterval < 0 {
		return fmt.Errorf("invalid audit interval: %s", c.Curation.AuditInterval)
	}

	if c.RateLimit.AuthPerMinute < 1 || c.RateLimit.AuthBurst < 1 {
		return errors.New("auth rate limit and burst must be positive")
	}

	if c.Auth.Argon2MemoryKiB < 8 || c.Auth.Argon2Iterations < 1 ||
		c.Auth.Argon2Parallelism < 1 || c.Auth.Argon2Parallelism > 255 ||
		c.Auth.Argon2MemoryKiB < 8*c.Auth.Argon2Parallelism {
		return fmt.Errorf("invalid argon2 cost: m=%d,t=%d,p=%d",
			c.Auth.Argon2MemoryKiB, c.Auth.Argon2Iterations, c.Auth.Argon2Parallelism)
	}

	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing sample ratio: %v (must be between 0 and 1)", c.Tracing.SampleRatio)
	}

	if c.App.DataPath == "" {
		return errors.New("data path cannot be empty after expansion")
	}

	return nil
}

// expandPaths resolves the data directory and the paths derived from it.
func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	c.App.DataPath, err = expandPath(c.App.DataPath, filepath.Join(homeDir, ".rut"))
	if err != nil {
		return err
	}
	c.Database.Path, err = expandPath(c.Database.Path, filepath.Join(c.App.DataPath, "rut.db"))
	if err != nil {
		return err
	}
	c.Search.Path, err = expandPath(c.Search.Path, filepath.Join(c.App.DataPath, "search"))
	return err
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is used as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// getConfigValue returns the first non-empty value from flag, env var, config file, or default.
func getConfigValue(flagValue, envKey, fileValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, config file, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey, fileValue string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, fileValue, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, config file, or default.
func getIntConfigValue(flagValue, envKey, fileValue string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, fileValue, "")
	if strValue == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(strings.TrimSpace(strValue))
	if err != nil {
		return defaultValue
	}
	return result
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadConfigFile reads the YAML config file into file.
func loadConfigFile(path string, file *fileConfig) error {
	data, err := os.ReadFile(path) //#nosec G304 -- config path is operator supplied
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, file); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		// Env vars already set take precedence over the .env file.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
