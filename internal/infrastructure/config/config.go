package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/evmosdao/paystub/internal/domain/printing"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Logo      LogoConfig
	Render    RenderConfig
	Export    ExportConfig
	Storage   StorageConfig
	Redis     RedisConfig
	Telemetry TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
	SessionTTL       time.Duration // Idle sessions are discarded after this long
	ExportRateLimit  int           // Exports allowed per client per window; 0 disables the limit
	ExportRateWindow time.Duration
}

// LogoConfig holds the header logo asset settings
type LogoConfig struct {
	Source       string        // File path or http(s) URL of the logo
	FetchTimeout time.Duration // Bound on the background fetch
	MaxHeight    int           // Logos taller than this (px) are scaled down
}

// RenderConfig holds layout and capture settings
type RenderConfig struct {
	Rasterizer        string  // chromedp or wkhtmltoimage
	Scale             float64 // Capture device scale
	Timeout           time.Duration
	ChromeRemoteURL   string // Remote Chrome DevTools endpoint (optional)
	NoSandbox         bool   // Run Chrome without sandbox (Docker/root)
	ViewportWidth     int64
	WkhtmltoimagePath string
	PaperSize         string // A4, A5 or LETTER
	Barcodes          bool   // Render QR/PDF417 footer codes
}

// ExportConfig holds export pipeline settings
type ExportConfig struct {
	Sink      string // filesystem, s3 or memory
	OutputDir string
	BaseURL   string // URL prefix for files in OutputDir
	FileName  string
	Timeout   time.Duration
	GuardTTL  time.Duration // Upper bound on one export holding the in-progress guard
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	Prefix            string
	UsePathStyle      bool
	UseSSL            bool
	PresignExpiration time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string  // Service name for traces
	Insecure          bool    // Use insecure (non-TLS) connection (development only)
	MetricsInterval   time.Duration

	// Continuous profiling via Pyroscope
	ProfilingEnabled  bool
	PyroscopeAddress  string
	ProfileTypes      []string
	PyroscopeUser     string
	PyroscopePassword string
}

// Valid option values
var (
	validRasterizers = []string{"chromedp", "wkhtmltoimage"}
	validSinks       = []string{"filesystem", "s3", "memory"}
)

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PAYSTUB_ prefix (e.g., PAYSTUB_EXPORT_OUTPUT_DIR)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from an explicit file when path is set,
// otherwise from config.toml in the default search paths
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/app")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PAYSTUB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
			SessionTTL:       v.GetDuration("http.session_ttl"),
			ExportRateLimit:  v.GetInt("http.export_rate_limit"),
			ExportRateWindow: v.GetDuration("http.export_rate_window"),
		},
		Logo: LogoConfig{
			Source:       v.GetString("logo.source"),
			FetchTimeout: v.GetDuration("logo.fetch_timeout"),
			MaxHeight:    v.GetInt("logo.max_height"),
		},
		Render: RenderConfig{
			Rasterizer:        v.GetString("render.rasterizer"),
			Scale:             v.GetFloat64("render.scale"),
			Timeout:           v.GetDuration("render.timeout"),
			ChromeRemoteURL:   v.GetString("render.chrome_remote_url"),
			NoSandbox:         v.GetBool("render.no_sandbox"),
			ViewportWidth:     v.GetInt64("render.viewport_width"),
			WkhtmltoimagePath: v.GetString("render.wkhtmltoimage_path"),
			PaperSize:         strings.ToUpper(v.GetString("render.paper_size")),
			Barcodes:          v.GetBool("render.barcodes"),
		},
		Export: ExportConfig{
			Sink:      v.GetString("export.sink"),
			OutputDir: v.GetString("export.output_dir"),
			BaseURL:   v.GetString("export.base_url"),
			FileName:  v.GetString("export.file_name"),
			Timeout:   v.GetDuration("export.timeout"),
			GuardTTL:  v.GetDuration("export.guard_ttl"),
		},
		Storage: StorageConfig{
			Endpoint:          v.GetString("storage.endpoint"),
			Region:            v.GetString("storage.region"),
			Bucket:            v.GetString("storage.bucket"),
			AccessKey:         v.GetString("storage.access_key"),
			SecretKey:         v.GetString("storage.secret_key"),
			Prefix:            v.GetString("storage.prefix"),
			UsePathStyle:      v.GetBool("storage.use_path_style"),
			UseSSL:            v.GetBool("storage.use_ssl"),
			PresignExpiration: v.GetDuration("storage.presign_expiration"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeAddress:  v.GetString("telemetry.pyroscope_address"),
			ProfileTypes:      v.GetStringSlice("telemetry.profile_types"),
			PyroscopeUser:     v.GetString("telemetry.pyroscope_user"),
			PyroscopePassword: v.GetString("telemetry.pyroscope_password"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "paystub"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second // Exports run inside the request
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 1 << 20 // 1MB
	}
	// NOTE: CORS origins have no "*" fallback. An empty list allows no
	// cross-origin requests until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-Request-ID"}
	}
	if cfg.HTTP.SessionTTL == 0 {
		cfg.HTTP.SessionTTL = 2 * time.Hour
	}
	if cfg.HTTP.ExportRateWindow == 0 {
		cfg.HTTP.ExportRateWindow = time.Minute
	}
	if cfg.Logo.Source == "" {
		cfg.Logo.Source = "./assets/evmos-dao-logo-white.png"
	}
	if cfg.Logo.FetchTimeout == 0 {
		cfg.Logo.FetchTimeout = 10 * time.Second
	}
	if cfg.Logo.MaxHeight == 0 {
		cfg.Logo.MaxHeight = 128
	}
	if cfg.Render.Rasterizer == "" {
		cfg.Render.Rasterizer = "chromedp"
	}
	if cfg.Render.Scale == 0 {
		cfg.Render.Scale = 2
	}
	if cfg.Render.Timeout == 0 {
		cfg.Render.Timeout = 30 * time.Second
	}
	if cfg.Render.ViewportWidth == 0 {
		cfg.Render.ViewportWidth = 900
	}
	if cfg.Render.WkhtmltoimagePath == "" {
		cfg.Render.WkhtmltoimagePath = "wkhtmltoimage"
	}
	if cfg.Render.PaperSize == "" {
		cfg.Render.PaperSize = "A4"
	}
	if cfg.Export.Sink == "" {
		cfg.Export.Sink = "filesystem"
	}
	if cfg.Export.OutputDir == "" {
		cfg.Export.OutputDir = "./out"
	}
	if cfg.Export.BaseURL == "" {
		cfg.Export.BaseURL = "/files"
	}
	if cfg.Export.FileName == "" {
		cfg.Export.FileName = "evmos-dao-paystub.pdf"
	}
	if cfg.Export.Timeout == 0 {
		cfg.Export.Timeout = 45 * time.Second
	}
	if cfg.Export.GuardTTL == 0 {
		cfg.Export.GuardTTL = 2 * time.Minute
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.PresignExpiration == 0 {
		cfg.Storage.PresignExpiration = 15 * time.Minute
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317" // Default gRPC endpoint
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0 // 100% in development
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "paystub"
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.PyroscopeAddress == "" {
		cfg.Telemetry.PyroscopeAddress = "http://localhost:4040"
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if !slices.Contains(validRasterizers, c.Render.Rasterizer) {
		return fmt.Errorf("render.rasterizer must be one of %v, got %q", validRasterizers, c.Render.Rasterizer)
	}
	if c.Render.Scale <= 0 || c.Render.Scale > 4 {
		return fmt.Errorf("render.scale must be in (0, 4], got %f", c.Render.Scale)
	}
	if !printing.PaperSize(c.Render.PaperSize).IsValid() {
		return fmt.Errorf("render.paper_size must be one of %v, got %q", printing.AllPaperSizes(), c.Render.PaperSize)
	}
	if c.HTTP.ExportRateLimit < 0 {
		return fmt.Errorf("http.export_rate_limit cannot be negative")
	}
	if c.Logo.MaxHeight < 0 {
		return fmt.Errorf("logo.max_height cannot be negative")
	}
	if !slices.Contains(validSinks, c.Export.Sink) {
		return fmt.Errorf("export.sink must be one of %v, got %q", validSinks, c.Export.Sink)
	}
	if strings.ContainsAny(c.Export.FileName, `/\`) {
		return fmt.Errorf("export.file_name must be a plain file name, got %q", c.Export.FileName)
	}
	if c.Export.Sink == "s3" {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required when export.sink is s3")
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			return fmt.Errorf("storage.access_key and storage.secret_key are required when export.sink is s3")
		}
	}

	if c.App.Env == "production" {
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
		if c.Export.Sink == "memory" {
			return fmt.Errorf("export.sink cannot be 'memory' in production")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// Addr returns the Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsProduction reports whether the application runs in production
func (a *AppConfig) IsProduction() bool {
	return a.Env == "production"
}
