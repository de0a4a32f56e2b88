package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "paystub", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "./assets/evmos-dao-logo-white.png", cfg.Logo.Source)
		assert.Equal(t, 128, cfg.Logo.MaxHeight)
		assert.Equal(t, "chromedp", cfg.Render.Rasterizer)
		assert.Equal(t, 2.0, cfg.Render.Scale)
		assert.Equal(t, "A4", cfg.Render.PaperSize)
		assert.Equal(t, "filesystem", cfg.Export.Sink)
		assert.Equal(t, "evmos-dao-paystub.pdf", cfg.Export.FileName)
		assert.Equal(t, 2*time.Minute, cfg.Export.GuardTTL)
		assert.False(t, cfg.Redis.Enabled)
		assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	})

	t.Run("loads values from environment variables with PAYSTUB prefix", func(t *testing.T) {
		t.Setenv("PAYSTUB_APP_PORT", "9000")
		t.Setenv("PAYSTUB_RENDER_RASTERIZER", "wkhtmltoimage")
		t.Setenv("PAYSTUB_RENDER_SCALE", "3")
		t.Setenv("PAYSTUB_RENDER_PAPER_SIZE", "letter")
		t.Setenv("PAYSTUB_EXPORT_OUTPUT_DIR", "/tmp/paystubs")
		t.Setenv("PAYSTUB_EXPORT_TIMEOUT", "10s")
		t.Setenv("PAYSTUB_LOGO_SOURCE", "https://cdn.example/logo.png")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "wkhtmltoimage", cfg.Render.Rasterizer)
		assert.Equal(t, 3.0, cfg.Render.Scale)
		assert.Equal(t, "LETTER", cfg.Render.PaperSize)
		assert.Equal(t, "/tmp/paystubs", cfg.Export.OutputDir)
		assert.Equal(t, 10*time.Second, cfg.Export.Timeout)
		assert.Equal(t, "https://cdn.example/logo.png", cfg.Logo.Source)
	})

	t.Run("rejects unknown rasterizer", func(t *testing.T) {
		t.Setenv("PAYSTUB_RENDER_RASTERIZER", "html2canvas")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "render.rasterizer")
	})

	t.Run("s3 sink requires bucket and credentials", func(t *testing.T) {
		t.Setenv("PAYSTUB_EXPORT_SINK", "s3")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.bucket")

		t.Setenv("PAYSTUB_STORAGE_BUCKET", "paystubs")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access_key")

		t.Setenv("PAYSTUB_STORAGE_ACCESS_KEY", "key")
		t.Setenv("PAYSTUB_STORAGE_SECRET_KEY", "secret")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "paystubs", cfg.Storage.Bucket)
	})
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "paystub.toml")
	content := `
[app]
env = "staging"

[render]
barcodes = true
no_sandbox = true

[export]
sink = "memory"
file_name = "custom.pdf"

[http]
export_rate_limit = 5

[telemetry]
profiling_enabled = true
profile_types = ["cpu", "goroutines"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.App.Env)
	assert.True(t, cfg.Render.Barcodes)
	assert.True(t, cfg.Render.NoSandbox)
	assert.Equal(t, "memory", cfg.Export.Sink)
	assert.Equal(t, "custom.pdf", cfg.Export.FileName)
	assert.Equal(t, 5, cfg.HTTP.ExportRateLimit)
	assert.Equal(t, time.Minute, cfg.HTTP.ExportRateWindow)
	assert.True(t, cfg.Telemetry.ProfilingEnabled)
	assert.Equal(t, "http://localhost:4040", cfg.Telemetry.PyroscopeAddress)
	assert.Equal(t, []string{"cpu", "goroutines"}, cfg.Telemetry.ProfileTypes)
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults are valid", func(*Config) {}, ""},
		{"scale too large", func(c *Config) { c.Render.Scale = 8 }, "render.scale"},
		{"unknown paper size", func(c *Config) { c.Render.PaperSize = "B5" }, "render.paper_size"},
		{"unknown sink", func(c *Config) { c.Export.Sink = "ftp" }, "export.sink"},
		{"file name with path", func(c *Config) { c.Export.FileName = "../x.pdf" }, "export.file_name"},
		{"sampling ratio out of range", func(c *Config) { c.Telemetry.SamplingRatio = 1.5 }, "sampling_ratio"},
		{"wildcard CORS in production", func(c *Config) {
			c.App.Env = "production"
			c.HTTP.CORSAllowOrigins = []string{"*"}
		}, "cors_allow_origins"},
		{"memory sink in production", func(c *Config) {
			c.App.Env = "production"
			c.Export.Sink = "memory"
		}, "memory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
