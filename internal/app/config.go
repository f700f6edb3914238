package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:5000"

// Config holds the complete application configuration, loadable from
// environment variables (ZEXARIO_ prefix), flags, or YAML config files.
//
// The CORS allow-list is fixed in code and intentionally absent here.
type Config struct {
	Addr     string `default:"0.0.0.0:5000" usage:"API server listen address"`
	Storage  StorageConfig
	Graceful GracefulConfig
}

// StorageConfig selects and tunes the order store.
type StorageConfig struct {
	URI            string        `usage:"Order store connection string, mongodb:// or postgres:// (ZEXARIO_STORAGE_URI, MONGO_URI or DATABASE_URL)"`
	ConnectTimeout time.Duration `default:"10s" usage:"Timeout for reaching the store" flag:"storage-connect-timeout"`
	WriteTimeout   time.Duration `default:"10s" usage:"Timeout for a single order write" flag:"storage-write-timeout"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from flags, environment variables and YAML
// config files, then applies platform-specific defaults. A missing storage
// URI is not an error: the server still starts and reports it on /readyz.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "ZEXARIO",
		Files:     []string{"config.yaml", "/etc/zexario/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Render,
// Railway, etc.) to the ZEXARIO_-prefixed configuration. MONGO_URI wins over
// DATABASE_URL.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.URI == "" {
		for _, name := range []string{"MONGO_URI", "DATABASE_URL"} {
			if v := os.Getenv(name); v != "" {
				c.Storage.URI = v
				break
			}
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
