package exchange

import (
	"time"

	"github.com/HexmosTech/reqkit/formdata"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Config holds the transport settings of a Manager. LoadConfig fills it
// from REQKIT_* environment variables.
type Config struct {
	Timeout         time.Duration `envconfig:"TIMEOUT" default:"30s"`
	FollowRedirects bool          `envconfig:"FOLLOW_REDIRECTS" default:"false"`
	SkipVerify      bool          `envconfig:"SKIP_VERIFY" default:"false"`
	ForceHTTP1      bool          `envconfig:"FORCE_HTTP1" default:"false"`
	// BaseURL resolves relative request URLs when set.
	BaseURL         string `envconfig:"BASE_URL"`
	MemoryThreshold int64  `envconfig:"MEMORY_THRESHOLD" default:"10485760"`
	// TempDir holds multipart bodies and partial downloads. Empty means
	// os.TempDir().
	TempDir     string `envconfig:"TEMP_DIR"`
	DownloadDir string `envconfig:"DOWNLOAD_DIR" default:"."`
	UserAgent   string `envconfig:"USER_AGENT"`
}

const envPrefix = "REQKIT"

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "loading configuration from environment")
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when the environment sets
// nothing.
func DefaultConfig() Config {
	return Config{
		Timeout:         30 * time.Second,
		MemoryThreshold: formdata.DefaultMemoryThreshold,
		DownloadDir:     ".",
	}
}

// Options are command-line overrides. Zero values leave the Config alone.
type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	SkipVerify      bool
	ForceHTTP1      bool
	MemoryThreshold int64
	Auth            AuthOptions
}

// Apply returns cfg with the overrides of o applied.
func (o Options) Apply(cfg Config) Config {
	if o.Timeout != 0 {
		cfg.Timeout = o.Timeout
	}
	cfg.FollowRedirects = cfg.FollowRedirects || o.FollowRedirects
	cfg.SkipVerify = cfg.SkipVerify || o.SkipVerify
	cfg.ForceHTTP1 = cfg.ForceHTTP1 || o.ForceHTTP1
	if o.MemoryThreshold != 0 {
		cfg.MemoryThreshold = o.MemoryThreshold
	}
	return cfg
}
