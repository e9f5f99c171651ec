package bootstrap

import (
	"fmt"
	"strings"
	"time"

	orchestratorx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/agents/orchestrator"
	cityx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/city"
	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	llmx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/llm"
	statex "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/state"
	toolx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/tool"
	apix "github.com/AvinoamNukrai/LLM-Travel-Assistant/internal/api"
	configx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/config"
	gmapsx "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/gmaps"
	openmeteox "github.com/AvinoamNukrai/LLM-Travel-Assistant/pkg/openmeteo"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"

	GeocoderOpenMeteo = "open-meteo"
	GeocoderGoogle    = "google"
)

type AppConfig struct {
	Addr            string        `split_words:"true" default:":8000"`
	StoreBackend    string        `split_words:"true" default:"memory"`
	Geocoder        string        `split_words:"true" default:"open-meteo"`
	GeocodeCacheTTL time.Duration `split_words:"true" default:"6h"`
	LexiconPath     string        `split_words:"true"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Config is read once at startup and passed by value from then on.
type Config struct {
	App     AppConfig
	Turn    orchestratorx.Config
	LLM     llmx.Config
	Weather openmeteox.Config
	Maps    gmapsx.Config
	Redis   statex.RedisConfig
	Tool    toolx.Config
	HTTP    apix.Config
}

// MustLoadConfig reads every prefix from the environment (and .env). It parses
// command-line flags, so only mains call it.
func MustLoadConfig() Config {
	return Config{
		App:     *configx.MustNew[AppConfig]("APP"),
		Turn:    *configx.MustNew[orchestratorx.Config]("APP"),
		LLM:     *configx.MustNew[llmx.Config]("LLM"),
		Weather: *configx.MustNew[openmeteox.Config]("WEATHER"),
		Maps:    *configx.MustNew[gmapsx.Config]("GMAPS"),
		Redis:   *configx.MustNew[statex.RedisConfig]("REDIS"),
		Tool:    *configx.MustNew[toolx.Config]("TOOL"),
		HTTP:    *configx.MustNew[apix.Config]("HTTP"),
	}
}

func (c Config) Validate() error {
	switch strings.ToLower(c.App.StoreBackend) {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown store backend %q", contractx.ErrValidation, c.App.StoreBackend)
	}
	switch strings.ToLower(c.App.Geocoder) {
	case GeocoderOpenMeteo, GeocoderGoogle:
	default:
		return fmt.Errorf("%w: unknown geocoder %q", contractx.ErrValidation, c.App.Geocoder)
	}
	if c.App.GeocodeCacheTTL < 0 {
		return fmt.Errorf("%w: geocode cache ttl must be >= 0", contractx.ErrValidation)
	}
	if err := c.Turn.Validate(); err != nil {
		return err
	}
	if err := c.Tool.Validate(); err != nil {
		return err
	}
	return c.LLM.Validate()
}

func (c Config) geocodeTTL() time.Duration {
	if c.App.GeocodeCacheTTL == 0 {
		return cityx.DefaultGeocodeTTL
	}
	return c.App.GeocodeCacheTTL
}
