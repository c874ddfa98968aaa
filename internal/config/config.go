package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	AllowOrigins        []string
	Location            *time.Location
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	EventsChannel       string
	JWTSecret           string
	ActivationCacheTTL  time.Duration
	LeaderboardCacheTTL time.Duration
	PassingScore        int
	ProvisioningEnabled bool
	ProvisioningToken   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return fromViper(v)
}

func fromViper(v *viper.Viper) (Config, error) {
	v.SetDefault("app.name", "GEMA Curriculum API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("events.channel", "gema:curriculum")
	v.SetDefault("activation.cache_ttl", "1m")
	v.SetDefault("leaderboard.cache_ttl", "2m")
	v.SetDefault("progress.passing_score", 70)
	v.SetDefault("provisioning.enabled", false)

	activationTTL, err := parseDuration(v, "activation.cache_ttl", time.Minute)
	if err != nil {
		return Config{}, err
	}

	leaderboardTTL, err := parseDuration(v, "leaderboard.cache_ttl", 2*time.Minute)
	if err != nil {
		return Config{}, err
	}

	location, err := time.LoadLocation(strings.TrimSpace(v.GetString("app.timezone")))
	if err != nil {
		return Config{}, fmt.Errorf("invalid app timezone: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		AllowOrigins:        splitList(v.GetString("http.allow_origins")),
		Location:            location,
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		EventsChannel:       v.GetString("events.channel"),
		JWTSecret:           v.GetString("jwt.secret"),
		ActivationCacheTTL:  activationTTL,
		LeaderboardCacheTTL: leaderboardTTL,
		PassingScore:        v.GetInt("progress.passing_score"),
		ProvisioningEnabled: v.GetBool("provisioning.enabled"),
		ProvisioningToken:   v.GetString("provisioning.token"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PassingScore <= 0 || cfg.PassingScore > 100 {
		cfg.PassingScore = 70
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// splitList reads a comma separated env value, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
