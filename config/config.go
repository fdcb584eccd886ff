package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Line struct {
		ChannelAccessToken string `mapstructure:"channelAccessToken"`
		ChannelSecret      string `mapstructure:"channelSecret"`
	} `mapstructure:"line"`
	Maps struct {
		APIKey             string  `mapstructure:"APIKey"`
		SearchRadiusMeters float64 `mapstructure:"searchRadiusMeters"`
	} `mapstructure:"maps"`
	Session struct {
		MaxUsers    int           `mapstructure:"maxUsers"`
		LocationTTL time.Duration `mapstructure:"locationTTL"`
	} `mapstructure:"session"`
	Selection struct {
		MaxAttempts int `mapstructure:"maxAttempts"`
	} `mapstructure:"selection"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Credentials come from the environment, never from the config file.
	v.AutomaticEnv()
	_ = v.BindEnv("line.channelAccessToken", "LINE_CHANNEL_ACCESS_TOKEN")
	_ = v.BindEnv("line.channelSecret", "LINE_CHANNEL_SECRET")
	_ = v.BindEnv("maps.APIKey", "GOOGLE_MAP_API_TOKEN")
	_ = v.BindEnv("server.HTTPPort", "PORT")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}

// Validate checks that the messaging-channel credentials are present. The
// maps API key is optional; the recommend command degrades to an apology
// reply without it.
func (c Config) Validate() error {
	var missing []string
	if c.Line.ChannelAccessToken == "" {
		missing = append(missing, "LINE_CHANNEL_ACCESS_TOKEN")
	}
	if c.Line.ChannelSecret == "" {
		missing = append(missing, "LINE_CHANNEL_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// HasMapsAPI reports whether the Google Maps API key is configured.
func (c Config) HasMapsAPI() bool {
	return c.Maps.APIKey != ""
}
