package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	APIPort  int `yaml:"apiPort"`
	Database struct {
		Type            string `yaml:"type"` // "postgres" or "sqlite"
		Host            string `yaml:"host"`
		Port            string `yaml:"port"`
		Name            string `yaml:"name"`
		User            string `yaml:"user"`
		Password        string `yaml:"password"`
		SSLMode         string `yaml:"sslMode"`
		Path            string `yaml:"path"` // sqlite file path
		MaxConns        int    `yaml:"maxConns"`
		MaxIdle         int    `yaml:"maxIdle"`
		ConnMaxLifetime string `yaml:"connMaxLifetime"`
	} `yaml:"database"`
	Storage struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
	} `yaml:"storage"`
	AI struct {
		GatewayURL string `yaml:"gatewayUrl"`
		APIKey     string `yaml:"apiKey"`
		Model      string `yaml:"model"`
	} `yaml:"ai"`
	PayPal struct {
		ProPlanID  string `yaml:"proPlanId"`
		TeamPlanID string `yaml:"teamPlanId"`
		// When set, the webhook route is only mounted under this path
		// segment. PayPal sends no shared-secret header, so an unguessable
		// URL is the fallback when signature verification is unavailable.
		WebhookToken string `yaml:"webhookToken"`
	} `yaml:"paypal"`
	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
	} `yaml:"auth"`
}

// LoadConfig loads the configuration from file and environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, err
		}
		log.Printf("Warning: Could not read config file: %s. Using defaults or environment variables.", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.APIPort == 0 {
		cfg.APIPort = 8081
		log.Println("APIPort not specified, using default 8081")
	}

	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
		log.Println("Database type not specified, defaulting to sqlite")
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "/data/studyforge.db"
		log.Println("Database path not specified, using default /data/studyforge.db")
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}

	if cfg.AI.GatewayURL == "" {
		cfg.AI.GatewayURL = "https://ai.gateway.lovable.dev/v1/chat/completions"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "google/gemini-2.5-flash"
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = os.Getenv("AI_API_KEY")
	}

	if cfg.PayPal.ProPlanID == "" {
		cfg.PayPal.ProPlanID = "MQGLAZJRTXQ6Y"
	}

	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}

	log.Printf("Configuration loaded (port=%d, db=%s)", cfg.APIPort, cfg.Database.Type)
	return &cfg, nil
}
