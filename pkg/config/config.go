package config

import (
	"fmt"
	"os"

	"github.com/ArdenN1895/alerts/pkg/push"
	"github.com/ArdenN1895/alerts/pkg/sms"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Push PushConfig `yaml:"push"`
	SMS  SMSConfig  `yaml:"sms"`
}

type PushConfig struct {
	Subscriber string `yaml:"subscriber"`
	TTL        int    `yaml:"ttl"`
}

type SMSConfig struct {
	Provider string            `yaml:"provider"`
	Twilio   *sms.TwilioSender `yaml:"twilio,omitempty"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Push.Subscriber == "" {
		cfg.Push.Subscriber = "mailto:admin@spcalerts.com"
	}
	if cfg.Push.TTL == 0 {
		cfg.Push.TTL = push.DefaultTTL
	}
	return &cfg, nil
}

func BuildSMSSender(cfg *Config) (sms.Sender, error) {
	switch cfg.SMS.Provider {
	case "twilio":
		if cfg.SMS.Twilio == nil {
			return nil, fmt.Errorf("missing twilio config for sms provider")
		}
		return sms.NewTwilioSender(
			os.Getenv("TWILIO_ACCOUNT_SID"),
			os.Getenv("TWILIO_AUTH_TOKEN"),
			cfg.SMS.Twilio.FromNumber,
		), nil
	default:
		return nil, fmt.Errorf("unsupported sms provider: %s", cfg.SMS.Provider)
	}
}
