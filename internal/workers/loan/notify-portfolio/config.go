package notifyportfolio

import (
	"time"

	"loan-risk-workers/internal/common/config"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type Config struct {
	Enabled bool
	Timeout time.Duration

	EmailEnabled bool
	FromEmail    string
	Recipients   []string

	TopicEnabled bool
	TopicARN     string
}

func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Timeout: 15 * time.Second,
	}
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.FromEmail, validation.When(c.EmailEnabled, validation.Required, is.Email)),
		validation.Field(&c.Recipients, validation.When(c.EmailEnabled, validation.Required),
			validation.Each(is.Email)),
		validation.Field(&c.TopicARN, validation.When(c.TopicEnabled, validation.Required)),
	)
}

func createConfigFromAppConfig(appCfg *config.Config, custom *Config) *Config {
	if custom != nil {
		return custom
	}
	cfg := DefaultConfig()
	if appCfg == nil {
		return cfg
	}
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	cfg.Enabled = wcfg.Enabled
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}

	n := appCfg.Notifications
	cfg.EmailEnabled = n.Email.Enabled
	cfg.FromEmail = n.Email.FromEmail
	cfg.Recipients = n.Email.Recipients
	cfg.TopicEnabled = n.Topic.Enabled
	cfg.TopicARN = n.Topic.TopicARN
	return cfg
}
