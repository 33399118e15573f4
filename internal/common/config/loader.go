// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, overlays config.<APP_ENVIRONMENT>.yaml and
// applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// DATABASE_POSTGRES_HOST overrides database.postgres.host
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets from well-known env names when the YAML
// left them blank.
func overrideEmptyConfig(cfg *Config) {
	overrides := []struct {
		target *string
		env    string
	}{
		{&cfg.Database.Postgres.User, "DB_USER"},
		{&cfg.Database.Postgres.Password, "DB_PASSWORD"},
		{&cfg.Database.Redis.Password, "REDIS_PASSWORD"},
		{&cfg.Predictor.APIKey, "PREDICTOR_API_KEY"},
		{&cfg.Auth.JWT.Secret, "AUTH_JWT_SECRET"},
		{&cfg.Auth.Keycloak.ClientSecret, "KEYCLOAK_CLIENT_SECRET"},
		{&cfg.Notifications.Topic.TopicARN, "PORTFOLIO_TOPIC_ARN"},
	}
	for _, o := range overrides {
		if *o.target != "" {
			continue
		}
		if val := os.Getenv(o.env); val != "" {
			*o.target = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	// Camunda defaults
	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	// Database defaults
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}
	if cfg.Database.Elasticsearch.ScoresIndex == "" {
		cfg.Database.Elasticsearch.ScoresIndex = "loan-applicant-scores"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}

	if cfg.Auth.Mode == "" {
		cfg.Auth.Mode = AuthModeNone
	}

	if cfg.Predictor.Timeout == 0 {
		cfg.Predictor.Timeout = 10000
	}
	if cfg.Predictor.MaxRetries == 0 {
		cfg.Predictor.MaxRetries = 2
	}

	// Policy defaults match risk.DefaultPolicy
	if cfg.Policy.ReferenceIncome == 0 {
		cfg.Policy.ReferenceIncome = 50000
	}
	if cfg.Policy.EMIBurdenRatio == 0 {
		cfg.Policy.EMIBurdenRatio = 0.40
	}
	if cfg.Policy.NewLoanAnnualRate == 0 {
		cfg.Policy.NewLoanAnnualRate = 10.0
	}
	if cfg.Policy.DefaultJobStabilityMonths == 0 {
		cfg.Policy.DefaultJobStabilityMonths = 12
	}
	if cfg.Policy.TopCandidates == 0 {
		cfg.Policy.TopCandidates = 10
	}
	if cfg.Policy.Concurrency == 0 {
		cfg.Policy.Concurrency = 8
	}
	if cfg.Policy.ReportCacheTTL == 0 {
		cfg.Policy.ReportCacheTTL = 30 * time.Minute
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "loan-risk-workers"
	}
	if cfg.App.Name == "" {
		cfg.App.Name = cfg.Observability.ServiceName
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if err := validation.ValidateStruct(&cfg.Camunda,
		validation.Field(&cfg.Camunda.BrokerAddress, validation.Required),
	); err != nil {
		return fmt.Errorf("camunda: %w", err)
	}

	pg := &cfg.Database.Postgres
	if err := validation.ValidateStruct(pg,
		validation.Field(&pg.Host, validation.Required),
		validation.Field(&pg.Database, validation.Required),
		validation.Field(&pg.User, validation.Required),
	); err != nil {
		return fmt.Errorf("database.postgres: %w", err)
	}

	if len(cfg.Database.Elasticsearch.GetAddresses()) == 0 {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if err := validation.ValidateStruct(&cfg.Database.Redis,
		validation.Field(&cfg.Database.Redis.Address, validation.Required),
	); err != nil {
		return fmt.Errorf("database.redis: %w", err)
	}

	p := &cfg.Policy
	if err := validation.ValidateStruct(p,
		validation.Field(&p.ReferenceIncome, validation.Min(0.01)),
		validation.Field(&p.EMIBurdenRatio, validation.Min(0.01), validation.Max(1.0)),
		validation.Field(&p.NewLoanAnnualRate, validation.Min(0.0)),
		validation.Field(&p.DefaultJobStabilityMonths, validation.Min(0)),
		validation.Field(&p.TopCandidates, validation.Min(1)),
		validation.Field(&p.Concurrency, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("policy: %w", err)
	}

	a := &cfg.Auth
	if err := validation.ValidateStruct(a,
		validation.Field(&a.Mode, validation.In(AuthModeKeycloak, AuthModeJWT, AuthModeNone)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	switch a.Mode {
	case AuthModeKeycloak:
		if err := validation.Validate(a.Keycloak.URL, validation.Required, is.URL); err != nil {
			return fmt.Errorf("auth.keycloak.url: %w", err)
		}
	case AuthModeJWT:
		if err := validation.Validate(a.JWT.Secret, validation.Required, validation.Length(16, 0)); err != nil {
			return fmt.Errorf("auth.jwt.secret: %w", err)
		}
	}

	if cfg.Predictor.BaseURL != "" {
		if err := validation.Validate(cfg.Predictor.BaseURL, is.URL); err != nil {
			return fmt.Errorf("predictor.base_url: %w", err)
		}
	}

	if cfg.Notifications.Email.Enabled {
		if err := validation.Validate(cfg.Notifications.Email.FromEmail, validation.Required, is.Email); err != nil {
			return fmt.Errorf("notifications.email.from_email: %w", err)
		}
	}
	if cfg.Notifications.Topic.Enabled && cfg.Notifications.Topic.TopicARN == "" {
		return fmt.Errorf("notifications.topic.topic_arn is required when topic notifications are enabled")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
