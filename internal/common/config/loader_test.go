package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: loan_risk
    user: ${TEST_DB_USER}
  elasticsearch:
    url: http://localhost:9200
  redis:
    address: localhost:6379
workers:
  evaluate-loan-batch:
    enabled: true
    timeout: 120000
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

// ==========================
// Loading
// ==========================

func TestLoadFromFile_AppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_DB_USER", "risk_app")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "risk_app", cfg.Database.Postgres.User)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, []string{"http://localhost:9200"}, cfg.Database.Elasticsearch.GetAddresses())
	assert.Equal(t, "loan-applicant-scores", cfg.Database.Elasticsearch.ScoresIndex)
	assert.Equal(t, ":8080", cfg.Server.Addr())

	assert.Equal(t, 50000.0, cfg.Policy.ReferenceIncome)
	assert.Equal(t, 0.40, cfg.Policy.EMIBurdenRatio)
	assert.Equal(t, 10.0, cfg.Policy.NewLoanAnnualRate)
	assert.Equal(t, 12, cfg.Policy.DefaultJobStabilityMonths)
	assert.Equal(t, 10, cfg.Policy.TopCandidates)
	assert.Equal(t, 8, cfg.Policy.Concurrency)
	assert.Equal(t, 30*time.Minute, cfg.Policy.ReportCacheTTL)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)

	w := GetWorkerConfig(cfg, "evaluate-loan-batch")
	assert.True(t, w.Enabled)
	assert.Equal(t, 120000, w.Timeout)
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 3, w.MaxRetries)
}

func TestLoadFromFile_PolicyOverrides(t *testing.T) {
	t.Setenv("TEST_DB_USER", "risk_app")
	body := minimalYAML + `
policy:
  reference_income: 60000
  emi_burden_ratio: 0.5
  report_cache_ttl: 5m
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 60000.0, cfg.Policy.ReferenceIncome)
	assert.Equal(t, 0.5, cfg.Policy.EMIBurdenRatio)
	assert.Equal(t, 5*time.Minute, cfg.Policy.ReportCacheTTL)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// ==========================
// Validation
// ==========================

func validConfig() *Config {
	cfg := &Config{}
	cfg.Camunda.BrokerAddress = "localhost:26500"
	cfg.Database.Postgres = PostgresConfig{Host: "localhost", Database: "loan_risk", User: "risk"}
	cfg.Database.Elasticsearch.URL = "http://localhost:9200"
	cfg.Database.Redis.Address = "localhost:6379"
	applyDefaults(cfg)
	return cfg
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing broker",
			mutate:  func(c *Config) { c.Camunda.BrokerAddress = "" },
			wantErr: "camunda",
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres",
		},
		{
			name: "missing elasticsearch",
			mutate: func(c *Config) {
				c.Database.Elasticsearch.URL = ""
				c.Database.Elasticsearch.Addresses = nil
			},
			wantErr: "elasticsearch",
		},
		{
			name:    "burden ratio above one",
			mutate:  func(c *Config) { c.Policy.EMIBurdenRatio = 1.5 },
			wantErr: "policy",
		},
		{
			name:    "unknown auth mode",
			mutate:  func(c *Config) { c.Auth.Mode = "basic" },
			wantErr: "auth",
		},
		{
			name:    "jwt mode without secret",
			mutate:  func(c *Config) { c.Auth.Mode = AuthModeJWT },
			wantErr: "auth.jwt.secret",
		},
		{
			name: "keycloak mode with url",
			mutate: func(c *Config) {
				c.Auth.Mode = AuthModeKeycloak
				c.Auth.Keycloak.URL = "http://keycloak:8080"
			},
		},
		{
			name: "email enabled without sender",
			mutate: func(c *Config) {
				c.Notifications.Email.Enabled = true
			},
			wantErr: "from_email",
		},
		{
			name: "topic enabled without arn",
			mutate: func(c *Config) {
				c.Notifications.Topic.Enabled = true
			},
			wantErr: "topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsWorkerEnabled(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{"notify-portfolio": {Enabled: false}}}
	assert.False(t, IsWorkerEnabled(cfg, "notify-portfolio"))
	assert.True(t, IsWorkerEnabled(cfg, "explain-loan-decision"))
}
