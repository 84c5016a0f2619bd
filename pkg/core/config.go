package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator"
)

const (
	defaultConfigEnvironment = "development"
	defaultConfigPort        = 8000
	defaultSkipAuth          = true
	defaultRequestTimeout    = 30 * time.Second
	defaultBodyLimit         = 4 * 1024 * 1024

	defaultOtelDisable          = false
	defaultOTLPExporterEndpoint = "localhost:4317"
	defaultOTLPInsecure         = true

	defaultAuthHeader = "Authorization"

	defaultRedisAddr     = "localhost:6379"
	defaultRedisPassword = ""
	defaultRedisDB       = 0

	defaultBreakerEnabled = false

	defaultTemplateStore     = "azure"
	defaultTemplateDir       = "templates"
	defaultTemplateContainer = "excel-templates"
	defaultTemplateBlob      = "Information.xlsx"
	defaultTemplateSheet     = "Details"
	defaultTemplateTable     = "PersonalDetails"

	defaultStorageAuthMode = "connection-string"
)

func DefaultConfig() Config {
	return Config{
		Environment:    defaultConfigEnvironment,
		Port:           defaultConfigPort,
		SkipAuth:       defaultSkipAuth,
		RequestTimeout: defaultRequestTimeout,
		BodyLimit:      defaultBodyLimit,
		Otel: OtelConfig{
			Disable: defaultOtelDisable,
			OtlpExporter: OtlpConfig{
				Endpoint: defaultOTLPExporterEndpoint,
				Insecure: defaultOTLPInsecure,
			},
		},
		Auth: AuthConfig{
			Header: defaultAuthHeader,
		},
		Redis: RedisConfig{
			Addr:     defaultRedisAddr,
			Password: defaultRedisPassword,
			DB:       defaultRedisDB,
		},
		Breaker: BreakerConfig{
			Enabled: defaultBreakerEnabled,
		},
		Template: TemplateConfig{
			Store:     defaultTemplateStore,
			Dir:       defaultTemplateDir,
			Container: defaultTemplateContainer,
			Blob:      defaultTemplateBlob,
			Sheet:     defaultTemplateSheet,
			Table:     defaultTemplateTable,
		},
		Storage: StorageConfig{
			AuthMode: defaultStorageAuthMode,
		},
	}
}

func NewConfig(options ...func(*Config)) Config {
	config := DefaultConfig()
	for _, opt := range options {
		opt(&config)
	}
	return config
}

func NewConfigFromEnv(options ...func(*Config)) (Config, error) {
	config := DefaultConfig()
	err := errors.Join(
		setFromEnv(&config.Environment, "ENVIRONMENT"),
		setFromEnv(&config.Port, "PORT"),
		setFromEnv(&config.SkipAuth, "SKIP_AUTH"),
		setFromEnv(&config.RequestTimeout, "REQUEST_TIMEOUT"),
		setFromEnv(&config.BodyLimit, "BODY_LIMIT"),
		setFromEnv(&config.Otel.Disable, "OTEL_DISABLE"),
		setFromEnv(&config.Otel.OtlpExporter.Endpoint, "OTEL_OTLP_EXPORTER_ENDPOINT"),
		setFromEnv(&config.Otel.OtlpExporter.Insecure, "OTEL_OTLP_EXPORTER_INSECURE"),
		setFromEnv(&config.Auth.Issuer, "AUTH_ISSUER"),
		setFromEnv(&config.Auth.JWKSURL, "AUTH_JWKS_URL"),
		setFromEnv(&config.Auth.ClientID, "AUTH_CLIENT_ID"),
		setFromEnv(&config.Auth.Header, "AUTH_HEADER"),
		setFromEnv(&config.Redis.Addr, "REDIS_ADDR"),
		setFromEnv(&config.Redis.Password, "REDIS_PASSWORD"),
		setFromEnv(&config.Redis.DB, "REDIS_DB"),
		setFromEnv(&config.Breaker.Enabled, "BREAKER_ENABLED"),
		setFromEnv(&config.Template.Store, "TEMPLATE_STORE"),
		setFromEnv(&config.Template.Dir, "TEMPLATE_DIR"),
		setFromEnv(&config.Template.Container, "TEMPLATE_CONTAINER"),
		setFromEnv(&config.Template.Blob, "TEMPLATE_BLOB"),
		setFromEnv(&config.Template.Sheet, "TEMPLATE_SHEET"),
		setFromEnv(&config.Template.Table, "TEMPLATE_TABLE"),
		setFromEnv(&config.Storage.AuthMode, "STORAGE_AUTH_MODE"),
		setFromEnv(&config.Storage.ConnectionString, "STORAGE_CONNECTION_STRING"),
		setFromEnv(&config.Storage.ServiceURL, "STORAGE_SERVICE_URL"),
		setFromEnv(&config.Storage.TenantID, "STORAGE_TENANT_ID"),
		setFromEnv(&config.Storage.ClientID, "STORAGE_CLIENT_ID"),
		setFromEnv(&config.Storage.ClientSecret, "STORAGE_CLIENT_SECRET"),
		setFromEnv(&config.Storage.TokenURL, "STORAGE_TOKEN_URL"),
	)

	for _, opt := range options {
		opt(&config)
	}

	return config, err
}

// Validate checks field constraints and the combinations between them.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	var errs error
	if err := validator.New().Struct(c); err != nil {
		errs = errors.Join(errs, err)
	}

	if !c.SkipAuth {
		if c.Auth.Issuer == "" {
			errs = errors.Join(errs, errors.New("AUTH_ISSUER is required unless SKIP_AUTH is set"))
		}
		if c.Auth.ClientID == "" {
			errs = errors.Join(errs, errors.New("AUTH_CLIENT_ID is required unless SKIP_AUTH is set"))
		}
	}

	switch c.Template.Store {
	case "local":
		if c.Template.Dir == "" {
			errs = errors.Join(errs, errors.New("TEMPLATE_DIR is required for the local template store"))
		}
	case "azure":
		errs = errors.Join(errs, c.Storage.validate())
	}

	return errs
}

func (s StorageConfig) validate() error {
	switch s.AuthMode {
	case "connection-string":
		if s.ConnectionString == "" {
			return errors.New("STORAGE_CONNECTION_STRING is required for connection-string auth")
		}
	case "sas":
		if s.ServiceURL == "" {
			return errors.New("STORAGE_SERVICE_URL is required for sas auth")
		}
	case "client-credentials":
		var errs error
		if s.ServiceURL == "" {
			errs = errors.Join(errs, errors.New("STORAGE_SERVICE_URL is required for client-credentials auth"))
		}
		if s.ClientID == "" || s.ClientSecret == "" {
			errs = errors.Join(errs, errors.New("STORAGE_CLIENT_ID and STORAGE_CLIENT_SECRET are required for client-credentials auth"))
		}
		if s.TenantID == "" && s.TokenURL == "" {
			errs = errors.Join(errs, errors.New("STORAGE_TENANT_ID or STORAGE_TOKEN_URL is required for client-credentials auth"))
		}
		return errs
	}
	return nil
}

func LoadEnv(environment ...string) error {
	filenames := []string{
		".env.local",
		".env",
	}

	env := getEnv("ENVIRONMENT", DefaultConfig().Environment)
	if len(environment) > 0 {
		env = environment[0]
	}

	if env != "" {
		file := ".env." + env + ".local"
		filenames = append([]string{file}, filenames...)
	}

	var errs error

	for _, filename := range filenames {
		err := loadEnvFile(filename)
		if err != nil {
			errs = errors.Join(
				errs,
				fmt.Errorf("error loading %s: %w", filename, err),
			)
		}
	}

	return errs
}
