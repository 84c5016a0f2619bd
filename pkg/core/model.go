package core

import "time"

type Config struct {
	Auth           AuthConfig
	Breaker        BreakerConfig
	BodyLimit      int    `validate:"gt=0"`
	Environment    string `validate:"required"`
	Otel           OtelConfig
	Port           int           `validate:"gt=0,lte=65535"`
	RequestTimeout time.Duration `validate:"gt=0"`
	SkipAuth       bool
	Redis          RedisConfig
	Storage        StorageConfig
	Template       TemplateConfig
}

type OtlpConfig struct {
	Endpoint string
	Insecure bool
}

type OtelConfig struct {
	OtlpExporter OtlpConfig
	Disable      bool
}

// AuthConfig describes the identity provider that fronts the service. The
// hosting platform injects a signed access token into Header.
type AuthConfig struct {
	Issuer   string
	JWKSURL  string
	ClientID string
	Header   string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type BreakerConfig struct {
	Enabled bool
}

// TemplateConfig locates the workbook template and the table inside it.
type TemplateConfig struct {
	Store     string `validate:"oneof=azure local"`
	Dir       string
	Container string `validate:"required"`
	Blob      string `validate:"required"`
	Sheet     string `validate:"required"`
	Table     string `validate:"required"`
}

type StorageConfig struct {
	AuthMode         string `validate:"oneof=connection-string client-credentials sas"`
	ConnectionString string
	ServiceURL       string
	TenantID         string
	ClientID         string
	ClientSecret     string
	TokenURL         string
}
