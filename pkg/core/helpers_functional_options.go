package core

import "time"

func WithRedisAddr(addr string) func(*Config) {
	return func(c *Config) {
		c.Redis.Addr = addr
	}
}

func WithRedisPassword(pw string) func(*Config) {
	return func(c *Config) {
		c.Redis.Password = pw
	}
}

func WithRedisDB(db int) func(*Config) {
	return func(c *Config) {
		c.Redis.DB = db
	}
}

func WithBreaker(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.Breaker.Enabled = val
	}
}

func WithEnvironment(environment string) func(*Config) {
	return func(c *Config) {
		c.Environment = environment
	}
}

func WithPort(port int) func(*Config) {
	return func(c *Config) {
		c.Port = port
	}
}

func WithRequestTimeout(timeout time.Duration) func(*Config) {
	return func(c *Config) {
		c.RequestTimeout = timeout
	}
}

func WithSkipAuth(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.SkipAuth = val
	}
}

func WithOtlpEndpoint(endpoint string) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Endpoint = endpoint
	}
}

func WithOtlpInsecure(insecure bool) func(*Config) {
	return func(c *Config) {
		c.Otel.OtlpExporter.Insecure = insecure
	}
}

func WithOtelDisable(value ...bool) func(*Config) {
	val := true
	if len(value) > 0 {
		val = value[0]
	}

	return func(c *Config) {
		c.Otel.Disable = val
	}
}

func WithAuthIssuer(issuer string) func(*Config) {
	return func(c *Config) {
		c.Auth.Issuer = issuer
	}
}

func WithAuthClientID(clientID string) func(*Config) {
	return func(c *Config) {
		c.Auth.ClientID = clientID
	}
}

// WithLocalTemplates serves templates from dir instead of blob storage.
func WithLocalTemplates(dir string) func(*Config) {
	return func(c *Config) {
		c.Template.Store = "local"
		c.Template.Dir = dir
	}
}

func WithTemplateBlob(container, blob string) func(*Config) {
	return func(c *Config) {
		c.Template.Container = container
		c.Template.Blob = blob
	}
}

func WithTemplateTable(sheet, table string) func(*Config) {
	return func(c *Config) {
		c.Template.Sheet = sheet
		c.Template.Table = table
	}
}

func WithStorageConnectionString(connectionString string) func(*Config) {
	return func(c *Config) {
		c.Storage.AuthMode = "connection-string"
		c.Storage.ConnectionString = connectionString
	}
}
