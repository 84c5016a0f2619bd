package templates

import (
	"context"
	"fmt"
	"net/http"

	"github.com/DSACMS/process-information-api/pkg/core"
	"github.com/DSACMS/process-information-api/pkg/oauthLocal"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	AuthModeConnectionString  = "connection-string"
	AuthModeClientCredentials = "client-credentials"
	AuthModeSAS               = "sas"

	storageScope = "https://storage.azure.com/.default"
)

// ConfigProvider resolves a Source from service configuration.
type ConfigProvider struct {
	storage  core.StorageConfig
	template core.TemplateConfig
	// HTTP client used for token requests
	httpClient *http.Client
}

func NewConfigProvider(cfg *core.Config, httpClient *http.Client) *ConfigProvider {
	return &ConfigProvider{
		storage:    cfg.Storage,
		template:   cfg.Template,
		httpClient: httpClient,
	}
}

func (p *ConfigProvider) Resolve(ctx context.Context) (Source, error) {
	src := Source{
		Container: p.template.Container,
		Blob:      p.template.Blob,
	}

	switch p.storage.AuthMode {
	case AuthModeConnectionString:
		if p.storage.ConnectionString == "" {
			return Source{}, fmt.Errorf("%s auth requires a connection string", AuthModeConnectionString)
		}
		src.ConnectionString = p.storage.ConnectionString

	case AuthModeSAS:
		if p.storage.ServiceURL == "" {
			return Source{}, fmt.Errorf("%s auth requires a service URL", AuthModeSAS)
		}
		src.ServiceURL = p.storage.ServiceURL

	case AuthModeClientCredentials:
		if p.storage.ServiceURL == "" {
			return Source{}, fmt.Errorf("%s auth requires a service URL", AuthModeClientCredentials)
		}

		tokenURL := p.storage.TokenURL
		if tokenURL == "" {
			if p.storage.TenantID == "" {
				return Source{}, fmt.Errorf("%s auth requires a tenant id or token URL", AuthModeClientCredentials)
			}
			tokenURL = oauthLocal.AzureTokenURL(p.storage.TenantID)
		}

		cc := &clientcredentials.Config{
			ClientID:     p.storage.ClientID,
			ClientSecret: p.storage.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{storageScope},
		}

		src.ServiceURL = p.storage.ServiceURL
		src.Credential = oauthLocal.NewTokenCredential(oauthLocal.TokenSource(ctx, cc, p.httpClient), 0)

	default:
		return Source{}, fmt.Errorf("unsupported storage auth mode %q", p.storage.AuthMode)
	}

	return src, nil
}
