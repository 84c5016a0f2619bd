package oauthLocal

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource returns a cached client-credentials token source whose token
// requests go through base.
func TokenSource(ctx context.Context, cc *clientcredentials.Config, base *http.Client) oauth2.TokenSource {
	if base == nil {
		base = http.DefaultClient
	}

	ctx = WithBaseClient(ctx, base)
	return cc.TokenSource(ctx)
}

// AzureTokenURL is the Microsoft identity platform v2 token endpoint for tenant.
func AzureTokenURL(tenantID string) string {
	return "https://login.microsoftonline.com/" + tenantID + "/oauth2/v2.0/token"
}
