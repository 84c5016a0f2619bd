package oauthLocal

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

func WithBaseClient(ctx context.Context, base *http.Client) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, base)
}
