package oauthLocal

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"golang.org/x/oauth2"
)

const defaultExpirySkew = time.Minute

// TokenCredential serves tokens from an oauth2.TokenSource to Azure SDK
// clients. Scopes are fixed by the source; the ones requested per call are
// ignored.
type TokenCredential struct {
	source oauth2.TokenSource
}

// NewTokenCredential wraps src so tokens are refreshed skew before they
// expire. A zero skew uses one minute.
func NewTokenCredential(src oauth2.TokenSource, skew time.Duration) *TokenCredential {
	if skew <= 0 {
		skew = defaultExpirySkew
	}
	return &TokenCredential{
		source: oauth2.ReuseTokenSourceWithExpiry(nil, src, skew),
	}
}

func (c *TokenCredential) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return azcore.AccessToken{}, err
	}

	tok, err := c.source.Token()
	if err != nil {
		return azcore.AccessToken{}, err
	}
	if tok.AccessToken == "" {
		return azcore.AccessToken{}, errors.New("token endpoint returned an empty access token")
	}

	expiresOn := tok.Expiry
	if expiresOn.IsZero() {
		expiresOn = time.Now().Add(time.Hour)
	}

	return azcore.AccessToken{Token: tok.AccessToken, ExpiresOn: expiresOn}, nil
}
