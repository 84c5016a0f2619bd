package middleware

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	defaultHeader = "Authorization"
	jwksTimeout   = 5 * time.Second
)

// VerifierConfig describes the identity provider whose access tokens the
// hosting platform forwards to the service.
type VerifierConfig struct {
	Issuer string
	// Defaults to <Issuer>/.well-known/jwks.json
	JWKSURL  string
	ClientID string
	// Request header carrying the token. "Bearer " prefixes are stripped.
	Header string
}

type TokenVerifier struct {
	issuer  string
	jwksURL string
	header  string
	cache   *jwk.Cache
	cfg     VerifierConfig
}

func NewTokenVerifier(cfg VerifierConfig) (*TokenVerifier, error) {
	if cfg.Issuer == "" {
		return nil, errors.New("Issuer is required")
	}

	if cfg.ClientID == "" {
		return nil, errors.New("ClientID is required")
	}

	jwksURL := cfg.JWKSURL
	if jwksURL == "" {
		jwksURL = strings.TrimSuffix(cfg.Issuer, "/") + "/.well-known/jwks.json"
	}

	header := cfg.Header
	if header == "" {
		header = defaultHeader
	}

	cache := jwk.NewCache(context.Background())
	if err := cache.Register(jwksURL); err != nil {
		return nil, fmt.Errorf("register jwks url: %w", err)
	}

	return &TokenVerifier{
		issuer:  cfg.Issuer,
		jwksURL: jwksURL,
		header:  header,
		cache:   cache,
		cfg:     cfg,
	}, nil
}

func (v *TokenVerifier) FiberMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c.Get(v.header))
		if raw == "" {
			return fiber.ErrUnauthorized
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), jwksTimeout)
		defer cancel()

		keyset, err := v.cache.Get(ctx, v.jwksURL)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "unable to load jwks")
		}

		tok, err := jwt.Parse(
			[]byte(raw),
			jwt.WithKeySet(keyset),
			jwt.WithValidate(true),
			jwt.WithIssuer(v.issuer),
		)
		if err != nil {
			return fiber.ErrUnauthorized
		}

		if !v.issuedTo(tok) {
			return fiber.ErrUnauthorized
		}

		// request-scoped, only visible to handlers of this request
		if sub := tok.Subject(); sub != "" {
			c.Locals("sub", sub)
		}
		for _, claim := range []string{"scp", "scope"} {
			if scope, ok := tok.Get(claim); ok {
				c.Locals("scope", scope)
				break
			}
		}
		if roles, ok := tok.Get("roles"); ok {
			c.Locals("roles", roles)
		}

		return c.Next()
	}
}

// issuedTo reports whether the token was issued to or for the configured client.
func (v *TokenVerifier) issuedTo(tok jwt.Token) bool {
	for _, claim := range []string{"client_id", "azp", "appid"} {
		if cid, ok := tok.Get(claim); ok && cid == v.cfg.ClientID {
			return true
		}
	}
	return slices.Contains(tok.Audience(), v.cfg.ClientID)
}

func bearerToken(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > 7 && strings.EqualFold(value[:7], "bearer ") {
		return strings.TrimSpace(value[7:])
	}
	return value
}
