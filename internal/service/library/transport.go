package library

import (
	"context"
	"net/http"

	"github.com/Astemirdum/library-client/internal/session"
	"github.com/google/uuid"
)

const (
	AuthorizationHeader = "Authorization"
	XRequestIDHeader    = "X-Request-ID"
	bearer              = "Bearer "
)

// TokenSource hands out the persisted credentials.
type TokenSource interface {
	Load(ctx context.Context) (session.Credentials, error)
}

type anonymousKey struct{}

// anonymous marks a request that must not carry the bearer token.
func anonymous(ctx context.Context) context.Context {
	return context.WithValue(ctx, anonymousKey{}, true)
}

func isAnonymous(ctx context.Context) bool {
	v, _ := ctx.Value(anonymousKey{}).(bool)
	return v
}

// authTransport injects the bearer token and a request id into every outgoing request.
type authTransport struct {
	base   http.RoundTripper
	tokens TokenSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	r := req.Clone(ctx)
	if r.Header.Get(XRequestIDHeader) == "" {
		r.Header.Set(XRequestIDHeader, uuid.NewString())
	}
	if !isAnonymous(ctx) && r.Header.Get(AuthorizationHeader) == "" && t.tokens != nil {
		creds, err := t.tokens.Load(ctx)
		if err != nil {
			return nil, err
		}
		if creds.AccessToken != "" {
			r.Header.Set(AuthorizationHeader, bearer+creds.AccessToken)
		}
	}
	return t.base.RoundTrip(r)
}
