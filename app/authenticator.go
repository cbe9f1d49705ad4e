package app

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/artpar/hoops/domain/oauth1"
	"github.com/artpar/hoops/domain/status"
	"github.com/artpar/hoops/ports"
	"github.com/rs/zerolog"
)

// AuthConfig configures the Authenticator.
type AuthConfig struct {
	// Skew is the maximum age of oauth_timestamp. Defaults to 15 minutes.
	Skew time.Duration

	// NonceTTL is how long a claimed nonce is remembered. Defaults to
	// twice the skew. Only used with a nonce store.
	NonceTTL time.Duration
}

// Authenticator verifies OAuth1 HMAC-SHA1 signed requests.
type Authenticator struct {
	credentials ports.CredentialStore
	nonces      ports.NonceStore
	clock       ports.Clock
	logger      zerolog.Logger
	skew        time.Duration
	nonceTTL    time.Duration
}

// NewAuthenticator creates an authenticator. nonces may be nil, in which
// case verification performs no writes and nonces are not checked.
func NewAuthenticator(
	credentials ports.CredentialStore,
	nonces ports.NonceStore,
	clock ports.Clock,
	logger zerolog.Logger,
	cfg AuthConfig,
) *Authenticator {
	if cfg.Skew <= 0 {
		cfg.Skew = oauth1.DefaultSkew
	}
	if cfg.NonceTTL <= 0 {
		cfg.NonceTTL = 2 * cfg.Skew
	}
	return &Authenticator{
		credentials: credentials,
		nonces:      nonces,
		clock:       clock,
		logger:      logger.With().Str("component", "auth").Logger(),
		skew:        cfg.Skew,
		nonceTTL:    cfg.NonceTTL,
	}
}

// SignedRequest is the part of an HTTP request covered by the signature.
type SignedRequest struct {
	Method string
	URL    *url.URL   // absolute request URL
	Params url.Values // query, form body and Authorization header params
}

// Authenticate runs the checks in order; the first failing check decides
// the error.
func (a *Authenticator) Authenticate(ctx context.Context, req SignedRequest) (Principal, error) {
	p := req.Params

	consumerKey := p.Get(oauth1.ParamConsumerKey)
	if consumerKey == "" {
		return Principal{}, status.Fail(status.AuthenticationRequired, nil)
	}

	cred, err := a.credentials.Get(ctx, consumerKey)
	if errors.Is(err, ports.ErrNotFound) {
		return Principal{}, status.Fail(status.UnknownOAuthConsumerKey, nil)
	}
	if err != nil {
		return Principal{}, status.Fail(status.DatabaseOperationFailed, nil).Wrap(err)
	}
	if !cred.Enabled {
		return Principal{}, status.Fail(status.UnknownOAuthConsumerKey, nil)
	}

	for _, name := range oauth1.Required {
		if p.Get(name) == "" {
			return Principal{}, status.Fail(status.MissingParameter, status.Args{"parameter": name})
		}
	}

	tokenSecret := ""
	if p.Has(oauth1.ParamToken) {
		if p.Get(oauth1.ParamToken) != cred.Token {
			return Principal{}, status.Fail(status.UnknownOAuthConsumerKey, nil)
		}
		tokenSecret = cred.TokenSecret
	}

	ts, ok := oauth1.ParseTimestamp(p.Get(oauth1.ParamTimestamp))
	if !ok || oauth1.Expired(ts, a.clock.Now(), a.skew) {
		return Principal{}, status.Fail(status.ExpiredTimestamp, nil)
	}

	if p.Get(oauth1.ParamSignatureMethod) != oauth1.MethodHMACSHA1 {
		return Principal{}, status.Fail(status.UnexpectedOAuthSignatureMethod, nil)
	}

	base := oauth1.BaseString(req.Method, oauth1.BaseURL(req.URL), p)
	if !oauth1.Verify(base, p.Get(oauth1.ParamSignature), cred.ConsumerSecret, tokenSecret) {
		a.logger.Debug().Str("consumer", consumerKey).Str("base_string", base).Msg("signature mismatch")
		return Principal{}, status.Fail(status.InvalidOAuthSignature, nil)
	}

	if a.nonces != nil {
		fresh, err := a.nonces.Claim(ctx, consumerKey, p.Get(oauth1.ParamNonce), a.nonceTTL)
		if err != nil {
			return Principal{}, status.Fail(status.DatabaseOperationFailed, nil).Wrap(err)
		}
		if !fresh {
			return Principal{}, status.Fail(status.NonceAlreadyUsed, nil)
		}
	}

	return Principal{
		CredentialID: cred.ID,
		ConsumerKey:  cred.ConsumerKey,
		OwnerRef:     cred.OwnerRef,
	}, nil
}
