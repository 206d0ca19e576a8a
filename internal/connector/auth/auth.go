// Package auth obtains the credential presented when opening a stream.
// Sources are tried in order of trust: a short-lived bearer token from the
// auth service first, then the longer-lived session credential.
package auth

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/crimson-sun/logstream/internal/connector/httpclient"
)

// SessionCookieName is the cookie that carries the session credential.
const SessionCookieName = "better-auth.session_token"

// TokenPath is the auth service endpoint that exchanges a session for a
// short-lived bearer token.
const TokenPath = "/api/auth/token"

// ErrUnavailable is returned when no source yields a credential.
var ErrUnavailable = errors.New("auth: no credential available")

// TokenSource yields a credential. An empty string with a nil error means
// the source has nothing to offer.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Chain tries each source in order and returns the first non-empty
// credential. Source errors are logged and the next source is tried.
type Chain []TokenSource

// Token implements TokenSource.
func (c Chain) Token(ctx context.Context) (string, error) {
	for _, src := range c {
		tok, err := src.Token(ctx)
		if errors.Is(err, ErrUnavailable) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			slog.Warn("credential source failed", "source", fmt.Sprintf("%T", src), "error", err)
			continue
		}
		if tok != "" {
			return tok, nil
		}
	}
	return "", ErrUnavailable
}

// JWT exchanges the session credential for a bearer token at the auth
// service.
type JWT struct {
	authURL string
	session TokenSource
	opts    []httpclient.Option
}

// NewJWT creates a JWT source against authURL.
func NewJWT(authURL string, session TokenSource, opts ...httpclient.Option) *JWT {
	return &JWT{authURL: authURL, session: session, opts: opts}
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token implements TokenSource. Without a session there is nothing to
// exchange and the source yields no token.
func (j *JWT) Token(ctx context.Context) (string, error) {
	if j.authURL == "" || j.session == nil {
		return "", nil
	}
	sess, err := j.session.Token(ctx)
	if errors.Is(err, ErrUnavailable) {
		return "", nil
	}
	if err != nil || sess == "" {
		return "", err
	}
	opts := append([]httpclient.Option{httpclient.WithCookie(SessionCookieName, sess)}, j.opts...)
	var resp tokenResponse
	if err := httpclient.New(j.authURL, "", opts...).GetJSON(ctx, TokenPath, nil, &resp); err != nil {
		return "", fmt.Errorf("jwt: %w", err)
	}
	return resp.Token, nil
}

// Static is a fixed credential, typically from configuration.
type Static string

// Token implements TokenSource.
func (s Static) Token(context.Context) (string, error) { return string(s), nil }

// CookieFile reads the session credential from a Netscape-format cookie jar,
// as exported by browsers and written by curl -c.
type CookieFile string

// Token implements TokenSource. A missing file yields no token.
func (f CookieFile) Token(context.Context) (string, error) {
	if f == "" {
		return "", nil
	}
	file, err := os.Open(string(f))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("cookie file: %w", err)
	}
	defer file.Close()
	return findCookie(bufio.NewScanner(file), SessionCookieName)
}

// findCookie returns the value of the last cookie named name.
func findCookie(sc *bufio.Scanner, name string) (string, error) {
	var value string
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		line = strings.TrimPrefix(line, "#HttpOnly_")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// domain, include-subdomains, path, secure, expiry, name, value
		fields := strings.Split(line, "\t")
		if len(fields) == 7 && fields[5] == name {
			value = fields[6]
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("cookie file: %w", err)
	}
	return value, nil
}

// Session returns the session credential source: the configured value when
// set, otherwise the cookie jar.
func Session(value, cookieFile string) TokenSource {
	return Chain{Static(value), CookieFile(cookieFile)}
}

// Default builds the standard chain: bearer token from the auth service,
// then the raw session credential.
func Default(authURL, sessionValue, cookieFile string) Chain {
	session := Session(sessionValue, cookieFile)
	return Chain{NewJWT(authURL, session), session}
}
