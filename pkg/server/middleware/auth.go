package middleware

import (
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/memexhq/memex/pkg/identity"
)

var bearerRegex = regexp.MustCompile(`^Bearer (\S+)$`)

// TokenAuthenticator is middleware that validates API bearer tokens and
// places the authenticated identity in the request context.
type TokenAuthenticator struct {
	secret []byte
}

// NewTokenAuthenticator creates a new token authenticator with an HMAC
// signing secret.
func NewTokenAuthenticator(secret []byte) *TokenAuthenticator {
	return &TokenAuthenticator{secret: secret}
}

// IssueToken mints a token for a userid, valid for ttl. Used by the CLI
// and tests; a production deployment would normally have an external
// issuer sharing the secret.
func (t *TokenAuthenticator) IssueToken(userid string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Middleware returns an HTTP middleware that validates bearer tokens.
func (t *TokenAuthenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := t.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	})
}

// Wrap adapts Middleware to plain handler funcs.
func (t *TokenAuthenticator) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return t.Middleware(next).ServeHTTP
}

// Optional returns a middleware that sets the identity when a valid token
// is present but lets anonymous requests through. Invalid tokens are still
// rejected.
func (t *TokenAuthenticator) Optional(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, ok := t.authenticate(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(identity.Set(r.Context(), id)))
	}
}

func (t *TokenAuthenticator) authenticate(w http.ResponseWriter, r *http.Request) (*identity.Identity, bool) {
	authHeader := r.Header.Get("Authorization")

	if len(authHeader) == 0 {
		unauthorized(w, "Authorization missing")
		return nil, false
	}

	tokenMatches := bearerRegex.FindStringSubmatch(authHeader)
	if len(tokenMatches) != 2 {
		unauthorized(w, "Malformed authorization header")
		return nil, false
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenMatches[1], claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		unauthorized(w, "Invalid authorization token")
		return nil, false
	}

	if claims.Subject == "" {
		unauthorized(w, "Token missing subject")
		return nil, false
	}

	id := &identity.Identity{
		UserID: claims.Subject,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		id.WithRemoteIP(net.ParseIP(host))
	}

	return id, true
}

func unauthorized(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(message))
}
