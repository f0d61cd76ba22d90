// Package auth verifies HS256 bearer tokens and turns them into an
// access.Caller. Token issuance belongs to the identity provider; Sign
// exists for cmd/devtoken and tests.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/access"
	"github.com/ariefcatur/go-restaurant-api.git/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the numeric user id in "sub".
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func New(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
}

// Sign mints a token for userID; ttl <= 0 means no expiry.
func (a *Authenticator) Sign(userID int64, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  strconv.FormatInt(userID, 10),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) Verify(tokenStr string) (*access.Caller, error) {
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: invalid subject", apperr.ErrUnauthenticated)
	}
	return access.NewCaller(id, claims.Username), nil
}

// Middleware rejects requests without a valid bearer token through onErr
// and otherwise stores the caller in the request context.
func (a *Authenticator) Middleware(onErr func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := bearerToken(r)
			if err != nil {
				onErr(w, r, err)
				return
			}
			c, err := a.Verify(tokenStr)
			if err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(access.WithCaller(r.Context(), c)))
		})
	}
}

var errNoToken = errors.New("authentication credentials were not provided")

func bearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, errNoToken)
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: invalid authorization header", apperr.ErrUnauthenticated)
	}
	return strings.TrimSpace(parts[1]), nil
}
