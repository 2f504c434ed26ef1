package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	apierr "github.com/opst/mlconsole/pkg/api/types/errors"
)

var ErrNoBearer = errors.New("no bearer token")

// BearerAuth rejects requests without a HS256 token signed with secret.
//
// Preflight requests (OPTIONS) pass through.
func BearerAuth(secret []byte) echo.MiddlewareFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyfunc := func(*jwt.Token) (any, error) { return secret, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodOptions {
				return next(c)
			}

			auth := req.Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || token == "" {
				return apierr.Unauthorized("send Authorization: Bearer <token>", ErrNoBearer)
			}
			claims := jwt.RegisteredClaims{}
			if _, err := parser.ParseWithClaims(token, &claims, keyfunc); err != nil {
				return apierr.Unauthorized("token is invalid or expired", err)
			}
			c.Set("subject", claims.Subject)
			return next(c)
		}
	}
}

// MintToken issues a HS256 token for subject, valid for ttl.
func MintToken(secret []byte, subject string, now time.Time, ttl time.Duration) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}).SignedString(secret)
}
