package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pairline/auth"
)

// Claims carries the caller identity inside a bearer token
type Claims struct {
	UserID   int64 `json:"userId"`
	Elevated bool  `json:"elevated"`
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens and stamps the caller identity
// onto the request context
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an authenticator with the given HMAC secret
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// ParseToken validates a signed token string and returns its claims
func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.UserID == 0 {
		return nil, errors.New("token carries no caller identity")
	}

	return claims, nil
}

// IssueToken signs a token for the given caller. Used by tests and tooling;
// production tokens come from the platform's identity service.
func (a *Authenticator) IssueToken(caller auth.Caller) (string, error) {
	claims := Claims{UserID: caller.UserID, Elevated: caller.Elevated}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// Middleware authenticates the request and rejects it with 401 when no
// valid bearer token is present. Handlers behind it can rely on a caller
// being in the context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := a.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		caller := auth.Caller{UserID: claims.UserID, Elevated: claims.Elevated}
		next.ServeHTTP(w, r.WithContext(auth.WithCaller(r.Context(), caller)))
	})
}
