package websocket

import (
	"net/http"
	"strings"

	"presence-notify/internal/domain"
)

// ErrUnresolvedIdentity rejects a handshake that carries no usable user id.
var ErrUnresolvedIdentity = domain.NewInvalidArgument("UNAUTHORIZED", "user identity could not be resolved")

// IdentityResolver extracts the connecting user's id from the handshake request.
type IdentityResolver interface {
	Resolve(r *http.Request) (string, error)
}

// QueryResolver trusts a user id handshake parameter, as issued by an
// authenticating gateway in front of this service.
type QueryResolver struct {
	Param string
}

func NewQueryResolver() *QueryResolver {
	return &QueryResolver{Param: "userId"}
}

func (q *QueryResolver) Resolve(r *http.Request) (string, error) {
	userID := strings.TrimSpace(r.URL.Query().Get(q.Param))
	if userID == "" {
		return "", ErrUnresolvedIdentity
	}
	return userID, nil
}

// TokenValidator turns an access token into a user id.
type TokenValidator interface {
	ValidateToken(token string) (string, error)
}

// TokenResolver reads an access token from the "token" query parameter or a
// bearer Authorization header.
type TokenResolver struct {
	validator TokenValidator
}

func NewTokenResolver(validator TokenValidator) *TokenResolver {
	return &TokenResolver{validator: validator}
}

func (t *TokenResolver) Resolve(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		if header := r.Header.Get("Authorization"); len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			token = header[7:]
		}
	}
	if token == "" {
		return "", ErrUnresolvedIdentity
	}

	userID, err := t.validator.ValidateToken(token)
	if err != nil || userID == "" {
		return "", ErrUnresolvedIdentity
	}
	return userID, nil
}
