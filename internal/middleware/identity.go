package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/clubhouse/internal/auditctx"
	apperrors "github.com/charlesng35/clubhouse/pkg/errors"
	"github.com/charlesng35/clubhouse/pkg/response"
)

const (
	CtxUserIDKey     = "userID"
	CtxMembershipKey = "membership"
	CtxRequestIDKey  = "requestID"

	// DefaultUserHeader carries the user id asserted by the upstream auth proxy.
	DefaultUserHeader = "X-User-ID"
)

// ErrNoIdentity is returned by an Authenticator when the request carries no user.
var ErrNoIdentity = errors.New("no authenticated user")

// Authenticator extracts the authenticated user id from a request.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// HeaderAuthenticator trusts a user id header set by a fronting proxy.
type HeaderAuthenticator struct {
	Header string
}

// Authenticate returns the trimmed header value.
func (h HeaderAuthenticator) Authenticate(r *http.Request) (string, error) {
	header := h.Header
	if header == "" {
		header = DefaultUserHeader
	}
	userID := strings.TrimSpace(r.Header.Get(header))
	if userID == "" {
		return "", ErrNoIdentity
	}
	return userID, nil
}

// Auth rejects requests without an identity and propagates the user id into
// the gin and request contexts.
func Auth(authn Authenticator) gin.HandlerFunc {
	if authn == nil {
		authn = HeaderAuthenticator{}
	}
	return func(c *gin.Context) {
		userID, err := authn.Authenticate(c.Request)
		if err != nil || userID == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(CtxUserIDKey, userID)
		ctx := auditctx.WithActor(c.Request.Context(), auditctx.Actor{
			UserID:    userID,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// UserID returns the authenticated user id, if any.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
