package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gtickets/internal/domain"
)

const principalKey = "principal"

// Authenticator is the boundary to the auth filter in front of the service.
// It turns a request into the authenticated principal or fails.
type Authenticator interface {
	Authenticate(r *http.Request) (domain.Principal, error)
}

// HeaderAuthenticator trusts the identity headers injected by the auth proxy.
// The proxy terminates the JWT; by the time a request reaches this service the
// principal is plain headers.
type HeaderAuthenticator struct{}

func (HeaderAuthenticator) Authenticate(r *http.Request) (domain.Principal, error) {
	p := domain.Principal{
		UID:   r.Header.Get("X-Auth-Uid"),
		Email: r.Header.Get("X-Auth-Email"),
		Role:  r.Header.Get("X-Auth-Role"),
	}
	if p.UID == "" || p.Email == "" {
		return domain.Principal{}, errors.New("missing identity headers")
	}
	return p, nil
}

// AuthRequired rejects unauthenticated requests and stores the principal on
// the request context for the handlers.
func AuthRequired(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := auth.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		c.Set(principalKey, principal)
		c.Next()
	}
}

// RequireManager gates the audit endpoints.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principalFrom(c).IsManager() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "manager role required"})
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) domain.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(domain.Principal); ok {
			return p
		}
	}
	return domain.Principal{}
}
