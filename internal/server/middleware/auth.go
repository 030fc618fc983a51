package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/palmtrack/internal/domain/errs"
	"github.com/mamadbah2/palmtrack/internal/domain/models"
	"github.com/mamadbah2/palmtrack/internal/server/respond"
)

const actorKey = "palmtrack.actor"

// TokenAuthenticator decodes a bearer token into an actor.
type TokenAuthenticator interface {
	Authenticate(token string) (models.Actor, error)
}

// Authenticate attaches the actor of an Authorization bearer token to the
// request. Requests without a usable token continue anonymously; RequireAuth
// and RequireRole decide whether a route needs more.
func Authenticate(auth TokenAuthenticator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			c.Next()
			return
		}
		scheme, raw, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			logger.Debug("malformed authorization header")
			c.Next()
			return
		}

		actor, err := auth.Authenticate(strings.TrimSpace(raw))
		if err != nil {
			logger.Debug("token rejected", zap.Error(err))
			c.Next()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the request's actor, or the anonymous zero value.
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if !ActorFrom(c).Authenticated() {
			respond.Error(c, logger, errs.Unauthorized("authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects actors that do not hold role.
func RequireRole(role models.Role, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.Authenticated() {
			respond.Error(c, logger, errs.Unauthorized("authentication required"))
			return
		}
		if actor.Role != role {
			respond.Error(c, logger, errs.Forbidden("requires %s role", role))
			return
		}
		c.Next()
	}
}
