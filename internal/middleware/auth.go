package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/hospitalward/ward-api/internal/handler"
	"github.com/hospitalward/ward-api/internal/model"
	"github.com/hospitalward/ward-api/internal/repository"
	"github.com/hospitalward/ward-api/internal/service/auth"
)

const contextActor = "actor"

var errInactiveAccount = errors.New("account is inactive")

// actorTTL bounds how long a role or activation change can lag behind
// on already issued tokens.
const actorTTL = 30 * time.Second

type AuthMiddleware struct {
	auth   *auth.Service
	users  repository.UserRepository
	actors *gocache.Cache
}

func NewAuthMiddleware(authSvc *auth.Service, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		auth:   authSvc,
		users:  users,
		actors: gocache.New(actorTTL, 2*actorTTL),
	}
}

// Authenticate verifies the bearer token and resolves the acting
// identity, including current role membership, into the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		userID, err := m.auth.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		actor, err := m.resolveActor(c, userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("account not found or inactive"))
			c.Abort()
			return
		}

		c.Set(contextActor, actor)
		c.Next()
	}
}

// RequireSuperuser gates routes reserved for superuser accounts.
func (m *AuthMiddleware) RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok || !actor.IsSuperuser {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("superuser access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) resolveActor(c *gin.Context, userID uuid.UUID) (model.Actor, error) {
	key := userID.String()
	if cached, found := m.actors.Get(key); found {
		return cached.(model.Actor), nil
	}

	user, err := m.users.Get(c.Request.Context(), userID)
	if err != nil {
		return model.Actor{}, err
	}
	if !user.IsActive {
		return model.Actor{}, errInactiveAccount
	}

	actor := model.ActorFor(user)
	m.actors.Set(key, actor, gocache.DefaultExpiration)
	return actor, nil
}

// GetActor returns the authenticated actor set by Authenticate.
func GetActor(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(contextActor)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
