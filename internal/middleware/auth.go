package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/himilaisan-astr/elts-backend/internal/models"
	appErrors "github.com/himilaisan-astr/elts-backend/pkg/errors"
	"github.com/himilaisan-astr/elts-backend/pkg/response"
)

// ContextUserKey is the gin context key storing the authenticated *models.User.
const ContextUserKey = "currentUser"

// Access is the authorization level a route declares.
type Access int

const (
	// Public routes need no credentials.
	Public Access = iota + 1
	// Authenticated routes need a valid bearer token of an active user.
	Authenticated
	// AdminOnly routes additionally need the admin flag.
	AdminOnly
)

func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case AdminOnly:
		return "admin"
	default:
		return "undeclared"
	}
}

// Gate resolves bearer tokens to users and checks admin rights.
type Gate interface {
	ResolveCurrentUser(ctx context.Context, token string) (*models.User, error)
	RequireAdmin(user *models.User) (*models.User, error)
}

// Authorize enforces level before the handler runs. Undeclared levels are
// rejected so a route can never be exposed by omission.
func Authorize(gate Gate, level Access) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch level {
		case Public:
			c.Next()
			return
		case Authenticated, AdminOnly:
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "route has no access declaration"))
			c.Abort()
			return
		}

		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := gate.ResolveCurrentUser(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		if level == AdminOnly {
			if user, err = gate.RequireAdmin(user); err != nil {
				response.Error(c, err)
				c.Abort()
				return
			}
		}

		c.Set(ContextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user stored by Authorize, if any.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
