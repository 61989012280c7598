// internal/middleware/auth.go
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/shop-backend/internal/i18n"
	"github.com/javajoker/shop-backend/internal/models"
	"github.com/javajoker/shop-backend/internal/utils"
)

// bearerToken reads the access token from the Authorization header and
// falls back to the session cookie set at login.
func bearerToken(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookieName == "" {
		return ""
	}
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// UserLookup loads the account a token was issued to. Deleted accounts
// are reported as not found.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// AuthRequired trusts the token only for the user id; name and role come
// from the stored account so role changes and deletions apply at once.
func AuthRequired(tokens *utils.TokenManager, users UserLookup, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c, cookieName)
		if token == "" {
			utils.AbortWithError(c, utils.Unauthorized(i18n.KeyAuthRequired))
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			utils.AbortWithError(c, utils.Unauthorized(i18n.KeyAuthInvalidToken))
			return
		}

		user, err := users.GetUser(c.Request.Context(), claims.UserID)
		if err != nil {
			if utils.IsKind(err, utils.KindNotFound) || utils.IsKind(err, utils.KindValidation) {
				err = utils.Unauthorized(i18n.KeyAuthInvalidToken)
			}
			utils.AbortWithError(c, err)
			return
		}

		c.Set("user_id", user.ID.String())
		c.Set("user_name", user.Name)
		c.Set("user_role", string(user.Role))
		c.Next()
	}
}

// AuthorizeRoles must run after AuthRequired.
func AuthorizeRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		for _, allowed := range roles {
			if role == string(allowed) {
				c.Next()
				return
			}
		}
		utils.AbortWithError(c, utils.Forbidden(i18n.KeyAuthRoleForbidden, role))
	}
}

func AdminRequired() gin.HandlerFunc {
	return AuthorizeRoles(models.RoleAdmin)
}
