package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/monocle-dev/devboard/internal/apperrors"
	"github.com/monocle-dev/devboard/internal/models"
	"github.com/monocle-dev/devboard/internal/utils"
)

// Authenticator resolves the user behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

func AuthMiddleware(authenticator Authenticator) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")

		if authHeader == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required", "code": "UNAUTHORIZED"})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)

		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "code": "UNAUTHORIZED"})
			return
		}

		user, err := authenticator.Authenticate(ctx.Request.Context(), strings.TrimSpace(parts[1]))

		if err != nil {
			appErr := apperrors.As(err)

			if appErr.Code == apperrors.CodeInternal {
				ctx.Error(err)
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": appErr.Message, "code": appErr.Code})
				return
			}

			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": appErr.Message, "code": apperrors.CodeUnauthorized})
			return
		}

		utils.SetCurrentUser(ctx, user)
		ctx.Next()
	}
}
