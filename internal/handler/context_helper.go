package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sis-portal/internal/middleware"
	"github.com/noah-isme/sis-portal/internal/models"
	appErrors "github.com/noah-isme/sis-portal/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// subjectID resolves whose data a request targets. Students are pinned to themselves;
// other roles may name a subject through the query parameter.
func subjectID(c *gin.Context, claims *models.JWTClaims, param string, role models.UserRole) (string, error) {
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if claims.Role == role {
		return claims.UserID, nil
	}
	if claims.Role == models.RoleAdmin || (claims.Role == models.RoleTeacher && role == models.RoleStudent) {
		if id := c.Query(param); id != "" {
			return id, nil
		}
		return "", appErrors.Clone(appErrors.ErrValidation, param+" is required")
	}
	return "", appErrors.ErrForbidden
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, key+" must be an integer")
	}
	return v, nil
}
