package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/pawsitter/backend/internal/domain"
	"github.com/pawsitter/backend/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	userCtx             = "userId"
	roleCtx             = "userRole"
)

func (h *Handler) userIdentityMiddleware(c *gin.Context) {
	claims, err := h.parseAuthHeader(c)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			h.log.Warn("parse auth header failed", zap.Error(err), zap.String("ip", c.ClientIP()))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, getErrorStruct(UnauthorizedCode))
		return
	}

	id, err := claims.UserID()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, getErrorStruct(UnauthorizedCode))
		return
	}

	c.Set(userCtx, id)
	c.Set(roleCtx, claims.Role)
}

// adminOnly must run after userIdentityMiddleware.
func (h *Handler) adminOnly(c *gin.Context) {
	role, _ := c.Get(roleCtx)
	if role != domain.UserRoleAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, getErrorStruct(ForbiddenCode))
		return
	}
}

func (h *Handler) parseAuthHeader(c *gin.Context) (*auth.Claims, error) {
	header := c.GetHeader(authorizationHeader)
	if header == "" {
		return nil, errors.New("empty auth header")
	}

	headerParts := strings.Split(header, " ")
	if len(headerParts) != 2 || headerParts[0] != "Bearer" {
		return nil, errors.New("invalid auth header")
	}

	if len(headerParts[1]) == 0 {
		return nil, errors.New("token is empty")
	}

	return h.tokenManager.Parse(headerParts[1])
}

func (h *Handler) getUserUUID(c *gin.Context) (uuid.UUID, error) {
	id, ok := c.Get(userCtx)
	if !ok {
		return uuid.Nil, errors.New("user id not found")
	}

	userID, ok := id.(uuid.UUID)
	if !ok {
		return uuid.Nil, errors.New("user id has unexpected type")
	}

	return userID, nil
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, getErrorStruct(InvalidIDCode))
		return uuid.Nil, false
	}
	return id, true
}
