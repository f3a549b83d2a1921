package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const adminRole = "admin"

// AdminOnly requires an HS256 bearer token carrying role=admin. An empty
// secret disables the check for local runs.
func AdminOnly(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "missing bearer token", Code: "unauthorized"})
			return
		}

		token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid or expired token", Code: "unauthorized"})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "invalid token claims", Code: "unauthorized"})
			return
		}
		if role, _ := claims["role"].(string); role != adminRole {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admins only", Code: "forbidden"})
			return
		}
		if sub, err := claims.GetSubject(); err == nil {
			c.Set("admin_subject", sub)
		}
		c.Next()
	}
}
