package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/scheduling-engine/utils"
)

// TenantMiddleware membaca token yang diterbitkan platform host dan
// menaruh konteks (org, restaurant, actor, role) ke gin context. Engine
// tidak pernah meng-autentikasi sendiri; ia menerima konteks yang sudah
// di-otorisasi lalu memvalidasi ulang scope di layer service.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token tidak ditemukan"))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(token, "Bearer ")
		claims, err := utils.ParseTenantToken(tokenString)
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		if claims.OrgID == 0 || claims.RestaurantID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid tenant context in token"))
			c.Abort()
			return
		}

		c.Set("org_id", claims.OrgID)
		c.Set("restaurant_id", claims.RestaurantID)
		c.Set("actor_id", claims.ActorID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole membatasi endpoint staff ke role tertentu; admin selalu
// lolos.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("role")
		if !exists {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("unauthorized"))
			c.Abort()
			return
		}
		if userRole == "admin" {
			c.Next()
			return
		}
		for _, role := range roles {
			if userRole == role {
				c.Next()
				return
			}
		}
		utils.RespondError(c, http.StatusForbidden, errors.New("insufficient role"))
		c.Abort()
	}
}
