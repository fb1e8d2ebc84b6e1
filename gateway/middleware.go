package gateway

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

const (
	ctxUserID    = "user_id"
	ctxEmail     = "email"
	ctxCompanyID = "company_id"
)

// AuthMiddleware is a JWT authorization middleware. It accepts the bearer
// token either bare or with the "Bearer " prefix, the way the SPA sends it.
func (j *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "empty header was sent", "code": "unauthorized"})
			return
		}
		h = strings.TrimPrefix(h, "Bearer ")

		claims, err := j.VerifyJWT(h)
		if e, ok := err.(*jwt.ValidationError); ok {
			if e.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has expired", "code": "jwt_expired"})
			} else {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Malformed token", "code": "jwt_malformed"})
			}
			return
		} else if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Malformed token", "code": "jwt_malformed"})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxEmail, claims.Email)
		c.Set(ctxCompanyID, claims.CompanyID)
		c.Next()
	}
}

func UserIDFromCtx(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func EmailFromCtx(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

func CompanyIDFromCtx(c *gin.Context) string {
	return c.GetString(ctxCompanyID)
}
