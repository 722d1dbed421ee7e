package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/muzz-match/internal/auth"
)

// KeyUserID is the gin context key holding the verified requester id.
const KeyUserID = "userId"

// AuthJWT requires a valid bearer token and exposes its subject both on the
// gin context and on the request context.
func AuthJWT(j *auth.JWTer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := auth.BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "missing token"})
			return
		}
		claims, err := j.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set(KeyUserID, claims.UID)
		c.Request = c.Request.WithContext(auth.WithUserID(c.Request.Context(), claims.UID))
		c.Next()
	}
}

// UserID returns the requester id set by AuthJWT.
func UserID(c *gin.Context) string {
	return c.GetString(KeyUserID)
}
