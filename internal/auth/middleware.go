package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// SubjectKey is the gin context key holding the authenticated subject.
const SubjectKey = "authSubject"

// BearerMiddleware rejects requests without a valid bearer token. A nil
// verifier lets every request through.
func BearerMiddleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			c.Next()
			return
		}
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		subject, err := v.Verify(strings.TrimSpace(authz[7:]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(SubjectKey, subject)
		c.Next()
	}
}
