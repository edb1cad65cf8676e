package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GEAN1412/voxvideo-studio/session"
)

const SessionKey = "session"

// Auth verifies the session token on each request and stores the resolved
// session in the context. The browser EventSource API cannot set headers, so
// SSE requests carry the token as a query parameter instead.
func Auth(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c.Request)
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid token"})
			c.Abort()
			return
		}

		claims, err := sessions.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: " + err.Error()})
			c.Abort()
			return
		}

		c.Set(SessionKey, sessions.SessionFor(claims.Email))
		c.Next()
	}
}

// AdminRequired gates the admin surface on the designated admin identity.
func AdminRequired(c *gin.Context) {
	sess, ok := CurrentSession(c)
	if !ok || !sess.Admin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
		c.Abort()
		return
	}
	c.Next()
}

// CurrentSession pulls the authenticated session out of the request context.
func CurrentSession(c *gin.Context) (session.Session, bool) {
	v, exists := c.Get(SessionKey)
	if !exists {
		return session.Session{}, false
	}
	sess, ok := v.(session.Session)
	return sess, ok
}

func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}

	return parts[1]
}
