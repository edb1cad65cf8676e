package middleware

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Cors restricts browsers to the configured frontend origin. With no origin
// configured (local development) everything is allowed.
func Cors() gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowHeaders = append(config.AllowHeaders, "Authorization")

	if origin := os.Getenv("FRONTEND_ORIGIN"); origin != "" {
		config.AllowOrigins = []string{origin}
		config.AllowCredentials = true
	} else {
		config.AllowAllOrigins = true
	}

	return cors.New(config)
}
