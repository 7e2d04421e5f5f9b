package middleware

import (
	"github.com/gin-gonic/gin"
)

// NoStore keeps pages that show account data out of browser and proxy caches,
// so the back button cannot bring /home back after logout.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}
