package server

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs method, path, status and latency for every request.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		if status >= 400 {
			log.Printf("server: %s %s | status=%d | latency=%v | ip=%s",
				c.Request.Method, c.Request.URL.Path, status, latency, c.ClientIP())
			return
		}
		log.Printf("server: %s %s | status=%d | latency=%v",
			c.Request.Method, c.Request.URL.Path, status, latency)
	}
}
