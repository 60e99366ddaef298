package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	synchub "bookshelf/internal/sync"
)

type Pinger interface {
	PingContext(ctx context.Context) error
}

type FeedStats interface {
	Stats() synchub.Stats
}

// RegisterHealth adds /health (liveness) and /ready (database and feed).
func RegisterHealth(r *gin.Engine, db Pinger, feed FeedStats, dbPath string) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbPath})
	})

	r.GET("/ready", func(c *gin.Context) {
		stats := feed.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})
}
