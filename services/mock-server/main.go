package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stoik/launchwatch/internal/models"
	"github.com/stoik/launchwatch/services/mock-server/internal/mock"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	store := mock.NewStore(8, time.Now())
	r := newRouter(store)

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting launchwatch mock API server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func newRouter(store *mock.Store) *gin.Engine {
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Launch feed, shaped like /json/launches/next/:count
	r.GET("/launches/next/:count", func(c *gin.Context) {
		count, err := strconv.Atoi(c.Param("count"))
		if err != nil || count < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid count"})
			return
		}
		c.JSON(http.StatusOK, models.Feed{Result: store.Upcoming(count, time.Now())})
	})

	// Mailbox endpoints
	r.GET("/mailbox/:address/latest", func(c *gin.Context) {
		msg := store.Latest(c.Param("address"))
		if msg == nil {
			c.Status(http.StatusNoContent)
			return
		}
		c.JSON(http.StatusOK, msg)
	})

	// Admin endpoints for testing
	admin := r.Group("/admin")
	{
		admin.POST("/mail", func(c *gin.Context) {
			var req struct {
				To string `json:"to" binding:"required"`
				models.InboundMessage
			}
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, store.Deliver(req.To, req.InboundMessage))
		})

		admin.POST("/launches/:id/delay", func(c *gin.Context) {
			id, err := strconv.ParseInt(c.Param("id"), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid launch id"})
				return
			}
			minutes, err := strconv.Atoi(c.DefaultQuery("minutes", "120"))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minutes"})
				return
			}
			at, err := store.Delay(id, time.Duration(minutes)*time.Minute)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"id": id, "launch_time": at.UTC().Format(time.RFC3339)})
		})
	}

	return r
}
