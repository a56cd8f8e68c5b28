package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"livelink-telematics-backend/config"
	"livelink-telematics-backend/internal/mw"
	"livelink-telematics-backend/internal/poller"
	"livelink-telematics-backend/internal/store"
	"livelink-telematics-backend/internal/tags"
)

// NewRouter creates and configures a new Gin router over the tag store, the
// poller and the subscription store.
func NewRouter(s store.Store, tagStore *tags.Store, pollSvc *poller.Service, webpushOptions *webpush.Options, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(s, tagStore, pollSvc, webpushOptions)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/tags", caching, handler.GetTags)
		api.GET("/tags/:name", handler.GetTag)
		api.GET("/machines", caching, handler.GetMachines)

		api.POST("/refresh", handler.PostRefresh)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
