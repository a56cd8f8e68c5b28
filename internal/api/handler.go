package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"livelink-telematics-backend/internal/poller"
	"livelink-telematics-backend/internal/store"
	"livelink-telematics-backend/internal/tags"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	tags    *tags.Store
	poller  *poller.Service
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, tagStore *tags.Store, pollSvc *poller.Service, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		tags:    tagStore,
		poller:  pollSvc,
		webpush: webpushOptions,
	}
}
