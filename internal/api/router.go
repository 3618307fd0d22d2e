package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups everything the router serves. Nil handlers are not routed.
type Handlers struct {
	Itinerary *ItineraryHandler
	Usage     *UsageHandler
	Knowledge *KnowledgeHandler
	Health    *HealthHandler
	Metrics   http.Handler
}

// NewRouter wires HTTP routes to handlers.
func NewRouter(h Handlers, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(Recover(log))

	if h.Itinerary != nil {
		root.HandleFunc("/api/users/{userId}/itineraries", h.Itinerary.CreateItinerary).Methods("POST")
	}
	if h.Usage != nil {
		root.HandleFunc("/api/users/{userId}/usage", h.Usage.GetUsage).Methods("GET")
	}
	if h.Knowledge != nil {
		root.HandleFunc("/api/knowledge", h.Knowledge.IndexChunk).Methods("POST")
	}
	if h.Health != nil {
		root.HandleFunc("/api/health", h.Health.CheckHealth).Methods("GET")
	}
	if h.Metrics != nil {
		root.Handle("/metrics", h.Metrics).Methods("GET")
	}
	return root
}
