package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/api/respond"
	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/orchestrator"
	"github.com/tripplanner/itinerary-service/internal/ratelimit"
)

// RequestIDHeader lets callers correlate a generation with their own logs.
const RequestIDHeader = "X-Request-ID"

type Generator interface {
	Generate(ctx context.Context, userID string, req model.TripRequest, opts orchestrator.Options) (*orchestrator.Result, error)
}

type ItineraryHandler struct {
	gen Generator
	log zerolog.Logger
}

func NewItineraryHandler(gen Generator, log zerolog.Logger) *ItineraryHandler {
	return &ItineraryHandler{gen: gen, log: log}
}

type generateRequest struct {
	model.TripRequest
	EnableRetrieval *bool  `json:"enable_retrieval,omitempty"`
	RequestID       string `json:"request_id,omitempty"`
}

type generateResponse struct {
	Success bool `json:"success"`
	*orchestrator.Result
}

// CreateItinerary handles POST /api/users/{userId}/itineraries
func (h *ItineraryHandler) CreateItinerary(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validateUserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var in generateRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := in.TripRequest.Validate(); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	requestID := in.RequestID
	if requestID == "" {
		requestID = r.Header.Get(RequestIDHeader)
	}

	res, err := h.gen.Generate(r.Context(), userID, in.TripRequest, orchestrator.Options{
		EnableRetrieval: in.EnableRetrieval,
		RequestID:       requestID,
	})
	if err != nil {
		h.writeGenerateError(w, err)
		return
	}
	w.Header().Set(RequestIDHeader, res.RequestID)
	respond.WriteJSON(w, http.StatusOK, generateResponse{Success: true, Result: res})
}

func (h *ItineraryHandler) writeGenerateError(w http.ResponseWriter, err error) {
	var oe *orchestrator.Error
	switch {
	case errors.As(err, &oe):
		status := http.StatusBadGateway
		switch oe.Code {
		case orchestrator.CodeRateLimit:
			status = http.StatusTooManyRequests
			if oe.RetryAfter > 0 {
				secs := ratelimit.Decision{RetryAfter: oe.RetryAfter}.RetryAfterSeconds()
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
		case orchestrator.CodeQuota:
			status = http.StatusTooManyRequests
		}
		respond.WriteError(w, status, string(oe.Code), oe.Message)
	case model.IsValidationError(err):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		respond.WriteError(w, http.StatusServiceUnavailable, "CANCELED", "request canceled")
	default:
		h.log.Error().Stack().Err(err).Msg("Unexpected generation failure")
		respond.WriteInternalError(w, "internal error")
	}
}
