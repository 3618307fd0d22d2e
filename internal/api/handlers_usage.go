package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/tripplanner/itinerary-service/internal/api/respond"
)

type UsageLookup interface {
	SumTokens(ctx context.Context, userID string, since time.Time) (int64, error)
}

type UsageHandler struct {
	lookup     UsageLookup
	dailyQuota int64
	log        zerolog.Logger
	now        func() time.Time
}

func NewUsageHandler(lookup UsageLookup, dailyQuota int64, log zerolog.Logger) *UsageHandler {
	return &UsageHandler{lookup: lookup, dailyQuota: dailyQuota, log: log, now: time.Now}
}

type usageResponse struct {
	UserID      string    `json:"userId"`
	Since       time.Time `json:"since"`
	TotalTokens int64     `json:"totalTokens"`
	DailyQuota  int64     `json:"dailyQuota"`
}

// GetUsage handles GET /api/users/{userId}/usage?window=24h
func (h *UsageHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validateUserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	window := 24 * time.Hour
	if v := r.URL.Query().Get("window"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			respond.WriteBadRequest(w, "window must be a positive duration such as 24h")
			return
		}
		window = d
	}
	since := h.now().Add(-window).UTC()
	total, err := h.lookup.SumTokens(r.Context(), userID, since)
	if err != nil {
		h.log.Error().Stack().Err(err).Str("user_id", userID).Msg("Usage lookup failed")
		respond.WriteInternalError(w, "usage lookup failed")
		return
	}
	respond.WriteJSON(w, http.StatusOK, usageResponse{
		UserID:      userID,
		Since:       since,
		TotalTokens: total,
		DailyQuota:  h.dailyQuota,
	})
}
