package model

import (
	"encoding/json"
	"time"
)

// TravelStyle is the spending tier requested for a trip.
type TravelStyle string

const (
	StyleBudget   TravelStyle = "budget"
	StyleModerate TravelStyle = "moderate"
	StyleLuxury   TravelStyle = "luxury"
)

// Valid reports whether s is one of the known tiers.
func (s TravelStyle) Valid() bool {
	switch s {
	case StyleBudget, StyleModerate, StyleLuxury:
		return true
	}
	return false
}

// TripRequest is the caller's structured input for one generation.
type TripRequest struct {
	Destination string      `json:"destination"`
	TravelDays  int         `json:"travel_days"`
	Budget      float64     `json:"budget"`
	TravelStyle TravelStyle `json:"travel_style"`
	Interests   []string    `json:"interests"`
}

// Activity is a single scheduled item inside a day.
type Activity struct {
	Time        string  `json:"time"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Location    string  `json:"location"`
	Cost        float64 `json:"cost"`
	Duration    string  `json:"duration"`
}

// DayItinerary is one day of the plan.
type DayItinerary struct {
	Day           int        `json:"day"`
	Title         string     `json:"title"`
	Activities    []Activity `json:"activities"`
	EstimatedCost float64    `json:"estimated_cost"`
	Tips          []string   `json:"tips"`
}

// ItineraryOutput is the contract between model output and the rest of the system.
type ItineraryOutput struct {
	Itinerary          []DayItinerary `json:"itinerary"`
	TotalEstimatedCost float64        `json:"total_estimated_cost"`
}

// ContentType tags a retrieved knowledge chunk.
type ContentType string

const (
	ContentCity             ContentType = "city"
	ContentAttraction       ContentType = "attraction"
	ContentVisaRule         ContentType = "visa_rule"
	ContentItinerarySummary ContentType = "itinerary_summary"
)

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	switch c {
	case ContentCity, ContentAttraction, ContentVisaRule, ContentItinerarySummary:
		return true
	}
	return false
}

// RetrievedChunk is a ranked result from the semantic index.
type RetrievedChunk struct {
	ID          string                 `json:"id"`
	ContentType ContentType            `json:"content_type"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// UsageRecord is one append-only token accounting row. ID identifies the
// row across write retries; stores ignore a second insert with the same ID.
type UsageRecord struct {
	ID           string    `json:"id,omitempty"`
	UserID       string    `json:"userId"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	InputTokens  int64     `json:"inputTokens"`
	OutputTokens int64     `json:"outputTokens"`
	RequestID    string    `json:"requestId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TotalTokens returns input plus output tokens.
func (r UsageRecord) TotalTokens() int64 { return r.InputTokens + r.OutputTokens }

// MarshalJSON always renders tips as an array so the output re-validates.
func (d DayItinerary) MarshalJSON() ([]byte, error) {
	type alias DayItinerary
	a := alias(d)
	if a.Tips == nil {
		a.Tips = []string{}
	}
	return json.Marshal(a)
}
