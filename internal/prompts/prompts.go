// Package prompts renders the text sent to model backends.
package prompts

import (
	"fmt"
	"strings"

	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/schema"
)

const (
	contextOpen  = "--- Verified context (use only this information; do not invent details not stated here) ---"
	contextClose = "--- End of verified context ---"

	// RetrySeparator sits between the original user message and a correction.
	RetrySeparator = "\n\n---\n\n"
)

const systemPrompt = `You are an expert travel planner. You only use verified information from the context below or from tool results. Do not invent addresses, opening hours, or exact prices unless they were provided in the context or by a tool.

Output rules:
- Respond with exactly one JSON object matching the provided schema.
- No markdown, no code fences, no extra text before or after the JSON.
- Budget is in USD; the total estimated cost must not exceed the user's budget.
- Respect the number of days and travel style (budget = low-cost, moderate = mid-range, luxury = high-end).
- If context does not contain enough detail for a specific activity, describe it in general terms and do not fabricate names, times, or prices.`

// SystemPrompt returns the fixed instruction block, followed by the output shape.
func SystemPrompt() string {
	return systemPrompt + "\n\n" + schema.JSONSpec
}

// BuildUserMessage renders the optional verified-context block, the trip
// details and the output shape, separated by blank lines.
func BuildUserMessage(req model.TripRequest, ragContext string) string {
	parts := make([]string, 0, 5)
	if c := strings.TrimSpace(ragContext); c != "" {
		parts = append(parts, contextOpen, c, contextClose)
	}
	parts = append(parts, tripBlock(req), schema.JSONSpec)
	return strings.Join(parts, "\n\n")
}

func tripBlock(req model.TripRequest) string {
	budget := formatUSD(req.Budget)
	var b strings.Builder
	b.WriteString("Trip details:\n")
	fmt.Fprintf(&b, "- Destination: %s\n", req.Destination)
	fmt.Fprintf(&b, "- Duration: %d days\n", req.TravelDays)
	fmt.Fprintf(&b, "- Budget: $%s USD total (do not suggest a total cost above this)\n", budget)
	fmt.Fprintf(&b, "- Travel style: %s\n", req.TravelStyle)
	fmt.Fprintf(&b, "- Interests: %s\n", strings.Join(req.Interests, ", "))
	b.WriteString("\nRequirements:\n")
	b.WriteString("1. Create a day-by-day itinerary with specific activities.\n")
	b.WriteString("2. Include time slots, locations, and descriptions for each activity.\n")
	b.WriteString("3. Estimate costs for each activity (accommodation, food, activities, transport).\n")
	b.WriteString("4. Provide daily estimated costs.\n")
	b.WriteString("5. Include practical travel tips for each day.\n")
	fmt.Fprintf(&b, "6. Total estimated cost must be at or below $%s USD.\n", budget)
	b.WriteString("7. Match activities to the interests and travel style.")
	return b.String()
}

// formatUSD drops a trailing ".00" so whole budgets read naturally.
func formatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	return strings.TrimSuffix(s, ".00")
}

// BuildRetryMessage embeds the validator's error text in a correction request.
func BuildRetryMessage(validationError string) string {
	return "Your previous response had validation errors. Please return valid JSON only.\nErrors: " + validationError
}

// AppendRetry joins a correction onto the original user message. Callers
// always pass the first-attempt message so retries never accumulate.
func AppendRetry(userMessage, retry string) string {
	return userMessage + RetrySeparator + retry
}
