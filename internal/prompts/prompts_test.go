package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripplanner/itinerary-service/internal/model"
	"github.com/tripplanner/itinerary-service/internal/schema"
)

func lisbon() model.TripRequest {
	return model.TripRequest{
		Destination: "Lisbon",
		TravelDays:  3,
		Budget:      1200,
		TravelStyle: model.StyleModerate,
		Interests:   []string{"food", "history"},
	}
}

func TestSystemPrompt(t *testing.T) {
	p := SystemPrompt()
	assert.Contains(t, p, "expert travel planner")
	assert.Contains(t, p, "Do not invent addresses, opening hours, or exact prices")
	assert.Contains(t, p, "exactly one JSON object")
	assert.True(t, strings.HasSuffix(p, schema.JSONSpec))
}

func TestBuildUserMessage_NoContext(t *testing.T) {
	for _, ctx := range []string{"", "   \n\t "} {
		msg := BuildUserMessage(lisbon(), ctx)
		assert.NotContains(t, msg, "Verified context")
		assert.True(t, strings.HasPrefix(msg, "Trip details:"))
		assert.True(t, strings.HasSuffix(msg, schema.JSONSpec))
	}
}

func TestBuildUserMessage_TripDetails(t *testing.T) {
	msg := BuildUserMessage(lisbon(), "")
	assert.Contains(t, msg, "- Destination: Lisbon\n")
	assert.Contains(t, msg, "- Duration: 3 days\n")
	assert.Contains(t, msg, "- Budget: $1200 USD total")
	assert.Contains(t, msg, "- Travel style: moderate\n")
	assert.Contains(t, msg, "- Interests: food, history\n")
	assert.Contains(t, msg, "6. Total estimated cost must be at or below $1200 USD.")
}

func TestBuildUserMessage_FractionalBudget(t *testing.T) {
	req := lisbon()
	req.Budget = 99.5
	assert.Contains(t, BuildUserMessage(req, ""), "$99.50 USD")
}

func TestBuildUserMessage_WithContext(t *testing.T) {
	msg := BuildUserMessage(lisbon(), "  [city]\nLisbon is hilly.  ")
	parts := strings.SplitN(msg, "\n\n", 4)
	require.Len(t, parts, 4)
	assert.Equal(t, contextOpen, parts[0])
	assert.Equal(t, "[city]\nLisbon is hilly.", parts[1])
	assert.Equal(t, contextClose, parts[2])
	assert.True(t, strings.HasPrefix(parts[3], "Trip details:"))
}

func TestRetry(t *testing.T) {
	orig := BuildUserMessage(lisbon(), "")
	retry := BuildRetryMessage("itinerary.0.title: string must contain at least 1 character(s)")
	assert.Equal(t, "Your previous response had validation errors. Please return valid JSON only.\nErrors: itinerary.0.title: string must contain at least 1 character(s)", retry)

	got := AppendRetry(orig, retry)
	assert.True(t, strings.HasPrefix(got, orig))
	assert.Equal(t, orig+"\n\n---\n\n"+retry, got)
}
