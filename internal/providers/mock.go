package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tripplanner/itinerary-service/internal/model"
)

const MockName = "mock"

var durationRx = regexp.MustCompile(`- Duration: (\d+) days?`)

// Mock returns a canned itinerary sized to the requested day count. It is
// only registered when configured as a provider.
type Mock struct{}

func NewMock() *Mock { return &Mock{} }

func (m *Mock) Name() string { return MockName }

func (m *Mock) Call(ctx context.Context, systemPrompt, userMessage string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(MockName, KindCallFailed, err)
	}
	days := 1
	if mm := durationRx.FindStringSubmatch(userMessage); mm != nil {
		if n, err := strconv.Atoi(mm[1]); err == nil && n > 0 {
			days = n
		}
	}
	out := model.ItineraryOutput{}
	for d := 1; d <= days; d++ {
		out.Itinerary = append(out.Itinerary, model.DayItinerary{
			Day:   d,
			Title: fmt.Sprintf("Day %d", d),
			Activities: []model.Activity{{
				Time:        "09:00 AM",
				Name:        "Morning walk",
				Description: "Explore the neighbourhood around your accommodation.",
				Location:    "City centre",
				Cost:        0,
				Duration:    "2 hours",
			}},
			EstimatedCost: 0,
			Tips:          []string{"Carry water."},
		})
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, newError(MockName, KindCallFailed, err)
	}
	return &Response{
		Content:      string(b),
		InputTokens:  int64(len(systemPrompt)+len(userMessage)) / 4,
		OutputTokens: int64(len(b)) / 4,
		Provider:     MockName,
		Model:        MockName,
	}, nil
}
