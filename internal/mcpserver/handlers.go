// Package mcpserver exposes the itinerary service as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/tripplanner/itinerary-service/internal/client"
	"github.com/tripplanner/itinerary-service/internal/model"
)

// Backend is the subset of the service client the tools need.
type Backend interface {
	Generate(ctx context.Context, userID string, req client.GenerateRequest) (*client.GenerateResponse, error)
	Usage(ctx context.Context, userID string, window time.Duration) (*client.Usage, error)
}

// TripHandler serves the plan_trip and token_usage tools.
type TripHandler struct {
	backend Backend
}

func NewTripHandler(b Backend) *TripHandler {
	return &TripHandler{backend: b}
}

func (h *TripHandler) RegisterTools(s *server.MCPServer) error {
	planTool := mcp.NewTool("plan_trip",
		mcp.WithDescription("Generate a day-by-day travel itinerary with activities, costs and tips. Costs are in USD."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Caller identity used for rate limiting and token accounting")),
		mcp.WithString("destination", mcp.Required(), mcp.Description("City or region to visit")),
		mcp.WithNumber("travel_days", mcp.Required(), mcp.Description(fmt.Sprintf("Trip length in days (1-%d)", model.MaxTravelDays))),
		mcp.WithNumber("budget", mcp.Required(), mcp.Description("Total budget in USD")),
		mcp.WithString("travel_style", mcp.Required(), mcp.Enum("budget", "moderate", "luxury"), mcp.Description("Spending tier")),
		mcp.WithString("interests", mcp.Description("Comma-separated interests, e.g. food,history")),
		mcp.WithBoolean("enable_retrieval", mcp.Description("Ground the plan in indexed destination knowledge")),
	)
	s.AddTool(planTool, h.handlePlanTrip)

	usageTool := mcp.NewTool("token_usage",
		mcp.WithDescription("Report the tokens a user consumed within a trailing window and the daily quota."),
		mcp.WithString("user_id", mcp.Required(), mcp.Description("Caller identity")),
		mcp.WithString("window", mcp.Description("Go duration such as 24h or 90m (default 24h)")),
	)
	s.AddTool(usageTool, h.handleTokenUsage)
	return nil
}

func (h *TripHandler) handlePlanTrip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destination, err := req.RequireString("destination")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	style, err := req.RequireString("travel_style")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := req.GetArguments()
	days, ok := number(args["travel_days"])
	if !ok {
		return mcp.NewToolResultError("travel_days must be a number"), nil
	}
	if days < 1 || days > model.MaxTravelDays || days != float64(int(days)) {
		return mcp.NewToolResultError(fmt.Sprintf("travel_days must be a whole number between 1 and %d", model.MaxTravelDays)), nil
	}
	budget, ok := number(args["budget"])
	if !ok {
		return mcp.NewToolResultError("budget must be a number"), nil
	}

	gr := client.GenerateRequest{
		TripRequest: model.TripRequest{
			Destination: destination,
			TravelDays:  int(days),
			Budget:      budget,
			TravelStyle: model.TravelStyle(style),
			Interests:   splitInterests(args["interests"]),
		},
	}
	if v, ok := args["enable_retrieval"].(bool); ok {
		gr.EnableRetrieval = &v
	}

	log.Debug().Str("user_id", userID).Str("destination", destination).Int("travel_days", gr.TravelDays).Msg("plan_trip")
	resp, err := h.backend.Generate(ctx, userID, gr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("plan_trip failed: %v", err)), nil
	}
	b, _ := json.MarshalIndent(resp, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func (h *TripHandler) handleTokenUsage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var window time.Duration
	if raw, ok := req.GetArguments()["window"].(string); ok && raw != "" {
		window, err = time.ParseDuration(raw)
		if err != nil || window <= 0 {
			return mcp.NewToolResultError(fmt.Sprintf("invalid window %q", raw)), nil
		}
	}
	u, err := h.backend.Usage(ctx, userID, window)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("token_usage failed: %v", err)), nil
	}
	b, _ := json.MarshalIndent(u, "", "  ")
	return mcp.NewToolResultText(string(b)), nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func splitInterests(v interface{}) []string {
	out := []string{}
	switch x := v.(type) {
	case string:
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case []interface{}:
		for _, e := range x {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
