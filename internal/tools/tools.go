// Package tools holds the function-calling catalog offered to chat models
// and deterministic handlers for each tool.
package tools

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	GetWeather       = "get_weather"
	CurrencyConvert  = "currency_convert"
	BudgetCalculator = "budget_calculator"
	GetDistance      = "get_distance"
)

// Definition describes one callable tool as a JSON-schema object.
type Definition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}

func object(required []string, props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func prop(typ, desc string) map[string]interface{} {
	return map[string]interface{}{"type": typ, "description": desc}
}

// Catalog returns every tool in a stable order.
func Catalog() []Definition {
	return []Definition{
		{
			Name:        GetWeather,
			Description: "Get weather forecast for a city on a given date. Use when suggesting outdoor activities or packing.",
			Parameters: object([]string{"city", "date"}, map[string]interface{}{
				"city": prop("string", "City name"),
				"date": prop("string", "ISO date YYYY-MM-DD"),
			}),
		},
		{
			Name:        CurrencyConvert,
			Description: "Convert amount between currencies (e.g. USD to EUR).",
			Parameters: object([]string{"amount", "from_currency", "to_currency"}, map[string]interface{}{
				"amount":        prop("number", "Amount to convert"),
				"from_currency": prop("string", "e.g. USD"),
				"to_currency":   prop("string", "e.g. EUR"),
			}),
		},
		{
			Name:        BudgetCalculator,
			Description: "Allocate a total budget across days or categories (accommodation, food, activities, transport).",
			Parameters: object([]string{"total_budget", "days"}, map[string]interface{}{
				"total_budget": prop("number", "Total budget in USD"),
				"days":         prop("number", "Number of days"),
				"style": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"budget", "moderate", "luxury"},
					"description": "Travel style",
				},
			}),
		},
		{
			Name:        GetDistance,
			Description: "Get approximate distance and travel time between two places in a city (for ordering activities).",
			Parameters: object([]string{"from_place", "to_place", "city"}, map[string]interface{}{
				"from_place": prop("string", "Starting location"),
				"to_place":   prop("string", "Destination"),
				"city":       prop("string", "City name"),
			}),
		},
	}
}

// mockRates are USD-relative exchange rates.
var mockRates = map[string]float64{"USD": 1, "EUR": 0.92, "GBP": 0.79}

// Allocation is the share of a budget per spending category.
type Allocation struct {
	Accommodation float64 `json:"accommodation"`
	Food          float64 `json:"food"`
	Activities    float64 `json:"activities"`
	Transport     float64 `json:"transport"`
}

var allocations = map[string]Allocation{
	"budget":   {Accommodation: 0.35, Food: 0.3, Activities: 0.2, Transport: 0.15},
	"moderate": {Accommodation: 0.4, Food: 0.28, Activities: 0.22, Transport: 0.1},
	"luxury":   {Accommodation: 0.5, Food: 0.25, Activities: 0.15, Transport: 0.1},
}

type weatherResult struct {
	City       string `json:"city"`
	Date       string `json:"date"`
	Conditions string `json:"conditions"`
	HighC      int    `json:"high_c"`
	LowC       int    `json:"low_c"`
	Note       string `json:"note"`
}

type currencyResult struct {
	Amount          float64 `json:"amount"`
	FromCurrency    string  `json:"from_currency"`
	ToCurrency      string  `json:"to_currency"`
	ConvertedAmount float64 `json:"converted_amount"`
	Note            string  `json:"note"`
}

type budgetResult struct {
	TotalBudgetUSD float64    `json:"total_budget_usd"`
	Days           int        `json:"days"`
	PerDayUSD      float64    `json:"per_day_usd"`
	Allocation     Allocation `json:"allocation"`
	Note           string     `json:"note"`
}

type distanceResult struct {
	FromPlace      string `json:"from_place"`
	ToPlace        string `json:"to_place"`
	City           string `json:"city"`
	ApproximateKM  int    `json:"approximate_km"`
	ApproximateMin int    `json:"approximate_duration_min"`
	Note           string `json:"note"`
}

type args struct {
	City         string   `json:"city"`
	Date         string   `json:"date"`
	Amount       *float64 `json:"amount"`
	FromCurrency string   `json:"from_currency"`
	ToCurrency   string   `json:"to_currency"`
	TotalBudget  *float64 `json:"total_budget"`
	Days         *float64 `json:"days"`
	Style        string   `json:"style"`
	FromPlace    string   `json:"from_place"`
	ToPlace      string   `json:"to_place"`
}

// Execute runs the named tool on JSON-encoded arguments and returns a JSON
// result. Problems are reported inside the result, never as a Go error, so
// the model can see them.
func Execute(name, argsJSON string) string {
	var a args
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &a); err != nil {
			return errorResult(fmt.Sprintf("invalid arguments for %s: %v", name, err))
		}
	}
	switch name {
	case GetWeather:
		return encode(weatherResult{
			City:       a.City,
			Date:       a.Date,
			Conditions: "Partly cloudy",
			HighC:      22,
			LowC:       14,
			Note:       "Check a weather API for real data.",
		})
	case CurrencyConvert:
		from, to := orDefault(a.FromCurrency, "USD"), orDefault(a.ToCurrency, "EUR")
		amount := deref(a.Amount, 0)
		rate := rateOf(to) / rateOf(from)
		return encode(currencyResult{
			Amount:          amount,
			FromCurrency:    from,
			ToCurrency:      to,
			ConvertedAmount: roundHalfUp(amount*rate*100) / 100,
			Note:            "Use a live API for real rates.",
		})
	case BudgetCalculator:
		total := deref(a.TotalBudget, 0)
		days := int(deref(a.Days, 1))
		if days < 1 {
			days = 1
		}
		alloc, ok := allocations[a.Style]
		if !ok {
			alloc = allocations["moderate"]
		}
		return encode(budgetResult{
			TotalBudgetUSD: total,
			Days:           days,
			PerDayUSD:      roundHalfUp(total / float64(days)),
			Allocation:     alloc,
			Note:           "Use these ratios to split the budget across days.",
		})
	case GetDistance:
		return encode(distanceResult{
			FromPlace:      a.FromPlace,
			ToPlace:        a.ToPlace,
			City:           a.City,
			ApproximateKM:  3,
			ApproximateMin: 15,
			Note:           "Use a maps API for real distances.",
		})
	default:
		return errorResult("Unknown tool: " + name)
	}
}

func rateOf(code string) float64 {
	if r, ok := mockRates[code]; ok {
		return r
	}
	return 1
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func deref(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

// roundHalfUp rounds .5 toward positive infinity.
func roundHalfUp(x float64) float64 { return math.Floor(x + 0.5) }

func encode(v interface{}) string {
	b, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(b)
}

func errorResult(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg})
	return string(b)
}
