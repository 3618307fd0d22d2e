package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m), s)
	return m
}

func TestCatalog(t *testing.T) {
	defs := Catalog()
	require.Len(t, defs, 4)
	names := []string{}
	for _, d := range defs {
		names = append(names, d.Name)
		assert.NotEmpty(t, d.Description)
		assert.Equal(t, "object", d.Parameters["type"])
	}
	assert.Equal(t, []string{GetWeather, CurrencyConvert, BudgetCalculator, GetDistance}, names)
}

func TestExecute_Weather(t *testing.T) {
	m := decode(t, Execute(GetWeather, `{"city":"Lisbon","date":"2025-06-01"}`))
	assert.Equal(t, "Lisbon", m["city"])
	assert.Equal(t, "2025-06-01", m["date"])
	assert.Equal(t, "Partly cloudy", m["conditions"])
	assert.Equal(t, float64(22), m["high_c"])
	assert.Equal(t, float64(14), m["low_c"])
}

func TestExecute_CurrencyConvert(t *testing.T) {
	m := decode(t, Execute(CurrencyConvert, `{"amount":100,"from_currency":"USD","to_currency":"EUR"}`))
	assert.Equal(t, float64(92), m["converted_amount"])

	m = decode(t, Execute(CurrencyConvert, `{"amount":10,"from_currency":"GBP","to_currency":"EUR"}`))
	assert.Equal(t, 11.65, m["converted_amount"])

	m = decode(t, Execute(CurrencyConvert, `{"amount":10,"from_currency":"JPY","to_currency":"XYZ"}`))
	assert.Equal(t, float64(10), m["converted_amount"])

	m = decode(t, Execute(CurrencyConvert, `{}`))
	assert.Equal(t, "USD", m["from_currency"])
	assert.Equal(t, "EUR", m["to_currency"])
	assert.Equal(t, float64(0), m["converted_amount"])
}

func TestExecute_BudgetCalculator(t *testing.T) {
	m := decode(t, Execute(BudgetCalculator, `{"total_budget":1000,"days":3,"style":"luxury"}`))
	assert.Equal(t, float64(333), m["per_day_usd"])
	alloc := m["allocation"].(map[string]interface{})
	assert.Equal(t, 0.5, alloc["accommodation"])
	assert.Equal(t, 0.1, alloc["transport"])

	m = decode(t, Execute(BudgetCalculator, `{"total_budget":1001,"days":2}`))
	assert.Equal(t, float64(501), m["per_day_usd"])
	assert.Equal(t, 0.4, m["allocation"].(map[string]interface{})["accommodation"])

	m = decode(t, Execute(BudgetCalculator, `{"total_budget":500,"days":0,"style":"budget"}`))
	assert.Equal(t, float64(1), m["days"])
	assert.Equal(t, float64(500), m["per_day_usd"])
}

func TestExecute_Distance(t *testing.T) {
	m := decode(t, Execute(GetDistance, `{"from_place":"Rossio","to_place":"Belém","city":"Lisbon"}`))
	assert.Equal(t, "Belém", m["to_place"])
	assert.Equal(t, float64(3), m["approximate_km"])
	assert.Equal(t, float64(15), m["approximate_duration_min"])
}

func TestExecute_Errors(t *testing.T) {
	m := decode(t, Execute("book_hotel", `{}`))
	assert.Equal(t, "Unknown tool: book_hotel", m["error"])

	m = decode(t, Execute(GetWeather, `{not json`))
	assert.Contains(t, m["error"], "invalid arguments for get_weather")
}
