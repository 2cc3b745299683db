package tools

import (
	"context"
	"fmt"
	"strings"

	"agentic"
	"agentic/schema"
)

// forecast is one city's canned weather data.
type forecast struct {
	condition string
	tempC     int
}

var forecasts = map[string]forecast{
	"london":        {"cloudy", 14},
	"paris":         {"partly cloudy", 17},
	"berlin":        {"rainy", 12},
	"madrid":        {"sunny", 26},
	"rome":          {"sunny", 24},
	"amsterdam":     {"windy", 13},
	"bucharest":     {"sunny", 21},
	"new york":      {"clear", 19},
	"san francisco": {"foggy", 15},
	"tokyo":         {"humid", 23},
}

// NewWeather creates the weather tool backed by canned data. Unknown cities
// are an execution error so the model learns to ask about covered ones.
func NewWeather() *agentic.Tool {
	return agentic.NewTool(
		"weather",
		"Get the current weather conditions and temperature for a city",
		schema.MustCompile(schema.Object(map[string]*schema.Property{
			"city": schema.String("City name, e.g. 'London' or 'New York'"),
		}, "city")),
		func(ctx context.Context, args map[string]any, deps map[string]any) (any, error) {
			city := argString(args, "city", "")
			f, ok := forecasts[strings.ToLower(strings.TrimSpace(city))]
			if !ok {
				return nil, fmt.Errorf("no weather data available for %q", city)
			}
			return fmt.Sprintf("Weather in %s: %s, %d°C", city, f.condition, f.tempC), nil
		},
	)
}
