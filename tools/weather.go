package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// WeatherResult is a synthetic reading; the tool stands in for any simple
// external-data tool.
type WeatherResult struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
}

func NewWeatherTool() *Tool {
	def := mcp.NewTool("Weather",
		mcp.WithDescription("Get the current temperature for a city"),
		mcp.WithString("city", mcp.Required(), mcp.Description("The city to get the weather for")),
	)
	return New(def, func(_ context.Context, args map[string]any, _ Context) (any, error) {
		return WeatherResult{City: stringArg(args, "city"), Temperature: 33}, nil
	}).WithDescriber(func(args map[string]any, result any) Description {
		r, ok := result.(WeatherResult)
		if !ok {
			return defaultDescription(stringArg(args, "city"), result)
		}
		return Description{
			Title: r.City,
			Text:  fmt.Sprintf("The current temperature in %s is %g°C.", r.City, r.Temperature),
		}
	})
}
