package main

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/spetersoncode/relay/tool"
)

func demoTools() *tool.Registry {
	return tool.NewRegistry().Add(
		tool.Func("get_weather", "Get the current weather for a city", weatherHandler),
		tool.Func("calculate", "Perform basic arithmetic", calculateHandler),
		tool.Func("current_time", "Get the current time", timeHandler),
	)
}

// WeatherArgs are the arguments for the get_weather tool.
type WeatherArgs struct {
	City string `json:"city" jsonschema:"description=City name, e.g. Paris"`
}

// Weather is a canned report derived from the city name.
type Weather struct {
	City        string `json:"city"`
	TempC       int    `json:"temp_c"`
	Description string `json:"description"`
}

var conditions = []string{"sunny", "cloudy", "light rain", "windy", "foggy"}

func weatherHandler(ctx context.Context, args WeatherArgs) (Weather, error) {
	if strings.TrimSpace(args.City) == "" {
		return Weather{}, fmt.Errorf("city is required")
	}
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(args.City)))
	sum := h.Sum32()
	return Weather{
		City:        args.City,
		TempC:       int(sum%35) - 5,
		Description: conditions[sum%uint32(len(conditions))],
	}, nil
}

// CalculateArgs are the arguments for the calculate tool.
type CalculateArgs struct {
	Operation string  `json:"operation" jsonschema:"enum=add,enum=subtract,enum=multiply,enum=divide"`
	A         float64 `json:"a"`
	B         float64 `json:"b"`
}

func calculateHandler(ctx context.Context, args CalculateArgs) (string, error) {
	var result float64
	switch args.Operation {
	case "add":
		result = args.A + args.B
	case "subtract":
		result = args.A - args.B
	case "multiply":
		result = args.A * args.B
	case "divide":
		if args.B == 0 {
			return "", fmt.Errorf("cannot divide by zero")
		}
		result = args.A / args.B
	default:
		return "", fmt.Errorf("unknown operation: %s", args.Operation)
	}
	return fmt.Sprintf("%.6g", result), nil
}

// TimeArgs are the arguments for the current_time tool.
type TimeArgs struct {
	Format string `json:"format,omitempty" jsonschema:"enum=rfc3339,enum=unix,enum=human"`
}

func timeHandler(ctx context.Context, args TimeArgs) (string, error) {
	now := time.Now()
	switch strings.ToLower(args.Format) {
	case "rfc3339":
		return now.Format(time.RFC3339), nil
	case "unix":
		return fmt.Sprintf("%d", now.Unix()), nil
	default:
		return now.Format("Monday, January 2, 2006 at 3:04 PM MST"), nil
	}
}
