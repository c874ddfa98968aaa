package handler

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/gema-curriculum-api/internal/config"
	"github.com/noah-isme/gema-curriculum-api/internal/utils"
)

const probeTimeout = 2 * time.Second

// HealthProbe reports whether a dependency is reachable.
type HealthProbe func(ctx context.Context) error

// DependencyHealth is the outcome of one probe.
type DependencyHealth struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
	Required  bool   `json:"required"`
}

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string                      `json:"status"`
	Timestamp    time.Time                   `json:"timestamp"`
	Service      string                      `json:"service"`
	Environment  string                      `json:"environment"`
	Dependencies map[string]DependencyHealth `json:"dependencies,omitempty"`
}

// HealthCheck probes dependencies in parallel. A failing required probe
// (the activation store) answers 503 "unavailable"; optional ones such as
// the cache or event bus only mark the service "degraded".
func HealthCheck(cfg config.Config, probes map[string]HealthProbe, required ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:       "ok",
			Timestamp:    time.Now().UTC(),
			Service:      cfg.AppName,
			Environment:  cfg.AppEnv,
			Dependencies: make(map[string]DependencyHealth, len(probes)),
		}

		ctx, cancel := context.WithTimeout(requestContext(c), probeTimeout)
		defer cancel()

		var (
			mu    sync.Mutex
			group errgroup.Group
		)
		for name, probe := range probes {
			group.Go(func() error {
				result := runProbe(ctx, probe)
				result.Required = slices.Contains(required, name)
				mu.Lock()
				payload.Dependencies[name] = result
				mu.Unlock()
				return nil
			})
		}
		_ = group.Wait()

		for _, dep := range payload.Dependencies {
			switch {
			case dep.Status == "ok":
			case dep.Required:
				payload.Status = "unavailable"
			case payload.Status == "ok":
				payload.Status = "degraded"
			}
		}

		if payload.Status == "unavailable" {
			return utils.SendSuccessWithStatus(c, fiber.StatusServiceUnavailable, "activation store unreachable", payload)
		}
		return utils.SendSuccess(c, "service "+payload.Status, payload)
	}
}

func runProbe(ctx context.Context, probe HealthProbe) DependencyHealth {
	start := time.Now()
	err := probe(ctx)
	result := DependencyHealth{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
	if err != nil {
		result.Status = "down"
		result.Error = err.Error()
	}
	return result
}
