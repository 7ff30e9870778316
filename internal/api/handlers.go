package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kaleidonews/kaleido/internal/analytics"
	"github.com/kaleidonews/kaleido/internal/feed"
	"github.com/kaleidonews/kaleido/internal/logger"
	"github.com/kaleidonews/kaleido/internal/models"
)

type Handlers struct {
	orchestrator *feed.Orchestrator
	sources      []models.Source
}

func NewHandlers(orchestrator *feed.Orchestrator, sources []models.Source) *Handlers {
	return &Handlers{orchestrator: orchestrator, sources: sources}
}

// HealthCheck handles GET /api/v1/health
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"sources": len(h.sources),
		"time":    time.Now().Format(time.RFC3339),
	})
}

// GetSources handles GET /api/v1/sources
func (h *Handlers) GetSources(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"sources":  h.sources,
		"statuses": h.orchestrator.Statuses(),
	})
}

// GetFeed handles GET /api/v1/feed
func (h *Handlers) GetFeed(c *fiber.Ctx) error {
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		logger.Get().Error().Err(err).Msg("Error fetching feeds")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch feeds",
		})
	}
	return c.JSON(result)
}

// GetTrending handles GET /api/v1/analytics/trending
func (h *Handlers) GetTrending(c *fiber.Ctx) error {
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeds")
	}
	return c.JSON(analytics.TrendingTopics(result.Items, time.Now()))
}

// GetHourly handles GET /api/v1/analytics/hourly
func (h *Handlers) GetHourly(c *fiber.Ctx) error {
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeds")
	}
	return c.JSON(analytics.HourlyAggregates(result.Items))
}

// GetMatrix handles GET /api/v1/analytics/matrix
func (h *Handlers) GetMatrix(c *fiber.Ctx) error {
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeds")
	}
	return c.JSON(analytics.SourceTopicMatrix(result.Items))
}

// GetChart handles GET /api/v1/analytics/chart
func (h *Handlers) GetChart(c *fiber.Ctx) error {
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeds")
	}
	return c.JSON(analytics.ChartData(analytics.HourlyAggregates(result.Items)))
}

// GetNarrative handles GET /api/v1/analytics/narrative
func (h *Handlers) GetNarrative(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "5"))
	result, err := h.orchestrator.FetchFeeds(c.Context(), h.sources)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch feeds")
	}
	trending := analytics.TrendingTopics(result.Items, time.Now())
	return c.JSON(analytics.NarrativeData(trending, limit))
}

// Refresh handles POST /api/v1/admin/refresh
func (h *Handlers) Refresh(c *fiber.Ctx) error {
	h.orchestrator.ClearCache(c.Context())
	logger.Get().Info().Str("ip", c.IP()).Msg("Cache cleared by admin request")
	return c.JSON(fiber.Map{"status": "cache cleared"})
}

// ClearSourceCache handles DELETE /api/v1/admin/cache/:id
func (h *Handlers) ClearSourceCache(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Source ID is required",
		})
	}
	h.orchestrator.ClearSourceCache(c.Context(), id)
	return c.JSON(fiber.Map{"status": "cleared", "source": id})
}

// ResetProxyHealth handles POST /api/v1/admin/proxies/reset
func (h *Handlers) ResetProxyHealth(c *fiber.Ctx) error {
	h.orchestrator.ResetProxyHealth()
	return c.JSON(fiber.Map{"status": "proxy health reset"})
}
