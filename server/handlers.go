// Package server exposes the run trigger and admin-time feed validation
// over HTTP. The thin CRUD forms for source configuration live in the admin
// application; only their effects flow through the registry.
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/takumi-dev/polifeed/collector"
	"github.com/takumi-dev/polifeed/collector/validation"
	"github.com/takumi-dev/polifeed/model"
	"github.com/takumi-dev/polifeed/orchestrator"
)

// RunTriggerer starts one scrape run and reports its structured outcome.
type RunTriggerer interface {
	Run(ctx context.Context, runType orchestrator.RunType) *orchestrator.RunResult
}

type scrapeRequest struct {
	Type string `json:"type"`
}

type validateRequest struct {
	Url      string `json:"url" binding:"required"`
	Platform string `json:"platform"`
}

type validateResponse struct {
	Valid         bool     `json:"valid"`
	Format        string   `json:"format,omitempty"`
	ItemCount     int      `json:"itemCount"`
	AdvisoryFlags []string `json:"advisoryFlags,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// RegisterRoutes wires the trigger and validation endpoints.
func RegisterRoutes(router *gin.Engine, runner RunTriggerer, fetcher *collector.FeedFetcher) {
	router.POST("/admin/scrape", scrapeHandler(runner))
	router.POST("/admin/sources/validate", validateHandler(fetcher))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
}

func scrapeHandler(runner RunTriggerer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req scrapeRequest
		// An empty or malformed body still triggers a run: the selector
		// defaults to "all".
		_ = c.ShouldBindJSON(&req)

		result := runner.Run(c.Request.Context(), orchestrator.ParseRunType(req.Type))
		c.JSON(http.StatusOK, result)
	}
}

func validateHandler(fetcher *collector.FeedFetcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req validateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
			return
		}

		fetched, err := fetcher.Fetch(c.Request.Context(), req.Url)
		if err != nil {
			c.JSON(fetchErrorStatus(err), validateResponse{Valid: false, Error: err.Error()})
			return
		}

		report, err := validation.ValidatePayload(fetched.Body, model.Platform(req.Platform))
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, validateResponse{Valid: false, Error: err.Error()})
			return
		}

		c.JSON(http.StatusOK, validateResponse{
			Valid:         true,
			Format:        report.Format,
			ItemCount:     report.ItemCount,
			AdvisoryFlags: report.AdvisoryFlags,
		})
	}
}

// fetchErrorStatus maps a fetch failure onto the response status: timeouts
// become 504, a non-2xx upstream status is passed through, and anything
// else (unreachable host, malformed URL) becomes 502.
func fetchErrorStatus(err error) int {
	if errors.Is(err, collector.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	var srcErr *collector.SourceError
	if errors.As(err, &srcErr) && srcErr.StatusCode >= http.StatusBadRequest {
		return srcErr.StatusCode
	}
	return http.StatusBadGateway
}
