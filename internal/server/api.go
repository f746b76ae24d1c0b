package server

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"edgefinder/internal/config"
	"edgefinder/internal/domain"
	"edgefinder/internal/market"
	"edgefinder/internal/performance"
	"edgefinder/internal/store"
)

// RunLister lists recent refresh runs.
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]store.Run, error)
}

// Reporter summarizes the refresh run log.
type Reporter interface {
	Generate(ctx context.Context) (*performance.Report, error)
}

// APIHandler serves the read and refresh endpoints.
type APIHandler struct {
	store    *store.Store
	source   market.Source
	demo     market.Source
	runs     RunLister
	reporter Reporter
	refresh  config.RefreshConfig
	version  string
}

// APIOption configures APIHandler.
type APIOption func(*APIHandler)

// WithRunLog exposes the persisted run log on /api/runs.
func WithRunLog(runs RunLister, reporter Reporter) APIOption {
	return func(h *APIHandler) {
		h.runs = runs
		h.reporter = reporter
	}
}

// WithVersion sets the version reported by the banner.
func WithVersion(v string) APIOption {
	return func(h *APIHandler) {
		h.version = v
	}
}

func NewAPIHandler(s *store.Store, source, demo market.Source, refresh config.RefreshConfig, opts ...APIOption) *APIHandler {
	h := &APIHandler{
		store:   s,
		source:  source,
		demo:    demo,
		refresh: refresh,
		version: "dev",
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *APIHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Banner)
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/stats", h.Stats)
	g.GET("/status", h.Status)
	g.GET("/markets", h.Markets)
	g.GET("/markets/:id", h.Market)
	g.GET("/opportunities", h.Opportunities)
	g.GET("/predictions", h.Predictions)
	g.POST("/refresh", h.Refresh)
	g.POST("/load-demo", h.LoadDemo)
	g.GET("/runs", h.Runs)
}

func (h *APIHandler) Banner(c echo.Context) error {
	return SuccessResponse(c, map[string]any{
		"service": "edgefinder",
		"version": h.version,
		"source":  h.source.Name(),
	})
}

func (h *APIHandler) Health(c echo.Context) error {
	return SuccessResponse(c, map[string]any{
		"healthy":    true,
		"generation": h.store.Snapshot().Generation,
		"time":       time.Now().UTC(),
	})
}

func (h *APIHandler) Stats(c echo.Context) error {
	return SuccessResponse(c, h.store.Stats())
}

func (h *APIHandler) Status(c echo.Context) error {
	return SuccessResponse(c, h.store.Status())
}

func (h *APIHandler) Markets(c echo.Context) error {
	req := &MarketsRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}

	page := h.store.Markets(store.MarketFilter{
		Category:  domain.Category(req.Category),
		MinScore:  req.MinScore,
		MinVolume: req.MinVolume,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	return ListResponse(c, page.Rows, page.Total)
}

func (h *APIHandler) Market(c echo.Context) error {
	m, err := h.store.Market(c.Param("id"))
	if err != nil {
		return ErrorResponse(c, err)
	}
	return SuccessResponse(c, m)
}

func (h *APIHandler) Opportunities(c echo.Context) error {
	req := &OpportunitiesRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}

	page := h.store.Opportunities(store.OpportunityFilter{
		EdgeType:      domain.EdgeType(req.EdgeType),
		MinConfidence: req.MinConfidence,
		RiskLevel:     domain.RiskLevel(req.RiskLevel),
		Limit:         req.Limit,
		Offset:        req.Offset,
	})
	return ListResponse(c, page.Rows, page.Total)
}

func (h *APIHandler) Predictions(c echo.Context) error {
	req := &PredictionsRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}

	page := h.store.Predictions(store.PredictionFilter{
		Direction: domain.Direction(req.Direction),
		MinEdge:   req.MinEdge,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	return ListResponse(c, page.Rows, page.Total)
}

// Refresh starts a background refresh and answers 202 with its run id.
func (h *APIHandler) Refresh(c echo.Context) error {
	req := &RefreshRequest{
		MaxMarkets:      h.refresh.MaxMarkets,
		MinVolume:       h.refresh.MinVolume,
		FetchOrderbooks: h.refresh.FetchOrderbooks,
	}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}

	opts := market.FetchOptions{
		MaxMarkets:      req.MaxMarkets,
		MinVolume:       req.MinVolume,
		FetchOrderbooks: req.FetchOrderbooks,
	}
	runID, err := h.store.Start(c.Request().Context(), h.source, opts)
	if err != nil {
		return ErrorResponse(c, err)
	}

	return AcceptedResponse(c, map[string]any{
		"run_id":  runID,
		"source":  h.source.Name(),
		"options": opts,
	})
}

// LoadDemo replaces the snapshot with the built-in demo markets.
func (h *APIHandler) LoadDemo(c echo.Context) error {
	snap, err := h.store.Run(c.Request().Context(), h.demo, market.FetchOptions{})
	if err != nil {
		return ErrorResponse(c, err)
	}

	return SuccessResponse(c, map[string]any{
		"run_id":        snap.RunID,
		"generation":    snap.Generation,
		"markets":       len(snap.Markets),
		"opportunities": len(snap.Opportunities),
		"predictions":   len(snap.Predictions),
	})
}

func (h *APIHandler) Runs(c echo.Context) error {
	req := &RunsRequest{}
	if verr := ReadAndValidateRequest(c, req); verr != nil {
		return BadRequestResponse(c, verr)
	}
	if h.runs == nil {
		return DataResponse(c, http.StatusNotFound, []ValidationError{{Code: "ERR_NOT_FOUND", Message: "run log is not enabled"}})
	}

	ctx := c.Request().Context()
	runs, err := h.runs.ListRuns(ctx, req.Limit)
	if err != nil {
		return ErrorResponse(c, err)
	}

	var report *performance.Report
	if h.reporter != nil {
		if report, err = h.reporter.Generate(ctx); err != nil {
			return ErrorResponse(c, err)
		}
	}

	return SuccessResponse(c, map[string]any{
		"report": report,
		"runs":   runs,
	})
}
