package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	models "TradePulse/internal/domain/models"
	domrepo "TradePulse/internal/domain/repository"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/metrics"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/usecase"
	pkgcache "TradePulse/pkg/cache"
	xhttp "TradePulse/pkg/http"
	xlogger "TradePulse/pkg/logger"
	xutil "TradePulse/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analytics engines over HTTP. Read endpoints
// go through a short-TTL byte cache; /analyze always runs fresh because it
// records a decision.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	queries  *usecase.QueriesUseCase
	analyzer *usecase.Analyzer
	tracker  *usecase.OutcomeTracker
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, queries *usecase.QueriesUseCase, analyzer *usecase.Analyzer) *AnalysisEchoHandler {
	metrics.Register()
	return &AnalysisEchoHandler{
		logger:   logger,
		queries:  queries,
		analyzer: analyzer,
		rl:       ratelimit.New(),
	}
}

// SetCache injects the byte cache used by the read endpoints.
func (h *AnalysisEchoHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetTracker enables the on-demand outcome evaluation endpoint.
func (h *AnalysisEchoHandler) SetTracker(t *usecase.OutcomeTracker) { h.tracker = t }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/bars", h.Bars)
	g.GET("/wad", h.WAD)
	g.GET("/chip", h.Chip)
	g.GET("/peaks", h.Peaks)
	g.GET("/levels", h.Levels)
	g.GET("/threshold", h.Threshold)
	g.GET("/weights", h.Weights)
	g.POST("/analyze", h.Analyze)
	g.POST("/evaluate", h.Evaluate)
}

// Bars serves raw price bars for charting. The time range comes in as
// RFC3339 or unix seconds and is aligned to timeframe boundaries so cache
// keys stay stable across repeated requests.
func (h *AnalysisEchoHandler) Bars(c echo.Context) error {
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "symbol", Message: "symbol is required",
		}})
	}
	if !h.allow(c, "bars", 5, 2) {
		return rateLimitedResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(c.QueryParam("tf"))
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-24*time.Hour))
	from, to = xutil.AlignFromTo(from, to, string(tf))
	key := pkgcache.GenerateKeyWithParams("bars", symbol, tf, from.Unix(), to.Unix())
	return h.serveCached(c, "bars", key, 30*time.Second, func() (interface{}, error) {
		return h.queries.GetBars(c.Request().Context(), usecase.GetBarsParams{
			Symbol:    symbol,
			From:      from,
			To:        to,
			Timeframe: tf,
		})
	})
}

func (h *AnalysisEchoHandler) WAD(c echo.Context) error {
	req := &models.WADRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "wad", 5, 2) {
		return rateLimitedResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	key := pkgcache.GenerateKeyWithParams("wad", req.Symbol, tf, req.N, req.DecayRate)
	return h.serveCached(c, "wad", key, 30*time.Second, func() (interface{}, error) {
		return h.queries.GetWAD(c.Request().Context(), usecase.GetWADParams{
			Symbol:    req.Symbol,
			N:         req.N,
			Timeframe: tf,
			DecayRate: req.DecayRate,
		})
	})
}

func (h *AnalysisEchoHandler) Chip(c echo.Context) error {
	req := &models.ChipRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "chip", 5, 2) {
		return rateLimitedResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	key := pkgcache.GenerateKeyWithParams("chip", req.Symbol, tf, req.N, req.BucketPct)
	return h.serveCached(c, "chip", key, 30*time.Second, func() (interface{}, error) {
		return h.queries.GetChip(c.Request().Context(), usecase.GetChipParams{
			Symbol:    req.Symbol,
			N:         req.N,
			Timeframe: tf,
			BucketPct: req.BucketPct,
		})
	})
}

// Peaks returns the peak section of the chip report on its own. It shares the
// chip request shape and cache parameters.
func (h *AnalysisEchoHandler) Peaks(c echo.Context) error {
	req := &models.ChipRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "peaks", 5, 2) {
		return rateLimitedResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	key := pkgcache.GenerateKeyWithParams("peaks", req.Symbol, tf, req.N, req.BucketPct)
	return h.serveCached(c, "peaks", key, 30*time.Second, func() (interface{}, error) {
		res, err := h.queries.GetChip(c.Request().Context(), usecase.GetChipParams{
			Symbol:    req.Symbol,
			N:         req.N,
			Timeframe: tf,
			BucketPct: req.BucketPct,
		})
		if err != nil {
			return nil, err
		}
		return res.Peaks, nil
	})
}

func (h *AnalysisEchoHandler) Levels(c echo.Context) error {
	req := &models.LevelsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "levels", 5, 2) {
		return rateLimitedResponse(c)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	key := pkgcache.GenerateKeyWithParams("levels", req.Symbol, tf, req.N, req.BucketPct)
	return h.serveCached(c, "levels", key, 30*time.Second, func() (interface{}, error) {
		return h.queries.GetLevels(c.Request().Context(), usecase.GetLevelsParams{
			Symbol:    req.Symbol,
			N:         req.N,
			Timeframe: tf,
			BucketPct: req.BucketPct,
		})
	})
}

func (h *AnalysisEchoHandler) Threshold(c echo.Context) error {
	req := &models.ThresholdRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "threshold", 5, 2) {
		return rateLimitedResponse(c)
	}
	// Short TTL: the threshold follows the live tick stream.
	key := pkgcache.GenerateKeyWithParams("threshold", req.Symbol, req.K, req.WindowMs)
	return h.serveCached(c, "threshold", key, 15*time.Second, func() (interface{}, error) {
		return h.queries.GetThreshold(c.Request().Context(), usecase.GetThresholdParams{
			Symbol:   req.Symbol,
			K:        req.K,
			WindowMs: req.WindowMs,
			Limit:    req.Limit,
		})
	})
}

func (h *AnalysisEchoHandler) Weights(c echo.Context) error {
	req := &models.WeightsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "weights", 5, 2) {
		return rateLimitedResponse(c)
	}
	key := pkgcache.GenerateKey("weights", strconv.Itoa(req.Limit))
	return h.serveCached(c, "weights", key, 15*time.Second, func() (interface{}, error) {
		return h.queries.GetWeights(c.Request().Context(), req.Limit)
	})
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	endpoint := "analyze"
	defer func() { metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	// A full run fans out to the external agents, so the budget is tighter.
	if !h.allow(c, endpoint, 2, 0.5) {
		return rateLimitedResponse(c)
	}

	report, err := h.analyzer.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: domrepo.NormalizeTimeframe(req.TF),
	})
	if errors.Is(err, usecase.ErrAnalysisInFlight) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError(
			"ERR_ANALYSIS_IN_FLIGHT", "symbol",
			"analysis already running for this symbol",
			http.StatusConflict,
		))
	}
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("analyze usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

// Evaluate queues a pending decision for immediate outcome evaluation
// instead of waiting for the holding period to elapse.
func (h *AnalysisEchoHandler) Evaluate(c echo.Context) error {
	if h.tracker == nil {
		return xhttp.AppErrorResponse(c, xhttp.InternalError("outcome tracking is not configured"))
	}
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, "evaluate", 2, 0.5) {
		return rateLimitedResponse(c)
	}
	if err := h.tracker.RequestEvaluation(c.Request().Context(), req.ID); err != nil {
		if errors.Is(err, usecase.ErrPendingNotFound) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("pending decision %s not found", req.ID))
		}
		h.logger.Error("evaluate request error", xlogger.String("id", req.ID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, map[string]string{"id": req.ID, "status": "queued"})
}

// serveCached answers from the byte cache when possible, otherwise runs load
// and stores the marshalled response envelope so hits and misses return the
// exact same bytes.
func (h *AnalysisEchoHandler) serveCached(c echo.Context, endpoint, key string, ttl time.Duration, load func() (interface{}, error)) error {
	start := time.Now()
	defer func() { metrics.AnalyticsLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err != nil {
			h.logger.Warn("cache get failed", xlogger.String("key", key), xlogger.Error(err))
		} else if ok {
			h.logger.Debug("cache hit", xlogger.String("key", key))
			return c.JSONBlob(http.StatusOK, b)
		}
	}

	res, err := load()
	if err != nil {
		metrics.AnalyticsErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error(endpoint+" usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	body, err := json.Marshal(xhttp.APIResponse{
		Status:  http.StatusOK,
		Message: http.StatusText(http.StatusOK),
		Data:    res,
	})
	if err != nil {
		h.logger.Error(endpoint+" marshal error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, body, ttl); err != nil {
			h.logger.Warn("cache set failed", xlogger.String("key", key), xlogger.Error(err))
		}
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *AnalysisEchoHandler) allow(c echo.Context, endpoint string, capacity, refillPerSec float64) bool {
	if h.rl.Allow(c.RealIP()+":"+endpoint, capacity, refillPerSec) {
		return true
	}
	h.logger.Warn("rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()),
	)
	return false
}

func rateLimitedResponse(c echo.Context) error {
	return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
}
