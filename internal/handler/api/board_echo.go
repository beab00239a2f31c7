package api

import (
	"errors"
	"time"

	"SwingDesk/internal/domain/models"
	domrepo "SwingDesk/internal/domain/repository"
	domsvc "SwingDesk/internal/domain/service"
	"SwingDesk/internal/service/ratelimit"
	"SwingDesk/internal/usecase"
	xhttp "SwingDesk/pkg/http"
	xlogger "SwingDesk/pkg/logger"
	"SwingDesk/pkg/util"

	"github.com/labstack/echo/v4"
)

// RefreshLimit is the per-client token bucket for forced rescans.
type RefreshLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// BoardEchoHandler serves the setup board over echo.
type BoardEchoHandler struct {
	logger   *xlogger.Logger
	board    *usecase.BoardService
	scanner  *usecase.Scanner
	analyzer domsvc.Analyzer
	sink     *usecase.DecisionSink
	limiter  *ratelimit.Limiter
	limit    RefreshLimit
}

func NewBoardEchoHandler(
	logger *xlogger.Logger,
	board *usecase.BoardService,
	scanner *usecase.Scanner,
	analyzer domsvc.Analyzer,
	sink *usecase.DecisionSink,
	limiter *ratelimit.Limiter,
	limit RefreshLimit,
) *BoardEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &BoardEchoHandler{
		logger:   logger.Component("api"),
		board:    board,
		scanner:  scanner,
		analyzer: analyzer,
		sink:     sink,
		limiter:  limiter,
		limit:    limit,
	}
}

func (h *BoardEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/accounts", h.Accounts)
	g.GET("/board", h.Board)
	g.GET("/board/all", h.BoardAll)
	g.GET("/tickers/:symbol", h.Ticker)
	g.POST("/analyze", h.Analyze)
	g.POST("/refresh", h.Refresh)
	g.GET("/history", h.History)
}

type healthResponse struct {
	Status      string    `json:"status"`
	LastUpdated time.Time `json:"lastUpdated,omitempty"`
	Sink        string    `json:"sink"`
}

func (h *BoardEchoHandler) Health(c echo.Context) error {
	res := healthResponse{Status: "ok", Sink: h.sink.Backend()}
	if b, ok := h.board.Snapshot(); ok {
		res.LastUpdated = b.GeneratedAt
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BoardEchoHandler) Accounts(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.board.Accounts())
}

// Board returns one account's bucket, account 1 by default. account_id=0 also
// resolves to account 1; the unassigned bucket 0 is only served by /api/board/all.
func (h *BoardEchoHandler) Board(c echo.Context) error {
	req := &models.BoardRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, h.board.Account(c.Request().Context(), req.AccountID))
}

type boardAllResponse struct {
	Accounts    models.AccountCatalog `json:"accounts"`
	Buckets     models.Buckets        `json:"buckets"`
	GeneratedAt time.Time             `json:"generatedAt"`
	Scanned     int                   `json:"scanned"`
	Skipped     []string              `json:"skipped,omitempty"`
}

func (h *BoardEchoHandler) BoardAll(c echo.Context) error {
	b := h.board.Current(c.Request().Context())
	return xhttp.SuccessResponse(c, boardAllResponse{
		Accounts:    h.board.Accounts(),
		Buckets:     b.Buckets,
		GeneratedAt: b.GeneratedAt,
		Scanned:     b.Scanned,
		Skipped:     b.Skipped,
	})
}

// Ticker fetches and analyzes a single symbol live.
func (h *BoardEchoHandler) Ticker(c echo.Context) error {
	req := &models.TickerRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d, err := h.scanner.Evaluate(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, domrepo.ErrNoSnapshot) {
			return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no market data for %s", req.Symbol).WithError(err))
		}
		h.logger.Error("ticker evaluate failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("ticker evaluation failed").WithError(err))
	}
	return xhttp.SuccessResponse(c, d)
}

// Analyze runs the engine on a posted snapshot pair.
func (h *BoardEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.analyzer.Analyze(req.Indicators, req.Options))
}

type refreshResponse struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Scanned     int       `json:"scanned"`
	Skipped     []string  `json:"skipped,omitempty"`
}

// Refresh forces a rescan, rate limited per client IP.
func (h *BoardEchoHandler) Refresh(c echo.Context) error {
	if h.limiter != nil && !h.limiter.Allow("refresh:"+c.RealIP(), h.limit.Capacity, h.limit.RefillPerSec) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("refresh rate limit exceeded"))
	}
	b := h.board.Rescan(c.Request().Context())
	return xhttp.SuccessResponse(c, refreshResponse{GeneratedAt: b.GeneratedAt, Scanned: b.Scanned, Skipped: b.Skipped})
}

func (h *BoardEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.Symbol = util.NormalizeSymbol(req.Symbol)
	recs, err := h.sink.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		if errors.Is(err, usecase.ErrHistoryUnavailable) {
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("decision history is not configured"))
		}
		h.logger.Error("history query failed", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("history query failed").WithError(err))
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}
