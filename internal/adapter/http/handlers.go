package http

import (
	"net/http"
	"time"

	"loanshare/internal/domain/tick"
	"loanshare/internal/infrastructure/ticks"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	ticks  tick.Source
	manual *ticks.Manual
}

// NewHandler serves health and the current tick. manual is non-nil only
// when the manual tick source is configured; it enables POST /tick/advance.
func NewHandler(src tick.Source, manual *ticks.Manual) *Handler {
	return &Handler{ticks: src, manual: manual}
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) Tick(c echo.Context) error {
	if h.ticks == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no tick source"})
	}
	n, err := h.ticks.CurrentTick(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]uint64{"tick": n})
}

type advanceReq struct {
	By uint64 `json:"by" validate:"required,gte=1"`
}

func (h *Handler) AdvanceTick(c echo.Context) error {
	if h.manual == nil {
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "tick source is not manual"})
	}
	var req advanceReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	return c.JSON(http.StatusOK, map[string]uint64{"tick": h.manual.Advance(req.By)})
}
