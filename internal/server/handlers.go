package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"socialpress/internal/queue"
	"socialpress/internal/schedule"
	logx "socialpress/pkg/logx"
)

type rejection struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func rejected(message string) rejection {
	return rejection{Status: "rejected", Message: message}
}

func (s *Server) handleInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"service": "socialpress",
		"status":  "ok",
		"endpoints": []string{
			"POST /requests",
			"GET /queue",
			"GET /queue/status",
			"POST /process/all",
		},
	})
}

type enqueueResponse struct {
	Status    string `json:"status"`
	ID        int64  `json:"id"`
	Position  int    `json:"position"`
	QueueSize int    `json:"queue_size"`
}

func (s *Server) handleEnqueue(c echo.Context) error {
	var req queue.Request
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, rejected("malformed request body"))
	}

	receipt, err := s.store.Enqueue(c.Request().Context(), req)
	switch {
	case err == nil:
	case queue.IsValidation(err):
		return c.JSON(http.StatusBadRequest, rejected(err.Error()))
	case queue.IsQueueFull(err):
		return c.JSON(http.StatusTooManyRequests, rejected(err.Error()))
	default:
		s.log.Error("enqueue failed", logx.Err(err))
		return c.JSON(http.StatusInternalServerError, rejected("internal error"))
	}

	return c.JSON(http.StatusOK, enqueueResponse{
		Status:    "queued",
		ID:        receipt.ID,
		Position:  receipt.Position,
		QueueSize: receipt.Pending,
	})
}

func (s *Server) handleQueue(c echo.Context) error {
	entries, err := s.store.List(c.Request().Context())
	if err != nil {
		s.log.Error("queue listing failed", logx.Err(err))
		return c.JSON(http.StatusInternalServerError, rejected("internal error"))
	}
	if entries == nil {
		entries = []queue.Entry{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"entries": entries,
		"total":   len(entries),
	})
}

type queueStatusResponse struct {
	Total         int        `json:"total"`
	Pending       int        `json:"pending"`
	Dead          int        `json:"dead"`
	Processing    bool       `json:"processing"`
	NextScheduled *time.Time `json:"next_scheduled_time,omitempty"`
}

func (s *Server) handleQueueStatus(c echo.Context) error {
	counts, err := s.store.Counts(c.Request().Context())
	if err != nil {
		s.log.Error("queue counts failed", logx.Err(err))
		return c.JSON(http.StatusInternalServerError, rejected("internal error"))
	}
	resp := queueStatusResponse{
		Total:      counts.Total,
		Pending:    counts.Pending,
		Dead:       counts.Dead,
		Processing: s.trigger.Running(),
	}
	if next, ok := s.trigger.NextRun(); ok {
		resp.NextScheduled = &next
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleProcessAll(c echo.Context) error {
	rep, err := s.trigger.RunNow(c.Request().Context())
	if err != nil {
		if errors.Is(err, schedule.ErrBatchRunning) {
			return c.JSON(http.StatusConflict, rejected(err.Error()))
		}
		s.log.Error("manual batch failed", logx.Err(err))
		return c.JSON(http.StatusInternalServerError, rejected("batch failed"))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"run_id":    rep.RunID,
		"total":     rep.Total,
		"processed": rep.Processed,
		"failed":    rep.Failed,
	})
}
