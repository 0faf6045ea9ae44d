package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/alexalex89/task-management/domain"
	"github.com/alexalex89/task-management/postgres"
)

const maxBodySize = 10 << 20

type handlers struct {
	repo   Repository
	logger *log.Logger
	broker *updateBroker
	now    func() time.Time
}

// Register wires up all routes on e. mw runs in front of every /api route,
// matched or not.
func Register(e *echo.Echo, repo Repository, logger *log.Logger, mw ...echo.MiddlewareFunc) {
	h := &handlers{repo: repo, logger: logger, broker: newUpdateBroker(), now: time.Now}
	h.register(e, mw...)
}

func (h *handlers) register(e *echo.Echo, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.health)

	g := e.Group("/api", mw...)
	g.GET("/tasks", h.instrument("/api/tasks", h.listTasks))
	g.POST("/tasks", h.instrument("/api/tasks", h.createTask))
	g.POST("/tasks/reorder", h.instrument("/api/tasks/reorder", h.reorderTasks))
	g.PUT("/tasks/:id", h.instrument("/api/tasks/:id", h.updateTask))
	g.DELETE("/tasks/:id", h.instrument("/api/tasks/:id", h.deleteTask))
	g.PATCH("/tasks/:id/toggle", h.instrument("/api/tasks/:id/toggle", h.toggleTask))
	g.GET("/stats", h.instrument("/api/stats", h.stats))
	g.GET("/stream", streamTasks(h.repo, h.broker, h.logger))
}

type instrumented func(c echo.Context, m *requestMetrics) error

func (h *handlers) instrument(route string, fn instrumented) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		metrics, ctx := newRequestMetrics(c.Request().Context(), h.logger, c.Request().Method, route)
		c.SetRequest(c.Request().WithContext(ctx))
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()
		return fn(c, metrics)
	}
}

func (h *handlers) health(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: h.now().UTC().Format("2006-01-02T15:04:05.000Z"),
	})
}

func (h *handlers) listTasks(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	category := domain.Category(c.QueryParam("category"))
	if category != "" && !category.Valid() {
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidCategory.Error()})
	}
	start := time.Now()
	rows, err := h.repo.ListTasks(ctx, category)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "fetching tasks", err)
	}
	m.SetTasksReturned(len(rows))
	return c.JSON(http.StatusOK, rows)
}

func (h *handlers) createTask(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	var in domain.TaskInput
	if err := decodeBody(c, &in); err != nil {
		m.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := in.Normalize(); err != nil {
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	start := time.Now()
	row, err := h.repo.CreateTask(ctx, in)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "creating task", err)
	}
	h.broker.notify()
	return c.JSON(http.StatusCreated, row)
}

func (h *handlers) updateTask(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	id, ok := taskID(c)
	if !ok {
		m.SetErrorStage("not_found")
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgTaskMissing})
	}
	var in domain.TaskInput
	if err := decodeBody(c, &in); err != nil {
		m.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if err := in.Normalize(); err != nil {
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	start := time.Now()
	row, err := h.repo.UpdateTask(ctx, id, in)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "updating task", err)
	}
	h.broker.notify()
	return c.JSON(http.StatusOK, row)
}

func (h *handlers) toggleTask(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	id, ok := taskID(c)
	if !ok {
		m.SetErrorStage("not_found")
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgTaskMissing})
	}
	start := time.Now()
	row, err := h.repo.ToggleTask(ctx, id)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "toggling task", err)
	}
	h.broker.notify()
	return c.JSON(http.StatusOK, row)
}

func (h *handlers) deleteTask(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	id, ok := taskID(c)
	if !ok {
		m.SetErrorStage("not_found")
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgTaskMissing})
	}
	start := time.Now()
	err := h.repo.DeleteTask(ctx, id)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "deleting task", err)
	}
	h.broker.notify()
	return c.JSON(http.StatusOK, messageResponse{Message: msgDeleted})
}

func (h *handlers) reorderTasks(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	var in domain.ReorderInput
	if err := decodeBody(c, &in); err != nil {
		m.SetErrorStage("decode")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid body"})
	}
	if !in.Category.Valid() {
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: domain.ErrInvalidCategory.Error()})
	}
	if in.TaskIDs == nil {
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "taskIds must be an array"})
	}
	start := time.Now()
	err := h.repo.ReorderTasks(ctx, in.Category, in.TaskIDs)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "reordering tasks", err)
	}
	h.broker.notify()
	return c.JSON(http.StatusOK, messageResponse{Message: msgReordered})
}

func (h *handlers) stats(c echo.Context, m *requestMetrics) error {
	ctx := c.Request().Context()
	start := time.Now()
	stats, err := h.repo.Stats(ctx)
	m.ObserveRepository(time.Since(start))
	if err != nil {
		return h.repositoryError(c, m, "fetching stats", err)
	}
	return c.JSON(http.StatusOK, stats)
}

// repositoryError maps repository failures to responses. Only unexpected
// errors are logged.
func (h *handlers) repositoryError(c echo.Context, m *requestMetrics, action string, err error) error {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		m.SetErrorStage("not_found")
		return c.JSON(http.StatusNotFound, errorResponse{Error: msgTaskMissing})
	case errors.Is(err, postgres.ErrInvalid):
		m.SetErrorStage("validation")
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	m.SetErrorStage("repository")
	h.logger.WithFields(log.Fields{"error": err.Error()}).Errorf("error %s", action)
	return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgInternal})
}

func taskID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeBody(c echo.Context, v any) error {
	lr := io.LimitReader(c.Request().Body, maxBodySize)
	return sonic.ConfigStd.NewDecoder(lr).Decode(v)
}
