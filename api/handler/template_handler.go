package handler

import (
	"context"
	"errors"
	"net/http"

	"sandhai/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type TemplateHandler struct {
	Service *service.TemplateSyncService
	Log     *logrus.Logger
}

func NewTemplateHandler(svc *service.TemplateSyncService, log *logrus.Logger) *TemplateHandler {
	return &TemplateHandler{
		Service: svc,
		Log:     log,
	}
}

func (h *TemplateHandler) Status(c echo.Context) error {
	meta := h.Service.Metadata()
	return c.JSON(http.StatusOK, map[string]any{
		"status":     meta.Status,
		"last_sync":  meta.LastSync,
		"file_count": meta.FileCount,
		"repo":       meta.Repo,
		"branch":     meta.Branch,
	})
}

// TriggerSync starts a background sync and returns immediately.
func (h *TemplateHandler) TriggerSync(c echo.Context) error {
	if err := h.Service.MarkSyncing(); err != nil {
		return writeError(c, http.StatusInternalServerError, err)
	}
	go func() {
		if err := h.Service.Sync(context.Background()); err != nil && h.Log != nil {
			h.Log.WithError(err).Error("background template sync failed")
		}
	}()
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Sync started",
		"status":  "syncing",
	})
}

func (h *TemplateHandler) ListFiles(c echo.Context) error {
	// First read against a cold cache triggers a sync.
	if h.Service.Metadata().Status != "synced" {
		if err := h.Service.Sync(c.Request().Context()); err != nil {
			return writeSyncError(c, err)
		}
	}

	listing, err := h.Service.ListFiles(c.QueryParam("path"))
	if err != nil {
		return writeSyncError(c, err)
	}
	return c.JSON(http.StatusOK, listing)
}

func (h *TemplateHandler) FileContent(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return writeError(c, http.StatusBadRequest, errors.New("path is required"))
	}
	content, err := h.Service.ReadFile(path)
	if err != nil {
		return writeSyncError(c, err)
	}
	return c.JSON(http.StatusOK, content)
}

func writeSyncError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrPathNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrNotADirectory),
		errors.Is(err, service.ErrNotAFile),
		errors.Is(err, service.ErrFileTooLarge),
		errors.Is(err, service.ErrBinaryFile),
		errors.Is(err, service.ErrInvalidSyncPath):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrSyncRateLimited):
		status = http.StatusTooManyRequests
	}
	return writeError(c, status, err)
}
