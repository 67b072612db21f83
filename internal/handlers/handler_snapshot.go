package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/internal/apperrors"
	portsrepo "github.com/SscSPs/mma_local/internal/core/ports/repositories"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

const maxSnapshotBytes = 64 << 20

// SnapshotController exports, imports and backs up the store.
type SnapshotController interface {
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, blob []byte) error
	Backup(ctx context.Context, sink portsrepo.BackupSink, name string) (string, error)
	Restore(ctx context.Context, sink portsrepo.BackupSink, name string) error
	List(ctx context.Context, sink portsrepo.BackupSink) ([]string, error)
}

type snapshotHandler struct {
	snapshots SnapshotController
	sinks     map[string]portsrepo.BackupSink
}

func registerSnapshotRoutes(rg *gin.RouterGroup, snapshots SnapshotController, sinks map[string]portsrepo.BackupSink) {
	h := &snapshotHandler{snapshots: snapshots, sinks: sinks}

	rg.GET("/snapshot", h.export)
	rg.POST("/snapshot", h.importSnapshot)

	b := rg.Group("/backups")
	{
		b.POST("", h.backup)
		b.GET("/:sink", h.list)
		b.POST("/:sink/:name/restore", h.restore)
	}
}

// export godoc
// @Summary Export a snapshot
// @Description Serializes every entity table into one versioned JSON document
// @Tags snapshot
// @Produce  json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /snapshot [get]
func (h *snapshotHandler) export(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	blob, err := h.snapshots.Export(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to export snapshot")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="mma-snapshot.json"`)
	c.Data(http.StatusOK, "application/json", blob)
}

// importSnapshot godoc
// @Summary Import a snapshot
// @Description Replaces every entity table atomically. An incompatible document leaves the store untouched.
// @Tags snapshot
// @Accept  json
// @Success 204
// @Failure 422 {object} ErrorResponse "Incompatible snapshot"
// @Security BearerAuth
// @Router /snapshot [post]
func (h *snapshotHandler) importSnapshot(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	blob, err := io.ReadAll(io.LimitReader(c.Request.Body, maxSnapshotBytes+1))
	if err != nil {
		bindError(c, logger, err)
		return
	}
	if len(blob) > maxSnapshotBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Snapshot is too large"})
		return
	}

	if err := h.snapshots.Import(c.Request.Context(), blob); err != nil {
		respondError(c, logger, err, "Failed to import snapshot")
		return
	}
	logger.Info("Snapshot imported", slog.Int("bytes", len(blob)))
	c.Status(http.StatusNoContent)
}

func (h *snapshotHandler) sink(name string) (portsrepo.BackupSink, error) {
	s, ok := h.sinks[name]
	if !ok {
		return nil, fmt.Errorf("%w: backup target %q is not configured", apperrors.ErrValidation, name)
	}
	return s, nil
}

// backup godoc
// @Summary Write a backup
// @Tags snapshot
// @Accept  json
// @Produce  json
// @Param   backup body dto.BackupRequest true "Target"
// @Success 201 {object} dto.BackupResponse
// @Security BearerAuth
// @Router /backups [post]
func (h *snapshotHandler) backup(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BackupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	sink, err := h.sink(req.Sink)
	if err != nil {
		respondError(c, logger, err, "Invalid backup target")
		return
	}

	name, err := h.snapshots.Backup(c.Request.Context(), sink, req.Name)
	if err != nil {
		respondError(c, logger, err, "Failed to write backup")
		return
	}
	c.JSON(http.StatusCreated, dto.BackupResponse{Sink: req.Sink, Name: name})
}

func (h *snapshotHandler) list(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	sink, err := h.sink(c.Param("sink"))
	if err != nil {
		respondError(c, logger, err, "Invalid backup target")
		return
	}
	names, err := h.snapshots.List(c.Request.Context(), sink)
	if err != nil {
		respondError(c, logger, err, "Failed to list backups")
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

func (h *snapshotHandler) restore(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("sink", c.Param("sink")), slog.String("name", c.Param("name")))
	sink, err := h.sink(c.Param("sink"))
	if err != nil {
		respondError(c, logger, err, "Invalid backup target")
		return
	}
	if err := h.snapshots.Restore(c.Request.Context(), sink, c.Param("name")); err != nil {
		respondError(c, logger, err, "Failed to restore backup")
		return
	}
	logger.Info("Backup restored")
	c.Status(http.StatusNoContent)
}
