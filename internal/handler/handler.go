package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/thumbnail-service/internal/domain"
	"github.com/weiawesome/thumbnail-service/internal/event"
	"github.com/weiawesome/thumbnail-service/internal/processor"
	"github.com/weiawesome/thumbnail-service/pkg/log"
	"github.com/weiawesome/thumbnail-service/pkg/response"
)

// maxNotificationBytes caps webhook bodies; notification documents are small.
const maxNotificationBytes = 1 << 20

// NotificationHandler processes decoded bucket notifications.
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n *event.Notification) ([]*processor.Result, error)
}

// ThumbnailLookup reads recorded thumbnails.
type ThumbnailLookup interface {
	ListByFileID(ctx context.Context, fileID string) ([]*domain.ThumbnailCreated, error)
}

// Handler serves the bucket notification webhook.
type Handler struct {
	processor NotificationHandler
	thumbs    ThumbnailLookup
}

// Option configures a Handler.
type Option func(*Handler)

// WithThumbnailLookup exposes GET /api/v1/thumbnails/:fileId.
func WithThumbnailLookup(l ThumbnailLookup) Option {
	return func(h *Handler) { h.thumbs = l }
}

// NewHandler creates a new HTTP handler.
func NewHandler(p NotificationHandler, opts ...Option) *Handler {
	h := &Handler{processor: p}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes registers all routes behind the given middlewares.
func (h *Handler) RegisterRoutes(r *gin.Engine, middlewares ...gin.HandlerFunc) {
	api := r.Group("/api/v1", middlewares...)
	{
		api.POST("/events", h.HandleEvents)
		if h.thumbs != nil {
			api.GET("/thumbnails/:fileId", h.ListThumbnails)
		}
	}
}

// HandleEvents accepts an S3/MinIO notification document and processes every
// record synchronously. Any pipeline failure turns the response into a 500
// so the sender's retry policy applies.
func (h *Handler) HandleEvents(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		l.Warn().Err(err).Msg("failed to read notification body")
		response.BadRequest(c, "unreadable body")
		return
	}

	n, err := event.Parse(body)
	if err != nil {
		if errors.Is(err, event.ErrNoRecords) {
			response.Success(c, []*processor.Result{})
			return
		}
		l.Warn().Err(err).Msg("failed to decode notification")
		response.BadRequest(c, err.Error())
		return
	}

	results, err := h.processor.HandleNotification(ctx, n)
	if err != nil {
		l.Error().Err(err).Msg("thumbnail pipeline failed")
		response.Failure(c, http.StatusInternalServerError, "PIPELINE_FAILED", err.Error(), results)
		return
	}

	response.Success(c, results)
}

// ListThumbnails returns every thumbnail recorded for a file id.
func (h *Handler) ListThumbnails(c *gin.Context) {
	ctx := c.Request.Context()

	thumbs, err := h.thumbs.ListByFileID(ctx, c.Param("fileId"))
	if err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Msg("failed to list thumbnails")
		response.InternalError(c, "failed to list thumbnails")
		return
	}
	response.Success(c, thumbs)
}
