package handlers

import (
	"errors"
	"net/http"

	"github.com/folio-cms/folio/internal/media"
	"github.com/gin-gonic/gin"
)

// MaxUploadBytes caps a single image upload.
const MaxUploadBytes = 10 << 20

// MediaHandler forwards owner image uploads to the configured backend.
type MediaHandler struct {
	uploader media.Uploader
}

func NewMediaHandler(u media.Uploader) *MediaHandler {
	return &MediaHandler{uploader: u}
}

func (h *MediaHandler) Register(owner *gin.RouterGroup) {
	owner.POST("/media", h.Upload)
}

// Upload takes a multipart "file" and answers {"url": ...}. Failures of
// the upload service are 502 with the service message or the fallback.
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "media uploads are not configured"})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes)
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !media.IsImage(contentType) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": media.Message(media.ErrNotImage)})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is unreadable"})
		return
	}
	defer f.Close()

	url, err := h.uploader.Upload(c.Request.Context(), fh.Filename, contentType, f, fh.Size)
	if errors.Is(err, media.ErrNotImage) {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": media.Message(err)})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": media.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
