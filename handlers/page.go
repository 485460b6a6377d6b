package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/folio-cms/folio/pkg/middleware"
	"github.com/gin-gonic/gin"
)

// PageHandler serves the rendered portfolio. The edit variant is served
// when OptionalAuth found a valid owner token.
type PageHandler struct {
	page *page.Page
}

func NewPageHandler(p *page.Page) *PageHandler {
	return &PageHandler{page: p}
}

func (h *PageHandler) Register(r gin.IRoutes) {
	r.GET("/", h.Index)
	r.GET("/projects/:id", h.Project)
}

func editMode(c *gin.Context) bool {
	return middleware.Subject(c) != ""
}

func (h *PageHandler) Index(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.page.Render(&buf, editMode(c)); err != nil {
		logger.Errorf("render page: %v", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) Project(c *gin.Context) {
	slide, _ := strconv.Atoi(c.Query("slide"))
	var buf bytes.Buffer
	err := h.page.RenderProject(&buf, c.Param("id"), slide, editMode(c))
	if errors.Is(err, page.ErrNoProject) {
		c.String(http.StatusNotFound, "project not found")
		return
	}
	if err != nil {
		logger.Errorf("render project: %v", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
