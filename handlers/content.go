package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/folio-cms/folio/internal/binder"
	"github.com/folio-cms/folio/internal/content"
	"github.com/folio-cms/folio/internal/page"
	"github.com/folio-cms/folio/internal/store"
	"github.com/folio-cms/folio/pkg/logger"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

// keepAlive is how often an idle stream sends a ping event.
var keepAlive = 25 * time.Second

// ContentHandler exposes the page sections over REST and SSE.
type ContentHandler struct {
	page *page.Page
}

func NewContentHandler(p *page.Page) *ContentHandler {
	return &ContentHandler{page: p}
}

// Register mounts read routes on public and write routes on owner.
func (h *ContentHandler) Register(public, owner *gin.RouterGroup) {
	public.GET("/content/:area", h.GetDocument)
	public.GET("/content/:area/stream", h.StreamDocument)
	public.GET("/collections/:name", h.ListItems)
	public.GET("/collections/:name/stream", h.StreamCollection)

	owner.PATCH("/content/:area", h.SaveDocument)
	owner.POST("/collections/:name", h.AddItem)
	owner.PATCH("/collections/:name/:id", h.SaveItem)
	owner.DELETE("/collections/:name/:id", h.DeleteItem)
	owner.POST("/collections/:name/:id/gallery", h.AddSlide)
	owner.PUT("/collections/:name/:id/gallery/:index", h.UpdateSlide)
	owner.DELETE("/collections/:name/:id/gallery/:index", h.DeleteSlide)
	owner.POST("/collections/:name/:id/fit", h.ToggleFit)
}

func (h *ContentHandler) document(c *gin.Context) (*binder.DocumentBinder, bool) {
	b, ok := h.page.Document(c.Param("area"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown content area"})
	}
	return b, ok
}

func (h *ContentHandler) collection(c *gin.Context) (*binder.CollectionBinder, bool) {
	b, ok := h.page.Collection(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown collection"})
	}
	return b, ok
}

func documentBody(b *binder.DocumentBinder) gin.H {
	return gin.H{"area": b.Section().Name, "loaded": b.Loaded(), "fields": b.Snapshot()}
}

func collectionBody(b *binder.CollectionBinder) gin.H {
	return gin.H{"collection": b.Section().Collection, "loaded": b.Loaded(), "items": b.Items()}
}

// writeError maps binder and store errors to responses. Anything not
// recognised is a failed remote write.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, content.ErrUnknownField), errors.Is(err, content.ErrInvalidValue):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, binder.ErrReadOnly):
		c.JSON(http.StatusForbidden, gin.H{"error": "edit mode is off"})
	case errors.Is(err, binder.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "content is not available"})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "write failed"})
	}
}

// await waits for the background write. A client that goes away does not
// cancel the write; it just gets no answer.
func await(c *gin.Context, done <-chan error) (bool, error) {
	select {
	case err := <-done:
		return true, err
	case <-c.Request.Context().Done():
		return false, nil
	}
}

func (h *ContentHandler) GetDocument(c *gin.Context) {
	b, ok := h.document(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, documentBody(b))
}

func (h *ContentHandler) ListItems(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, collectionBody(b))
}

func (h *ContentHandler) SaveDocument(c *gin.Context) {
	b, ok := h.document(c)
	if !ok {
		return
	}
	var req content.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok, err := await(c, b.HandleSave(c.Request.Context(), req.Field, req.Value))
	if !ok {
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, documentBody(b))
}

func (h *ContentHandler) AddItem(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	id, err := b.Add(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ContentHandler) itemResult(c *gin.Context, b *binder.CollectionBinder, done <-chan error) {
	ok, err := await(c, done)
	if !ok {
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	it, found := b.Item(c.Param("id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (h *ContentHandler) SaveItem(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	var req content.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.itemResult(c, b, b.Save(c.Request.Context(), c.Param("id"), req.Field, req.Value))
}

// confirmFlag turns ?confirm=true into the blocking confirmation. Without
// it the prompt is returned to the client with 409.
func confirmFlag(c *gin.Context) binder.Confirmer {
	return binder.ConfirmFunc(func(string) bool {
		ok, _ := strconv.ParseBool(c.Query("confirm"))
		return ok
	})
}

func (h *ContentHandler) DeleteItem(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	err := b.Delete(c.Request.Context(), c.Param("id"), confirmFlag(c))
	switch {
	case errors.Is(err, binder.ErrNotConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "confirmation required", "prompt": b.Section().DeletePrompt})
	case err != nil:
		writeError(c, err)
	default:
		c.Status(http.StatusNoContent)
	}
}

func slideIndex(c *gin.Context) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slide index"})
		return 0, false
	}
	return i, true
}

func (h *ContentHandler) AddSlide(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	index, done := b.AddSlide(c.Request.Context(), c.Param("id"))
	ok, err := await(c, done)
	if !ok {
		return
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"index": index})
}

func (h *ContentHandler) UpdateSlide(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	index, ok := slideIndex(c)
	if !ok {
		return
	}
	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.itemResult(c, b, b.UpdateSlide(c.Request.Context(), c.Param("id"), index, req.URL))
}

func (h *ContentHandler) DeleteSlide(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	index, ok := slideIndex(c)
	if !ok {
		return
	}
	ok, err := await(c, b.DeleteSlide(c.Request.Context(), c.Param("id"), index, confirmFlag(c)))
	if !ok {
		return
	}
	switch {
	case errors.Is(err, binder.ErrNotConfirmed):
		c.JSON(http.StatusConflict, gin.H{"error": "confirmation required", "prompt": content.DeleteSlidePrompt})
	case err != nil:
		writeError(c, err)
	default:
		it, _ := b.Item(c.Param("id"))
		c.JSON(http.StatusOK, it)
	}
}

func (h *ContentHandler) ToggleFit(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	h.itemResult(c, b, b.ToggleFit(c.Request.Context(), c.Param("id")))
}

func (h *ContentHandler) StreamDocument(c *gin.Context) {
	b, ok := h.document(c)
	if !ok {
		return
	}
	stream(c, "document", b.OnChange, func() interface{} { return documentBody(b) })
}

func (h *ContentHandler) StreamCollection(c *gin.Context) {
	b, ok := h.collection(c)
	if !ok {
		return
	}
	stream(c, "collection", b.OnChange, func() interface{} { return collectionBody(b) })
}

// stream pushes snapshot() as an SSE event now and after every change,
// until the client disconnects. Bursts of changes coalesce into one event
// carrying the latest state.
func stream(c *gin.Context, kind string, onChange func(func()) func(), snapshot func() interface{}) {
	changed := make(chan struct{}, 1)
	off := onChange(func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	})
	defer off()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	seq := 0
	send := func(event string, data interface{}) {
		seq++
		c.Render(-1, sse.Event{Id: strconv.Itoa(seq), Event: event, Data: data})
		c.Writer.Flush()
	}
	send("snapshot", snapshot())

	ping := time.NewTicker(keepAlive)
	defer ping.Stop()
	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			logger.Debugf("%s stream closed: %s", kind, c.Request.URL.Path)
			return
		case <-changed:
			send("snapshot", snapshot())
		case <-ping.C:
			send("ping", "")
		}
	}
}
