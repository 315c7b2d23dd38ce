package httpserver

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/storage"
)

type uploadStore interface {
	Put(ctx context.Context, category, filename, contentType string, r io.Reader, size int64) (*storage.Object, error)
}

// upload stores a multipart "file" under the "category" form field and
// returns its public URL for use as imageUrl or audioUrl.
func (h *handler) upload(c *gin.Context) {
	if h.deps.Uploads == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "Uploads are not configured"})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "File is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err, "", "Failed to upload file")
		return
	}
	defer f.Close()

	obj, err := h.deps.Uploads.Put(c.Request.Context(), c.PostForm("category"), fh.Filename, fh.Header.Get("Content-Type"), f, fh.Size)
	if err != nil {
		h.fail(c, err, "", "Failed to upload file")
		return
	}
	c.JSON(http.StatusCreated, obj)
}
