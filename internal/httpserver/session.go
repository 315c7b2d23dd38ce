package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"orderledger/internal/auth"
)

func (h *handler) me(c *gin.Context) {
	id, _ := auth.FromContext(c)
	c.JSON(http.StatusOK, id)
}

// dashboard and signIn only answer for the gate; pages are rendered by the
// web client.
func (h *handler) dashboard(c *gin.Context) {
	id, _ := auth.FromContext(c)
	c.JSON(http.StatusOK, gin.H{"page": "dashboard", "user": id})
}

func (h *handler) signIn(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "signin"})
}
