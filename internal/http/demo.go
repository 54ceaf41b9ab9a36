package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/library/internal/demo"
)

// DemoStatusResponse tells clients whether the catalog and loan ledger accept writes.
type DemoStatusResponse struct {
	Enabled       bool     `json:"enabled"`
	Message       string   `json:"message"`
	AllowedWrites []string `json:"allowedWrites"`
}

type DemoController struct {
	mode *demo.Middleware
}

// NewDemoController takes the demo middleware, nil when demo mode is off.
func NewDemoController(mode *demo.Middleware) *DemoController {
	return &DemoController{mode: mode}
}

// GetStatus handles GET /demo/status
func (dc *DemoController) GetStatus(c *gin.Context) {
	resp := DemoStatusResponse{
		Enabled:       dc.mode.IsEnabled(),
		Message:       "The library accepts catalog changes and loans",
		AllowedWrites: []string{},
	}
	if resp.Enabled {
		resp.Message = "Read-only demo library: sign in with a sample account to browse books and loans"
		resp.AllowedWrites = dc.mode.AllowedWrites()
	}
	c.JSON(http.StatusOK, resp)
}
