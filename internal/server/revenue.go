package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	revenuedomain "github.com/careloop/clinicore/internal/revenue/domain"
)

func (s *Server) RevenueSummary(c *gin.Context) {
	window := revenuedomain.Window(strings.ToLower(strings.TrimSpace(c.Query("window"))))
	if window == "" {
		window = revenuedomain.WindowToday
	}

	summary, err := s.revenueSvc.Summarize(c.Request.Context(), window)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
