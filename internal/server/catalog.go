package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	catalogdomain "github.com/careloop/clinicore/internal/catalog/domain"
)

func (s *Server) ListCostLines(c *gin.Context) {
	department := parseDepartment(c)

	lines, err := s.catalogSvc.List(c.Request.Context(), department)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

func (s *Server) CreateCostLine(c *gin.Context) {
	var req catalogdomain.CreateCostLineInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Department = parseDepartment(c)

	line, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, line)
}

func (s *Server) QuoteSelections(c *gin.Context) {
	var req struct {
		Selections []catalogdomain.Selection `json:"selections"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	quote, err := s.catalogSvc.ComputeTotal(c.Request.Context(), parseDepartment(c), req.Selections)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

func parseDepartment(c *gin.Context) catalogdomain.Department {
	return catalogdomain.Department(strings.ToLower(strings.TrimSpace(c.Param("department"))))
}
