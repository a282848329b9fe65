package server

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) RecordReceipt(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.receiptSvc.ForRecord(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	pdf, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="receipt-`+id.String()+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
