package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	billingdomain "github.com/careloop/clinicore/internal/billing/domain"
)

func (s *Server) CreateRecord(c *gin.Context) {
	var req billingdomain.CreateRecordInput
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.billingSvc.CreateRecord(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) GetRecord(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	record, err := s.billingSvc.GetRecord(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) ListRecords(c *gin.Context) {
	filter := billingdomain.ListFilter{
		RecordType: billingdomain.RecordType(strings.TrimSpace(c.Query("record_type"))),
		PatientID:  strings.TrimSpace(c.Query("patient_id")),
	}
	filter.LockedOnly = parseBoolQuery(c, "locked")
	filter.OutstandingOnly = parseBoolQuery(c, "outstanding")
	filter.Limit = parseIntQuery(c, "limit", 50)
	filter.Offset = parseIntQuery(c, "offset", 0)

	records, err := s.billingSvc.ListRecords(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

func (s *Server) ApplyRecordUpdate(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var patch billingdomain.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.billingSvc.ApplyUpdate(c.Request.Context(), id, patch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) AddInstallment(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var entry billingdomain.InstallmentEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	record, err := s.billingSvc.ApplyUpdate(c.Request.Context(), id, billingdomain.UpdatePatch{
		AddInstallment: &entry,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (s *Server) RemoveInstallment(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	installmentID := strings.TrimSpace(c.Param("installment_id"))
	if installmentID == "" {
		AbortWithError(c, newValidationError("installment_id", "invalid_request", "invalid request"))
		return
	}

	record, err := s.billingSvc.ApplyUpdate(c.Request.Context(), id, billingdomain.UpdatePatch{
		RemoveInstallmentID: installmentID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (s *Server) RecordAuditTrail(c *gin.Context) {
	id, err := parseRecordID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entries, err := s.auditSvc.ListByTarget(c.Request.Context(), "billable_record", id.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func parseRecordID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		return 0, newValidationError("id", "invalid_record_id", "invalid record id")
	}
	return id, nil
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && value
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
