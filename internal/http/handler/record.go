package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cornip/Rina/internal/http/dto"
	"github.com/cornip/Rina/internal/model"
	"github.com/cornip/Rina/internal/store"
)

const defaultRecordLimit = 50

type RecordHandler struct {
	records store.ActionRecordStore
}

func NewRecordHandler(records store.ActionRecordStore) *RecordHandler {
	return &RecordHandler{records: records}
}

// List returns recent records, optionally for one subject.
func (h *RecordHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ListRecordsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		slog.WarnContext(ctx, "invalid list records query", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultRecordLimit
	}

	var (
		rows []model.ActionRecord
		err  error
	)
	if req.SubjectID != "" {
		rows, err = h.records.ListBySubject(ctx, req.SubjectID, req.Limit)
	} else {
		rows, err = h.records.ListRecent(ctx, req.Limit)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to list records", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": dto.ToActionRecordResponses(rows)})
}

func (h *RecordHandler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	rec, err := h.records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		slog.ErrorContext(ctx, "failed to get record", "record_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get record"})
		return
	}

	c.JSON(http.StatusOK, dto.ToActionRecordResponse(*rec))
}
