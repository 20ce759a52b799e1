package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/lineage/internal/core/biography"
	"github.com/agenthands/lineage/internal/core/model"
)

// fail maps a registry error onto a status code and body. Internal details
// only leave the process for validation and merge failures; every other
// error body is the generic "request failed".
func (s *Server) fail(c *gin.Context, err error) {
	var (
		verr     *model.ValidationError
		conflict *model.MergeConflictError
		partial  *model.PartialMergeError
	)
	switch {
	case errors.As(err, &partial):
		s.log.Error("merge partially applied", "failed_index", partial.FailedIndex, "error", partial.Err)
		body := gin.H{
			"error":       "merge partially applied",
			"failedIndex": partial.FailedIndex,
			"summary":     partial.Summary,
		}
		if errors.As(partial.Err, &verr) {
			body["errors"] = verr.Messages()
			body["failures"] = verr.Failures
		}
		c.JSON(http.StatusInternalServerError, body)
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": "unresolved conflicts", "conflicts": conflict.Conflicts})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "validation failed",
			"errors":   verr.Messages(),
			"failures": verr.Failures,
		})
	case errors.Is(err, model.ErrValidationFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "errors": []string{err.Error()}})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request failed"})
	case errors.Is(err, model.ErrDuplicateEdge):
		c.JSON(http.StatusConflict, gin.H{"error": "request failed"})
	case errors.Is(err, biography.ErrDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "biography drafting is not configured"})
	default:
		s.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "request failed"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
