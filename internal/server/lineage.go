package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/lineage/internal/core"
	"github.com/agenthands/lineage/internal/core/model"
)

type linkRequest struct {
	SourceID     string             `json:"sourceId" binding:"required"`
	TargetID     string             `json:"targetId" binding:"required"`
	Relationship model.Relationship `json:"relationship"`
	Role         model.Role         `json:"role" binding:"required"`
}

func (s *Server) AddLink(c *gin.Context) {
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if req.Relationship == "" {
		req.Relationship = model.RelationshipBiological
	}
	link, err := s.Registry.AddRelationship(c.Request.Context(), req.SourceID, req.TargetID, req.Relationship, req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (s *Server) RemoveLink(c *gin.Context) {
	cascade, _ := strconv.ParseBool(c.Query("cascade"))
	removed, err := s.Registry.RemoveRelationship(c.Request.Context(), c.Param("id"), cascade)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) Tree(c *gin.Context) {
	depth, err := intQuery(c, "max_depth")
	if err != nil {
		badRequest(c, "invalid max_depth")
		return
	}
	node, err := s.Registry.Tree(c.Request.Context(), c.Param("rootId"), depth)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (s *Server) Ancestors(c *gin.Context) {
	depth, err := intQuery(c, "max_depth")
	if err != nil {
		badRequest(c, "invalid max_depth")
		return
	}
	out, err := s.Registry.Ancestors(c.Request.Context(), c.Param("id"), depth)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ancestors": out})
}

func (s *Server) Descendants(c *gin.Context) {
	depth, err := intQuery(c, "max_depth")
	if err != nil {
		badRequest(c, "invalid max_depth")
		return
	}
	out, err := s.Registry.Descendants(c.Request.Context(), c.Param("id"), depth)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"descendants": out})
}

type validateRequest struct {
	Member   memberRequest `json:"member"`
	ParentID string        `json:"parentId"`
}

// Validate reports the result for any well-formed candidate, valid or not.
func (s *Server) Validate(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	res, err := s.Registry.Validate(c.Request.Context(), req.Member.toMember(), req.ParentID)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type mergeRequest struct {
	Incoming    []*model.Member    `json:"incoming"`
	Resolutions []model.Resolution `json:"resolutions"`
}

func (s *Server) DetectConflicts(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	report, err := s.Registry.DetectConflicts(c.Request.Context(), req.Incoming)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) Merge(c *gin.Context) {
	var req mergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	summary, err := s.Registry.MergeBranch(c.Request.Context(), req.Incoming, req.Resolutions)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

const maxGEDCOMBytes = 10 << 20

func (s *Server) ImportGEDCOM(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxGEDCOMBytes))
	if err != nil {
		badRequest(c, "failed to read body")
		return
	}
	res, err := s.Registry.ImportGEDCOM(c.Request.Context(), string(body))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ExportGEDCOM(c *gin.Context) {
	text, err := s.Registry.ExportGEDCOM(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="lineage.ged"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
}

type bulkRequest struct {
	Mode    core.ImportMode `json:"mode"`
	Members []memberRequest `json:"members"`
}

func (s *Server) BulkImport(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	rows := make([]*model.Member, 0, len(req.Members))
	for _, m := range req.Members {
		rows = append(rows, m.toMember())
	}
	res, err := s.Registry.BulkImport(c.Request.Context(), rows, req.Mode)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) FloatingBranches(c *gin.Context) {
	out, err := s.Registry.FloatingBranches(c.Request.Context(), c.Query("anchor"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"branches": out})
}

func (s *Server) ReconcileFloating(c *gin.Context) {
	changed, err := s.Registry.ReconcileFloating(c.Request.Context(), c.Query("anchor"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

func (s *Server) RebuildMirror(c *gin.Context) {
	if err := s.Registry.RebuildMirror(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
