package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/lineage/internal/core/model"
)

// memberRequest lets isAlive default to true when the caller omits it.
type memberRequest struct {
	model.Member
	IsAlive *bool `json:"isAlive"`
}

func (r memberRequest) toMember() *model.Member {
	m := r.Member.Clone()
	m.IsAlive = r.IsAlive == nil || *r.IsAlive
	return m
}

func (s *Server) ListMembers(c *gin.Context) {
	var filter model.MemberFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid filter")
		return
	}
	members, err := s.Registry.ListMembers(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

func (s *Server) CreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := s.Registry.CreateMember(c.Request.Context(), req.toMember(), c.Query("parent_id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) GetMember(c *gin.Context) {
	m, err := s.Registry.GetMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) UpdateMember(c *gin.Context) {
	var upd model.MemberUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := s.Registry.UpdateMember(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) DeleteMember(c *gin.Context) {
	if err := s.Registry.DeleteMember(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) Parents(c *gin.Context) {
	out, err := s.Registry.Parents(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"parents": out})
}

func (s *Server) Children(c *gin.Context) {
	out, err := s.Registry.Children(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"children": out})
}

func (s *Server) Spouses(c *gin.Context) {
	out, err := s.Registry.Spouses(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"spouses": out})
}

func (s *Server) AddChild(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := s.Registry.AddChild(c.Request.Context(), c.Param("id"), req.toMember())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) AddSibling(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	m, err := s.Registry.AddSibling(c.Request.Context(), c.Param("id"), req.toMember())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (s *Server) AddSpouse(c *gin.Context) {
	var sp model.Spouse
	if err := c.ShouldBindJSON(&sp); err != nil {
		badRequest(c, "invalid request")
		return
	}
	if _, err := s.Registry.GetMember(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	out, err := s.Registry.AddSpouse(c.Request.Context(), c.Param("id"), &sp)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (s *Server) GetCemetery(c *gin.Context) {
	out, err := s.Registry.Cemetery(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) PutCemetery(c *gin.Context) {
	var rec model.Cemetery
	if err := c.ShouldBindJSON(&rec); err != nil {
		badRequest(c, "invalid request")
		return
	}
	out, err := s.Registry.SetCemetery(c.Request.Context(), c.Param("id"), &rec)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) Tributes(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, "invalid limit")
		return
	}
	out, err := s.Registry.Tributes(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tributes": out})
}

func (s *Server) RecordTribute(c *gin.Context) {
	var entry model.MemorialLog
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, "invalid request")
		return
	}
	out, err := s.Registry.RecordTribute(c.Request.Context(), c.Param("id"), &entry)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

type shiftRequest struct {
	Delta int `json:"delta"`
}

func (s *Server) ShiftGeneration(c *gin.Context) {
	var req shiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	shifted, err := s.Registry.ShiftGeneration(c.Request.Context(), c.Param("id"), req.Delta)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifted": shifted})
}

func (s *Server) DraftBiography(c *gin.Context) {
	text, err := s.Registry.DraftBiography(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"biography": text})
}

func (s *Server) PublicMembers(c *gin.Context) {
	var filter model.MemberFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		badRequest(c, "invalid filter")
		return
	}
	out, err := s.Registry.PublicMembers(c.Request.Context(), filter)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

func (s *Server) PublicMember(c *gin.Context) {
	out, err := s.Registry.PublicMember(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// intQuery reads an optional integer query parameter; absent means 0.
func intQuery(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
