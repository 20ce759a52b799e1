// Package server exposes the registry over HTTP with gin.
package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/lineage/internal/cache"
	"github.com/agenthands/lineage/internal/config"
	"github.com/agenthands/lineage/internal/core"
	"github.com/agenthands/lineage/internal/core/biography"
	"github.com/agenthands/lineage/internal/driver"
	"github.com/agenthands/lineage/internal/llm"
	"github.com/agenthands/lineage/internal/logger"
	"github.com/agenthands/lineage/internal/store"
)

type Server struct {
	Registry *core.Registry
	log      *logger.Logger
	closers  []func() error
}

// New serves an already assembled registry.
func New(reg *core.Registry, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{Registry: reg, log: log.With("component", "server")}
}

// NewServer assembles the store, optional graph mirror, tree cache and
// biography client from cfg. Optional services that fail to start are
// logged and left out.
func NewServer(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Server, error) {
	var (
		s       store.Store
		closers []func() error
	)
	switch cfg.Store.Backend {
	case "", "memory":
		s = store.NewMemoryStore()
	case "postgres", "sqlite":
		gs, err := store.OpenGorm(cfg.Store.Backend, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Backend, err)
		}
		s = gs
		closers = append(closers, gs.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	log.Info("store ready", "backend", cfg.Store.Backend)

	reg := core.NewRegistry(s, cfg.Lineage, log)

	if cfg.Memgraph.Enabled {
		d, err := driver.NewMemgraphDriver(ctx, cfg.Memgraph.URI, cfg.Memgraph.User, cfg.Memgraph.Password, log)
		if err != nil {
			log.Warn("graph mirror disabled", "uri", cfg.Memgraph.URI, "error", err)
		} else {
			if err := d.BuildIndices(ctx); err != nil {
				log.Warn("failed to build graph indices", "error", err)
			}
			reg.AttachMirror(core.NewProjector(d, log))
			closers = append(closers, func() error { return d.Close(context.Background()) })
		}
	}

	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisTreeCache(ctx, cfg.Redis)
		if err != nil {
			log.Warn("redis tree cache disabled", "addr", cfg.Redis.Addr, "error", err)
			reg.Trees = cache.NewMemoryTreeCache()
		} else {
			reg.Trees = rc
			closers = append(closers, rc.Close)
		}
	} else {
		reg.Trees = cache.NewMemoryTreeCache()
	}

	client, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Warn("biography drafting disabled", "provider", cfg.LLM.Provider, "error", err)
	} else if client != nil {
		reg.Biographer = biography.NewBiographer(client, cfg.Biography)
		if c, ok := client.(io.Closer); ok {
			closers = append(closers, c.Close)
		}
	}

	srv := New(reg, log)
	srv.closers = closers
	return srv, nil
}

// Close releases every backing connection opened by NewServer.
func (s *Server) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	members := r.Group("/members")
	{
		members.GET("", s.ListMembers)
		members.POST("", s.CreateMember)
		members.GET("/:id", s.GetMember)
		members.PUT("/:id", s.UpdateMember)
		members.DELETE("/:id", s.DeleteMember)
		members.GET("/:id/parents", s.Parents)
		members.GET("/:id/children", s.Children)
		members.GET("/:id/spouses", s.Spouses)
		members.POST("/:id/children", s.AddChild)
		members.POST("/:id/siblings", s.AddSibling)
		members.POST("/:id/spouses", s.AddSpouse)
		members.GET("/:id/cemetery", s.GetCemetery)
		members.PUT("/:id/cemetery", s.PutCemetery)
		members.GET("/:id/tributes", s.Tributes)
		members.POST("/:id/tributes", s.RecordTribute)
		members.POST("/:id/generation/shift", s.ShiftGeneration)
		members.POST("/:id/biography", s.DraftBiography)
	}

	r.GET("/public/members", s.PublicMembers)
	r.GET("/public/members/:id", s.PublicMember)

	r.POST("/links", s.AddLink)
	r.DELETE("/links/:id", s.RemoveLink)

	r.GET("/tree/:rootId", s.Tree)
	r.GET("/lineage/:id/ancestors", s.Ancestors)
	r.GET("/lineage/:id/descendants", s.Descendants)
	r.POST("/validate", s.Validate)

	r.POST("/merge/conflicts", s.DetectConflicts)
	r.POST("/merge", s.Merge)
	r.POST("/import/gedcom", s.ImportGEDCOM)
	r.GET("/export/gedcom", s.ExportGEDCOM)
	r.POST("/import/members", s.BulkImport)

	r.GET("/branches/floating", s.FloatingBranches)
	r.POST("/branches/reconcile", s.ReconcileFloating)
	r.POST("/admin/mirror/rebuild", s.RebuildMirror)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
