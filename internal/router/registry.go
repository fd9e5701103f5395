package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Module describes a feature module that can register its routes on a RouterGroup
type Module interface {
	Register(rg *gin.RouterGroup)
}

// Registry collects API-wide middleware and feature modules, then mounts them
// under /api in one pass.
type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

func (r *Registry) Use(mw ...gin.HandlerFunc) { r.middlewares = append(r.middlewares, mw...) }

func (r *Registry) Add(mod Module) { r.modules = append(r.modules, mod) }

// RegisterAll mounts middleware before modules so every module route gets it.
// /healthz stays outside /api and its middleware.
func (r *Registry) RegisterAll() {
	r.Engine.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}
