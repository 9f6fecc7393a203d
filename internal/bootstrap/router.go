package bootstrap

import (
	"time"

	httpapi "github.com/bmp-tn/project-admin/internal/api/http"
	"github.com/bmp-tn/project-admin/internal/api/http/middleware"
	projectshttp "github.com/bmp-tn/project-admin/internal/projects/http"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterDeps struct {
	Health      httpapi.HealthDeps
	Console     *projectshttp.Handler
	CORSOrigins []string
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())

	// Engine-level so preflight requests, which match no route, still get answered.
	if len(dep.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     dep.CORSOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	healthHandler := httpapi.NewHealthHandler(dep.Health)
	healthHandler.RegisterRoutes(r)

	dep.Console.Register(&r.RouterGroup)

	api := r.Group("/api/v1")
	dep.Console.RegisterAPI(api)

	return r
}
