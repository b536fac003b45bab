package handler

import (
	"people_api/internal/middleware"
	"people_api/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 汇总全部接口处理器。
type Handlers struct {
	People    *PeopleHandler
	Directory *DirectoryHandler
	Term      *TermHandler
	Health    *HealthHandler
}

// RegisterRoutes 注册业务路由（prefix 默认 /wp-json/peopleapi/v1）和 /ping、/health、/metrics。
// jwtManager 为 nil 时写接口不做鉴权。
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, jwtManager *token.JWTManager) {
	if h.Health != nil {
		r.GET("/ping", h.Health.Ping)
		r.GET("/health", h.Health.Health)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group(prefix)
	{
		api.GET("/people", h.People.List)
		api.GET("/terms", h.Term.Search)
		api.GET("/get-all-terms", h.Term.ListAll)

		api.GET("/editor/directory/path", h.Directory.Path)
		api.GET("/directory/search", h.Directory.Search)
		api.GET("/directory/children/:id", h.Directory.Children)
		api.GET("/directory/descendants/:id", h.Directory.Descendants)
		api.GET("/directory/:id", h.Directory.Get)
	}

	editor := r.Group(prefix)
	if jwtManager != nil {
		editor.Use(middleware.EditorAuth(jwtManager))
	}
	{
		editor.POST("/create-organization", h.Term.CreateOrganization)
		editor.PUT("/sync-organization", h.Term.SyncOrganization)
	}
}
