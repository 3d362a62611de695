// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pipdash/internal/http/handlers"
	"pipdash/internal/http/middleware"
	"pipdash/internal/modules/chat"
	"pipdash/internal/modules/location"
	"pipdash/internal/modules/widgets"
)

type RouterDeps struct {
	Location      *location.Service
	LocationStore *location.Store
	Widgets       *widgets.Service
	Chat          *chat.Service // nil when no API key is configured
}

func NewRouter(deps RouterDeps) http.Handler {
	r := gin.New()
	r.Use(middleware.Logging(), middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	locationHandler := handlers.NewLocationHandler(deps.Location, deps.LocationStore)
	r.GET("/api/location", locationHandler.Get)
	r.GET("/api/location/settings", locationHandler.GetSettings)
	r.PUT("/api/location/settings", locationHandler.PutSettings)
	r.POST("/api/location/refresh", locationHandler.Refresh)
	r.POST("/api/location/fix", locationHandler.PostFix)
	r.GET("/api/location/search", locationHandler.Search)

	widgetHandler := handlers.NewWidgetHandler(deps.Widgets)
	r.GET("/api/tabs", widgetHandler.ListTabs)
	r.POST("/api/tabs", widgetHandler.CreateTab)
	r.DELETE("/api/tabs/:id", widgetHandler.DeleteTab)
	r.GET("/api/widgets", widgetHandler.ListWidgets)
	r.POST("/api/widgets", widgetHandler.CreateWidget)
	r.PUT("/api/widgets/:id/settings", widgetHandler.UpdateSettings)
	r.PUT("/api/widgets/:id/placement", widgetHandler.UpdatePlacement)
	r.DELETE("/api/widgets/:id", widgetHandler.DeleteWidget)

	chatHandler := handlers.NewChatHandler(deps.Chat)
	r.POST("/api/chat", chatHandler.Ask)

	return r
}
