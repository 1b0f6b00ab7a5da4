package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/auth"
	"github.com/mrlokans/shelf/internal/readonly"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Uses RouterConfig to receive all dependencies, improving testability
// and reducing parameter count.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	// Session runs for every route: the JSON API and the UI share the visitor's nav state
	router.Use(cfg.Sessions.SessionLoadSave())
	router.Use(cfg.Middleware.LoadSession())
	router.Use(readonly.NewMiddleware(cfg.ReadOnly).Handler())

	router.SetHTMLTemplate(LoadTemplates())

	requireAdmin := cfg.Middleware.RequireAdmin()

	health := NewHealthController(cfg.Store, cfg.Library, cfg.Version)
	catalog := NewCatalogController(cfg.Library, cfg.Catalog, cfg.Sessions)
	libraryAPI := NewLibraryController(cfg.Library, cfg.Sessions)
	stream := NewStreamController(cfg.Catalog)
	sessions := NewSessionController(cfg.Gate)
	admin := NewAdminController(cfg.Store, cfg.Activity, cfg.TaskClient)
	ui := NewUIController(cfg.Library, cfg.Sessions, cfg.Gate)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", Ping)

	api := router.Group("/api")

	// Catalog: reads are public, writes need an admin session
	api.GET("/authors", catalog.ListAuthors)
	api.GET("/authors/:id", catalog.GetAuthor)
	api.POST("/authors", requireAdmin, catalog.CreateAuthor)
	api.PATCH("/authors/:id", requireAdmin, catalog.UpdateAuthor)
	api.DELETE("/authors/:id", requireAdmin, catalog.DeleteAuthor)

	api.GET("/books", catalog.ListBooks)
	api.GET("/books/:id", catalog.GetBook)
	api.POST("/books", requireAdmin, catalog.CreateBook)
	api.PATCH("/books/:id", requireAdmin, catalog.UpdateBook)
	api.DELETE("/books/:id", requireAdmin, catalog.DeleteBook)

	api.GET("/chapters", catalog.ListChapters)
	api.GET("/chapters/:id", catalog.GetChapter)
	api.POST("/chapters", requireAdmin, catalog.CreateChapter)
	api.PATCH("/chapters/:id", requireAdmin, catalog.UpdateChapter)
	api.DELETE("/chapters/:id", requireAdmin, catalog.DeleteChapter)

	// Library view-model
	api.GET("/library", libraryAPI.GetView)
	api.POST("/library/select-author/:id", libraryAPI.SelectAuthor)
	api.POST("/library/select-book/:id", libraryAPI.SelectBook)
	api.POST("/library/back", libraryAPI.Back)

	api.GET("/stream", stream.Stream)

	// Session
	api.GET("/session", sessions.Current)
	api.POST("/session/login", sessions.Login)
	api.POST("/session/logout", sessions.Logout)

	// Maintenance and activity
	adminAPI := api.Group("", requireAdmin)
	adminAPI.POST("/admin/sweep", admin.Sweep)
	adminAPI.GET("/admin/tasks/:id", admin.TaskStatus)
	adminAPI.GET("/activity", admin.Activity)

	// UI routes. HTML forms are CSRF protected when a secret is configured.
	web := router.Group("")
	if len(cfg.CSRFSecret) > 0 {
		web.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.SecureCookies))
	}
	web.GET("/", ui.Page)
	web.GET("/ui/nav/author/:id", ui.SelectAuthor)
	web.GET("/ui/nav/book/:id", ui.SelectBook)
	web.GET("/ui/nav/back", ui.BackToBooks)
	web.GET("/ui/close-modal", ui.CloseModal)
	web.GET("/ui/modal/:name", ui.OpenModal)
	web.POST("/ui/session/login", ui.Login)
	web.POST("/ui/session/logout", ui.Logout)

	manage := web.Group("/ui", requireAdmin)
	manage.POST("/authors", ui.AddAuthor)
	manage.POST("/authors/:id", ui.UpdateAuthor)
	manage.POST("/authors/:id/delete", ui.RemoveAuthor)
	manage.POST("/books", ui.AddBook)
	manage.POST("/books/:id", ui.UpdateBook)
	manage.POST("/books/:id/delete", ui.RemoveBook)
	manage.POST("/chapters", ui.AddChapter)
	manage.POST("/chapters/:id", ui.UpdateChapter)
	manage.POST("/chapters/:id/delete", ui.RemoveChapter)

	return router
}
