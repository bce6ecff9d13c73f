package main

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rtucker-mozilla/minventory/internal/handlers"
	"github.com/rtucker-mozilla/minventory/internal/middleware"
	"github.com/rtucker-mozilla/minventory/internal/web"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func newPrometheus() *ginprometheus.Prometheus {
	p := ginprometheus.NewPrometheus("minventory")
	p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
		url := c.Request.URL.Path
		for _, p := range c.Params {
			url = strings.Replace(url, p.Value, ":"+p.Key, 1)
		}
		return url
	}
	return p
}

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices, tmpl *template.Template) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))
	newPrometheus().Use(r)

	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/health", svc.healthHandler.CheckHealth)
	r.GET("/metrics/inventory", handlers.Metrics)

	auth := svc.authOptions()

	// API routes
	api := r.Group("/api")
	{
		// Auth routes (public, rate limited)
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", svc.loginLimiter.Middleware(), svc.authHandler.Login)
			authGroup.GET("/config", svc.authHandler.GetAuthConfig)
		}

		// SSE Events (public)
		api.GET("/events/tasks", middleware.OptionalAuth(auth), svc.sseHandler.StreamTaskEvents)

		// Routes for the logged-in user
		protected := api.Group("", middleware.AuthRequired(auth), middleware.AuditLog())
		{
			protected.GET("/auth/me", svc.authHandler.GetCurrentUser)
			protected.POST("/auth/logout", svc.authHandler.Logout)
			protected.POST("/auth/password", svc.authHandler.ChangePassword)

			protected.GET("/profile", svc.userHandler.GetProfile)
			protected.PUT("/profile", svc.userHandler.UpdateProfile)
			protected.POST("/profile/api-key", svc.userHandler.RegenerateAPIKey)
		}

		// Admin routes
		admin := api.Group("", middleware.AuthRequired(auth), middleware.AdminRequired(), middleware.AuditLog())
		{
			admin.GET("/users", svc.userHandler.List)
			admin.PUT("/users/:id", svc.userHandler.Update)
			admin.DELETE("/users/:id", svc.userHandler.Delete)

			admin.GET("/system-logs", svc.systemLogHandler.List)
			admin.GET("/system-logs/modules", svc.systemLogHandler.GetModules)
			admin.GET("/system-logs/retention", svc.systemLogHandler.GetRetentionDays)
			admin.POST("/system-logs/cleanup", svc.systemLogHandler.Cleanup)
		}
	}

	// Inventory resources: reads are public, writes need a user. /tokenapi
	// serves the same resources for API key clients.
	inventoryMiddleware := []gin.HandlerFunc{
		middleware.OptionalAuth(auth),
		middleware.WriteRequiresAuth(),
		middleware.AuditLog(),
	}
	registerInventoryAPI(r.Group("/api", inventoryMiddleware...), svc)
	registerInventoryAPI(r.Group("/tokenapi", inventoryMiddleware...), svc)

	registerPages(r.Group("", inventoryMiddleware...), svc)

	// Searching posts a form but never writes.
	r.POST("/systems/quicksearch/", middleware.OptionalAuth(auth), svc.webHandler.Quicksearch)
}

func registerInventoryAPI(api *gin.RouterGroup, svc *appServices) {
	systems := api.Group("/systems")
	{
		systems.GET("", svc.systemHandler.List)
		systems.POST("", svc.systemHandler.Create)
		systems.GET("/:id", svc.systemHandler.Get)
		systems.PUT("/:id", svc.systemHandler.Update)
		systems.PATCH("/:id", svc.systemHandler.Update)
		systems.DELETE("/:id", svc.systemHandler.Delete)
		systems.GET("/:id/revisions", svc.systemHandler.Revisions)
		systems.GET("/:id/changelog", svc.systemHandler.ChangeLogs)
		systems.GET("/:id/key-values", svc.systemHandler.KeyValues)
	}

	racks := api.Group("/racks")
	{
		racks.GET("", svc.rackHandler.List)
		racks.POST("", svc.rackHandler.Create)
		racks.GET("/:id", svc.rackHandler.Get)
		racks.PUT("/:id", svc.rackHandler.Update)
		racks.PATCH("/:id", svc.rackHandler.Update)
		racks.DELETE("/:id", svc.rackHandler.Delete)
		racks.GET("/:id/systems", svc.rackHandler.Systems)
	}

	sites := api.Group("/sites")
	{
		sites.GET("", svc.siteHandler.List)
		sites.POST("", svc.siteHandler.Create)
		sites.GET("/:id", svc.siteHandler.Get)
		sites.PUT("/:id", svc.siteHandler.Update)
		sites.PATCH("/:id", svc.siteHandler.Update)
		sites.DELETE("/:id", svc.siteHandler.Delete)
		sites.GET("/:id/systems", svc.siteHandler.Systems)
	}

	svc.systemTypes.Register(api.Group("/system-types"))
	svc.systemStatuses.Register(api.Group("/system-statuses"))
	svc.serverModels.Register(api.Group("/server-models"))
	svc.operatingSystems.Register(api.Group("/operating-systems"))
	svc.locations.Register(api.Group("/locations"))
	svc.userLicenses.Register(api.Group("/user-licenses"))
	svc.userLocations.Register(api.Group("/user-locations"))

	owners := api.Group("/owners")
	svc.owners.Register(owners)
	owners.GET("/:id/upgradeable", svc.unmanagedHandler.Upgradeable)

	keyValues := api.Group("/key-values")
	{
		keyValues.GET("", svc.keyValueHandler.List)
		keyValues.POST("", svc.keyValueHandler.Create)
		keyValues.GET("/:id", svc.keyValueHandler.Get)
		keyValues.PUT("/:id", svc.keyValueHandler.Update)
		keyValues.PATCH("/:id", svc.keyValueHandler.Update)
		keyValues.DELETE("/:id", svc.keyValueHandler.Delete)
	}

	tasks := api.Group("/scheduled-tasks")
	{
		tasks.GET("", svc.scheduledTaskHandler.List)
		tasks.POST("", svc.scheduledTaskHandler.Create)
		tasks.DELETE("", svc.scheduledTaskHandler.DeleteByType)
		tasks.GET("/next/:type", svc.scheduledTaskHandler.Next)
		tasks.GET("/last/:type", svc.scheduledTaskHandler.Last)
		tasks.DELETE("/:id", svc.scheduledTaskHandler.Delete)
	}

	revisions := api.Group("/revisions")
	{
		revisions.GET("/:id", svc.revisionHandler.Get)
		revisions.GET("/:id/compare", svc.revisionHandler.Compare)
		revisions.POST("/:id/revert", svc.revisionHandler.Revert)
	}

	unmanaged := api.Group("/unmanaged-systems")
	{
		unmanaged.GET("", svc.unmanagedHandler.List)
		unmanaged.POST("", svc.unmanagedHandler.Create)
		unmanaged.GET("/:id", svc.unmanagedHandler.Get)
		unmanaged.PUT("/:id", svc.unmanagedHandler.Update)
		unmanaged.PATCH("/:id", svc.unmanagedHandler.Update)
		unmanaged.DELETE("/:id", svc.unmanagedHandler.Delete)
		unmanaged.GET("/:id/history", svc.unmanagedHandler.History)
	}

	api.POST("/csv/import", svc.csvHandler.ImportSystems)
	api.POST("/csv/warranty", svc.csvHandler.ImportWarranty)
}

// registerPages mounts the HTML views and the AJAX endpoints they call.
func registerPages(r *gin.RouterGroup, svc *appServices) {
	pages := svc.webHandler
	ajax := svc.ajaxHandler
	kv := svc.keyValueHandler

	r.GET("/", pages.Home)
	r.GET("/csv/:model", svc.csvHandler.ExportModel)

	systems := r.Group("/systems")
	{
		systems.GET("/", pages.Home)
		systems.GET("/show/:id", pages.Show)
		systems.GET("/new", pages.NewSystem)
		systems.POST("/new", pages.NewSystem)
		systems.GET("/edit/:id", pages.EditSystem)
		systems.POST("/edit/:id", pages.EditSystem)
		systems.GET("/delete/:id", pages.DeleteSystem)
		systems.POST("/delete/:id", pages.DeleteSystem)
		systems.GET("/revision/:id", pages.Revision)
		systems.POST("/revision/:id", pages.Revision)

		systems.GET("/racks/", pages.Racks)
		systems.GET("/racks/new", pages.NewRack)
		systems.POST("/racks/new", pages.NewRack)
		systems.GET("/racks/edit/:id", pages.EditRack)
		systems.POST("/racks/edit/:id", pages.EditRack)
		systems.GET("/racks/delete/:id", pages.DeleteRack)
		systems.POST("/racks/delete/:id", pages.DeleteRack)
		systems.GET("/racks/bysite/:site_pk", ajax.RacksBySite)

		systems.GET("/server_models/", pages.ServerModels)
		systems.GET("/server_models/list_ajax", ajax.ServerModelList)
		systems.POST("/server_models/create_ajax", ajax.ServerModelCreate)
		systems.GET("/operatingsystems/", pages.OperatingSystems)
		systems.GET("/operating_system/list_ajax", ajax.OperatingSystemList)
		systems.POST("/operating_system/create_ajax", ajax.OperatingSystemCreate)

		systems.GET("/list_all_systems_ajax/", ajax.ListAllSystems)
		systems.GET("/system_auto_complete_ajax/", ajax.Autocomplete)

		systems.GET("/get_key_value_store/:id", kv.Store)
		systems.POST("/create_key_value/:id", kv.StoreCreate)
		systems.POST("/save_key_value/:id", kv.StoreSave)
		systems.POST("/delete_key_value/:id/:system_id", kv.StoreDelete)
		systems.GET("/ajax_check_dupe_nic/:id/:adapter_number", kv.CheckDupeNIC)
		systems.GET("/ajax_check_dupe_nic_name/:id/:adapter_name", kv.CheckDupeNICName)

		systems.GET("/csv/", svc.csvHandler.ExportSystems)
		systems.GET("/csv/import/", pages.CSVImport)
		systems.POST("/csv/import/", pages.CSVImport)
	}
}
