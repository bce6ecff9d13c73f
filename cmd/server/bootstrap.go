package main

import (
	"github.com/rtucker-mozilla/minventory/internal/config"
	"github.com/rtucker-mozilla/minventory/internal/handlers"
	"github.com/rtucker-mozilla/minventory/internal/middleware"
	"github.com/rtucker-mozilla/minventory/internal/models"
	"github.com/rtucker-mozilla/minventory/internal/services"
	"github.com/rtucker-mozilla/minventory/internal/utils"
	"github.com/rtucker-mozilla/minventory/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg              *config.Config
	authService      *services.AuthService
	systemLogService *services.SystemLogService
	publisher        services.TaskPublisher
	loginLimiter     *middleware.RateLimiter

	authHandler          *handlers.AuthHandler
	userHandler          *handlers.UserHandler
	systemHandler        *handlers.SystemHandler
	rackHandler          *handlers.RackHandler
	siteHandler          *handlers.SiteHandler
	keyValueHandler      *handlers.KeyValueHandler
	scheduledTaskHandler *handlers.ScheduledTaskHandler
	revisionHandler      *handlers.RevisionHandler
	unmanagedHandler     *handlers.UnmanagedSystemHandler
	csvHandler           *handlers.CSVHandler
	ajaxHandler          *handlers.AjaxHandler
	webHandler           *handlers.WebHandler
	systemLogHandler     *handlers.SystemLogHandler
	sseHandler           *handlers.SSEHandler
	healthHandler        *handlers.HealthHandler

	systemTypes      *handlers.CatalogHandler[models.SystemType]
	systemStatuses   *handlers.CatalogHandler[models.SystemStatus]
	serverModels     *handlers.CatalogHandler[models.ServerModel]
	operatingSystems *handlers.CatalogHandler[models.OperatingSystem]
	locations        *handlers.CatalogHandler[models.Location]
	owners           *handlers.CatalogHandler[models.Owner]
	userLicenses     *handlers.CatalogHandler[models.UserLicense]
	userLocations    *handlers.CatalogHandler[models.UserLocation]
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database, cfg.Server.Mode); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	db := models.GetDB()

	if err := models.Migrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize system logger
	services.InitSystemLogger(db)

	systemLogService := services.NewSystemLogService(db, cfg.Inventory.LogRetentionDays)
	if err := systemLogService.StartCleanupScheduler(cfg.Inventory.LogCleanupCron); err != nil {
		logger.Warn().Err(err).Str("cron", cfg.Inventory.LogCleanupCron).Msg("Invalid log cleanup schedule, cleanup disabled")
	}

	// Scheduled tasks always land in the table; Redis is an optional mirror
	publisher := services.InitTaskPublisher(cfg)

	authService := services.NewAuthService(db, &cfg.JWT, &cfg.LDAP)
	if err := authService.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	svc := &appServices{
		cfg:              cfg,
		authService:      authService,
		systemLogService: systemLogService,
		publisher:        publisher,
		loginLimiter:     middleware.NewRateLimiter(5, 10),
	}
	svc.buildHandlers(db)
	return svc
}

func (s *appServices) buildHandlers(db *gorm.DB) {
	cfg := s.cfg
	revisions := services.NewRevisionService(db)
	tasks := services.NewScheduledTaskService(db, s.publisher)
	systems := services.NewSystemService(db, revisions, cfg.Inventory.DefaultWarrantyYears)
	keyValues := services.NewKeyValueService(db, tasks)
	racks := services.NewRackService(db, revisions)
	sites := services.NewSiteService(db)
	csvService := services.NewCSVService(db, systems)

	systemTypes := services.NewSystemTypeService(db, revisions)
	systemStatuses := services.NewSystemStatusService(db, revisions)
	serverModels := services.NewServerModelService(db, revisions)
	operatingSystems := services.NewOperatingSystemService(db, revisions)
	locations := services.NewLocationService(db, revisions)

	s.authHandler = handlers.NewAuthHandler(s.authService)
	s.userHandler = handlers.NewUserHandler(db, s.authService)
	s.systemHandler = handlers.NewSystemHandler(systems, keyValues)
	s.rackHandler = handlers.NewRackHandler(racks)
	s.siteHandler = handlers.NewSiteHandler(sites)
	s.keyValueHandler = handlers.NewKeyValueHandler(keyValues, systems)
	s.scheduledTaskHandler = handlers.NewScheduledTaskHandler(tasks)
	s.revisionHandler = handlers.NewRevisionHandler(revisions, systems)
	s.unmanagedHandler = handlers.NewUnmanagedSystemHandler(services.NewUnmanagedSystemService(db, cfg.Inventory.UpgradeAfterDays))
	s.csvHandler = handlers.NewCSVHandler(csvService, services.NewWarrantyImportService(db, systems))
	s.ajaxHandler = handlers.NewAjaxHandler(systems, racks, serverModels, operatingSystems)
	s.webHandler = handlers.NewWebHandler(systems, keyValues, racks, sites, revisions, csvService, handlers.WebCatalogs{
		SystemTypes:      systemTypes,
		SystemStatuses:   systemStatuses,
		ServerModels:     serverModels,
		OperatingSystems: operatingSystems,
		Locations:        locations,
	}, cfg.Inventory.BugURL)
	s.systemLogHandler = handlers.NewSystemLogHandler(s.systemLogService)
	s.sseHandler = handlers.NewSSEHandler(services.GetSSEHub())
	s.healthHandler = handlers.NewHealthHandler()

	s.systemTypes = handlers.NewCatalogHandler(systemTypes)
	s.systemStatuses = handlers.NewCatalogHandler(systemStatuses)
	s.serverModels = handlers.NewCatalogHandler(serverModels)
	s.operatingSystems = handlers.NewCatalogHandler(operatingSystems)
	s.locations = handlers.NewCatalogHandler(locations)
	s.owners = handlers.NewCatalogHandler(services.NewOwnerService(db))
	s.userLicenses = handlers.NewCatalogHandler(services.NewUserLicenseService(db))
	s.userLocations = handlers.NewCatalogHandler(services.NewUserLocationService(db))
}

// authOptions configures how API requests are authenticated.
func (s *appServices) authOptions() middleware.AuthOptions {
	return middleware.AuthOptions{
		Users:            s.authService,
		RemoteUserHeader: s.cfg.Server.RemoteUserHeader,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.systemLogService.StopCleanupScheduler()
	logger.Info().Msg("All schedulers stopped")

	s.loginLimiter.Stop()
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close task publisher")
		}
	}
}
