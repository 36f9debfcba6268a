// Package router wires repositories, services and handlers into the gin engine.
package router

import (
	"errors"
	"net/http"
	"time"

	"logiflow/internal/handler"
	"logiflow/internal/middleware"
	"logiflow/internal/repository"
	"logiflow/internal/service"
	"logiflow/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// Options carries the runtime settings the HTTP layer needs
type Options struct {
	AllowedOrigins []string
	Production     bool
	SessionSecret  string
	SessionTTL     time.Duration
	DlcWarningDays int
}

// Services groups every service built over one database handle
type Services struct {
	Auth           service.AuthService
	Users          service.UserService
	Roles          service.RoleService
	Groups         service.GroupService
	Suppliers      service.SupplierService
	Orders         service.OrderService
	Deliveries     service.DeliveryService
	Reconciliation service.ReconciliationService
	Dlc            service.DlcService
	Statistics     service.StatisticsService
	Audit          service.AuditService
}

// NewServices sets up dependencies (Repository -> Service)
func NewServices(db *gorm.DB, notifier service.Notifier, opts Options) *Services {
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	memberRepo := repository.NewUserGroupRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	deliveryRepo := repository.NewDeliveryRepository(db)
	dlcRepo := repository.NewDlcRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	deliveries := service.NewDeliveryService(deliveryRepo, orderRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier)
	reconciliation := service.NewReconciliationService(deliveryRepo, auditRepo, txManager, deliveries, notifier)
	dlc := service.NewDlcService(dlcRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier, opts.DlcWarningDays)

	return &Services{
		Auth:           service.NewAuthService(userRepo, sessionRepo, roleRepo, memberRepo, opts.SessionSecret, opts.SessionTTL),
		Users:          service.NewUserService(userRepo, roleRepo, groupRepo, memberRepo, auditRepo, txManager, notifier),
		Roles:          service.NewRoleService(roleRepo, userRepo, auditRepo, txManager, notifier),
		Groups:         service.NewGroupService(groupRepo, memberRepo, auditRepo, txManager, notifier),
		Suppliers:      service.NewSupplierService(supplierRepo, notifier),
		Orders:         service.NewOrderService(orderRepo, groupRepo, supplierRepo, auditRepo, txManager, notifier),
		Deliveries:     deliveries,
		Reconciliation: reconciliation,
		Dlc:            dlc,
		Statistics:     service.NewStatisticsService(orderRepo, deliveryRepo, reconciliation, dlc),
		Audit:          service.NewAuditService(auditRepo),
	}
}

// New builds the gin engine with every API route registered
func New(svc *Services, hub *websocket.Hub, opts Options) (*gin.Engine, error) {
	if len(opts.AllowedOrigins) == 0 {
		return nil, errors.New("at least one CORS origin is required")
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}
	middleware.InitSessionAuth(svc.Auth, opts.Production)

	router := gin.New()
	router.Use(middleware.RequestLogger(), middleware.Recovery())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", middleware.RequestIDHeader}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	if hub != nil {
		router.GET("/ws", middleware.RequireSession(), func(c *gin.Context) {
			r, _ := middleware.RequesterFrom(c)
			websocket.ServeWs(hub, c, r.UserID)
		})
	}

	api := router.Group("")
	handler.NewAuthHandler(svc.Auth).RegisterRoutes(api)
	handler.NewGroupHandler(svc.Groups).RegisterRoutes(api)
	handler.NewSupplierHandler(svc.Suppliers).RegisterRoutes(api)
	handler.NewOrderHandler(svc.Orders).RegisterRoutes(api)
	handler.NewDeliveryHandler(svc.Deliveries).RegisterRoutes(api)
	handler.NewReconciliationHandler(svc.Reconciliation).RegisterRoutes(api)
	handler.NewDlcHandler(svc.Dlc).RegisterRoutes(api)
	handler.NewStatisticsHandler(svc.Statistics).RegisterRoutes(api)
	handler.NewUserHandler(svc.Users).RegisterRoutes(api)
	handler.NewRoleHandler(svc.Roles).RegisterRoutes(api)
	handler.NewAuditHandler(svc.Audit).RegisterRoutes(api)

	return router, nil
}
