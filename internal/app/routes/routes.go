package routes

import (
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	_ "medshift-http-service/docs"
	"medshift-http-service/internal/app/controllers"
	"medshift-http-service/internal/app/middleware"
	"medshift-http-service/internal/domain/services/container"
	"medshift-http-service/internal/infrastructure/config"
)

// SetupRouter 初始化并返回配置好的路由
func SetupRouter(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})
	// 设置正确的Content-Type，确保UTF-8编码
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Next()
	})
	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg, nil)
	// 初始化中间件
	middleware.InitAuthMiddleware(cfg, db)
	// 添加 Swagger 文档路由
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	container *container.ServiceContainer,
) {
	// API 路由根路径
	api := r.Group("/api")
	// 注册公共路由
	registerPublicRoutes(api, container)
	// 注册员工路由
	registerWorkerRoutes(api, container)
	// 注册管理员路由
	registerAdminRoutes(api, container)
}

// registerPublicRoutes 注册公共路由
func registerPublicRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	// 添加IP限流中间件 - 每秒允许10个请求，最多突发20个请求
	api.Use(middleware.IPRateLimiter(10, 20))

	// 健康检查路由
	api.GET("/ping", controllers.HandleHealthFunc(container, "ping"))
	api.GET("/health", controllers.HandleHealthFunc(container, "ping")) // 兼容Docker健康检查的路由
	api.GET("/health/status", controllers.HandleHealthFunc(container, "status"))

	// 认证路由
	api.POST("/auth/login", controllers.HandleJWTFunc(container, "login"))

	// 定位上报路由组 - 来自员工终端的高频上报，不走令牌认证
	pingGroup := api.Group("/")
	pingGroup.Use(middleware.PathRateLimiter(20, 40)) // 每秒20个请求，最多突发40个
	pingGroup.POST("/shifts/location-ping", controllers.HandleShiftFunc(container, "locationPing"))
	pingGroup.POST("/presence/beacon", controllers.HandlePresenceFunc(container, "recordBeacon"))
}

// registerWorkerRoutes 注册员工路由
func registerWorkerRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	worker := api.Group("/")
	worker.Use(middleware.AuthenticateWorker())
	worker.Use(middleware.IPRateLimiter(30, 50))

	// 班次打卡路由
	worker.POST("/shifts/clock-in", controllers.HandleShiftFunc(container, "clockIn"))
	worker.POST("/shifts/clock-out", controllers.HandleShiftFunc(container, "clockOut"))
	worker.GET("/shifts/:worker_id/status", controllers.HandleShiftFunc(container, "getStatus"))
	worker.GET("/shifts/:worker_id/logs", controllers.HandleShiftFunc(container, "getWorkLogs"))

	// 悬赏班次市场路由
	marketGroup := worker.Group("/market")
	marketGroup.GET("/bounties", middleware.Cache(middleware.CacheConfig{Expiration: 5 * time.Second}), controllers.HandleMarketFunc(container, "getListings"))
	marketGroup.GET("/bounties/:id", controllers.HandleMarketFunc(container, "getListing"))
	marketGroup.POST("/bounties", controllers.HandleMarketFunc(container, "postBounty"))
	marketGroup.POST("/bounties/:id/claim", controllers.HandleMarketFunc(container, "claimBounty"))

	// 室内定位路由
	worker.POST("/presence/hazard-check", controllers.HandlePresenceFunc(container, "checkHazard"))
	worker.GET("/presence/:worker_id", controllers.HandlePresenceFunc(container, "getPresence"))

	// 科室普查路由
	worker.POST("/census", controllers.HandleCensusFunc(container, "submitCensus"))
	worker.GET("/census/:department", controllers.HandleCensusFunc(container, "getCensus"))
	worker.GET("/staffing/required", controllers.HandleCensusFunc(container, "getRequiredStaff"))

	// 交易流水路由
	worker.GET("/payouts/:worker_id/transactions", controllers.HandlePayoutFunc(container, "getTransactions"))
}

// registerAdminRoutes 注册管理员路由
func registerAdminRoutes(
	api *gin.RouterGroup,
	container *container.ServiceContainer,
) {
	admin := api.Group("/")
	admin.Use(middleware.AuthenticateSystemAdmin())
	admin.Use(middleware.IPRateLimiter(30, 50))

	// 员工档案管理路由
	workerGroup := admin.Group("/workers")
	workerGroup.GET("", controllers.HandleWorkerFunc(container, "getWorkers"))
	workerGroup.GET("/:id", controllers.HandleWorkerFunc(container, "getWorker"))
	workerGroup.POST("", controllers.HandleWorkerFunc(container, "createWorker"))
	workerGroup.PUT("/:id", controllers.HandleWorkerFunc(container, "updateWorker"))
	workerGroup.DELETE("/:id", controllers.HandleWorkerFunc(container, "deleteWorker"))
	workerGroup.POST("/:id/destination", controllers.HandleWorkerFunc(container, "registerDestination"))

	// 托管资金管理路由
	admin.POST("/market/bounties/:id/lock", controllers.HandleMarketFunc(container, "lockEscrow"))
	admin.POST("/market/bounties/:id/release", controllers.HandleMarketFunc(container, "releaseEscrow"))

	// 手动结算路由
	admin.POST("/payouts/settle", controllers.HandlePayoutFunc(container, "settle"))
}
