package container

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"medshift-http-service/internal/domain/services"
	"medshift-http-service/internal/infrastructure/config"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService services.InterfaceRedisService

	// 外部协作方
	notifyService services.InterfaceNotifyService
	walletService services.InterfaceWalletService

	// 业务服务
	identityService services.InterfaceIdentityService
	shiftService    services.InterfaceShiftService
	payoutService   services.InterfacePayoutService
	marketService   services.InterfaceMarketService
	geofenceService services.InterfaceGeofenceService
	staffingService services.InterfaceStaffingService
	presenceService services.InterfacePresenceService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config, c.db)
	c.redisService = services.NewRedisService(c.config)

	// 初始化外部协作方
	c.notifyService = services.NewNotifyService(c.config)
	c.walletService = services.NewWalletService(c.config)

	// 连接MQTT服务器
	if err := c.notifyService.Connect(); err != nil {
		log.Printf("MQTT通知服务连接失败: %v", err)
	}

	// 初始化业务服务，按依赖顺序组装
	c.identityService = services.NewIdentityService(c.db, c.config)
	c.payoutService = services.NewPayoutService(c.db, c.config, c.walletService)
	c.marketService = services.NewMarketService(c.db, c.config, c.notifyService, c.walletService)
	c.shiftService = services.NewShiftService(c.db, c.config, c.identityService, c.payoutService)
	c.geofenceService = services.NewGeofenceService(c.db, c.config,
		c.shiftService, c.marketService, c.identityService, c.notifyService)
	c.staffingService = services.NewStaffingService(c.db, c.config, c.shiftService, c.marketService)
	c.presenceService = services.NewPresenceService(c.db, c.config)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "notify":
		return c.notifyService
	case "wallet":
		return c.walletService
	case "identity":
		return c.identityService
	case "shift":
		return c.shiftService
	case "payout":
		return c.payoutService
	case "market":
		return c.marketService
	case "geofence":
		return c.geofenceService
	case "staffing":
		return c.staffingService
	case "presence":
		return c.presenceService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}
