package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Database
	DBHost          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBPort          string
	DBMigrationMode string // 数据库迁移模式: "auto"(默认), "alter"(修改), "drop"(删除重建)

	// Server
	ServerPort string

	// Redis
	RedisHost string
	RedisPort string
	RedisDB   int

	// 设施与围栏
	FacilityName   string  // 默认设施名称
	FacilityLat    float64 // 设施纬度
	FacilityLon    float64 // 设施经度
	GeofenceRadius float64 // 围栏半径（米），离开即自动打卡下班

	// 结算
	TaxRates        []float64 // 预扣税率列表，结算时按总税率拆分
	TreasuryAccount string    // 税款入账的财务账户标识
	PayRailURL      string    // 外部支付通道地址，空则仅做本地记账
	PayRailAPIKey   string    // 支付通道API密钥

	// 悬赏市场
	SurgeMultiplier float64 // SOS广播的加成倍数
	SurgeFloorRate  float64 // 基础时薪缺失时的保底加成时薪

	// 驻场核验
	BeaconSignalThreshold float64 // 信标信号强度阈值（dBm），高于该值视为近场
	PresenceWindowMinutes int     // 驻场记录有效窗口（分钟）
	HazardPayAmount       float64 // 一次性危险岗位补贴金额

	// MQTT配置（通知通道）
	MQTTBrokerURL  string // MQTT服务器地址，如 tcp://broker.example.com:1883
	MQTTClientID   string // MQTT客户端ID
	MQTTUsername   string // MQTT用户名
	MQTTPassword   string // MQTT密码
	MQTTQoS        int    // 服务质量 (0, 1, 2)
	MQTTRetained   bool   // 是否保留消息
	MQTTSSLEnabled bool   // 是否启用SSL/TLS
	MQTTCACertPath string // CA证书路径，用于SSL/TLS验证

	// JWT Authentication
	JWTSecretKey string

	// Admin
	DefaultAdminPassword string
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	return &Config{
		// Environment type
		EnvType: envType,

		// Database config - use environment-specific variables if available
		DBHost:          getEnvRequired(prefix + "DB_HOST"),
		DBUser:          getEnvRequired(prefix + "DB_USER"),
		DBPassword:      getEnvRequired(prefix + "DB_PASSWORD"),
		DBName:          getEnvRequired(prefix + "DB_NAME"),
		DBPort:          getEnvRequired(prefix + "DB_PORT"),
		DBMigrationMode: getEnv(prefix+"DB_MIGRATION_MODE", "auto"),

		// Server config
		ServerPort: getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "8080")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6380")),
		RedisDB:   getEnvAsInt("REDIS_DB", 0),

		// 设施与围栏配置
		FacilityName:   getEnv("FACILITY_NAME", "main-campus"),
		FacilityLat:    getEnvAsFloat("FACILITY_LAT", 0),
		FacilityLon:    getEnvAsFloat("FACILITY_LON", 0),
		GeofenceRadius: getEnvAsFloat("GEOFENCE_RADIUS_METERS", 150),

		// 结算配置
		TaxRates:        getEnvAsFloatSlice("TAX_RATES", []float64{0.12, 0.062, 0.0145}),
		TreasuryAccount: getEnv("TREASURY_ACCOUNT", "treasury:withholding"),
		PayRailURL:      getEnv("PAY_RAIL_URL", ""),
		PayRailAPIKey:   getEnv("PAY_RAIL_API_KEY", ""),

		// 悬赏市场配置
		SurgeMultiplier: getEnvAsFloat("SURGE_MULTIPLIER", 1.5),
		SurgeFloorRate:  getEnvAsFloat("SURGE_FLOOR_RATE", 45),

		// 驻场核验配置
		BeaconSignalThreshold: getEnvAsFloat("BEACON_SIGNAL_THRESHOLD", -65),
		PresenceWindowMinutes: getEnvAsInt("PRESENCE_WINDOW_MINUTES", 15),
		HazardPayAmount:       getEnvAsFloat("HAZARD_PAY_AMOUNT", 50),

		// MQTT配置
		MQTTBrokerURL:  getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:   getEnv("MQTT_CLIENT_ID", "medshift_server"),
		MQTTUsername:   getEnv("MQTT_USERNAME", ""),
		MQTTPassword:   getEnv("MQTT_PASSWORD", ""),
		MQTTQoS:        getEnvAsInt("MQTT_QOS", 1),
		MQTTRetained:   getEnvAsBool("MQTT_RETAINED", false),
		MQTTSSLEnabled: getEnvAsBool("MQTT_SSL_ENABLED", false),
		MQTTCACertPath: getEnv("MQTT_CA_CERT_PATH", ""),

		// JWT Config
		JWTSecretKey: getEnv("JWT_SECRET_KEY", "medshift-secret-key-change-in-production"),

		// Admin Config
		DefaultAdminPassword: getEnvRequired("DEFAULT_ADMIN_PASSWORD"),
	}
}

// GetConfig returns the application configuration as a singleton
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetDSN returns the database connection string
func (c *Config) GetDSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?charset=utf8mb4&parseTime=True&loc=Local&allowNativePasswords=true&multiStatements=true"
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// TotalTaxRate 返回所有预扣税率之和
func (c *Config) TotalTaxRate() float64 {
	total := 0.0
	for _, rate := range c.TaxRates {
		total += rate
	}
	return total
}

// Helper function to get environment variable with default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as integer with default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as boolean with default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variable as float with default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsFloatSlice 解析逗号分隔的浮点数列表，如 "0.12,0.062"
func getEnvAsFloatSlice(key string, defaultValue []float64) []float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			fmt.Printf("Warning: invalid float value '%s' in %s, using defaults\n", part, key)
			return defaultValue
		}
		values = append(values, value)
	}
	return values
}

// 要求必须提供环境变量的辅助函数
func getEnvRequired(key string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	panic(fmt.Sprintf("Required environment variable %s is not set", key))
}
