package services

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"medshift-http-service/internal/domain/models"
	"medshift-http-service/internal/infrastructure/config"
)

// InterfaceRedisService defines the Redis service interface
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheShiftStatus(shift *models.WorkerShift, expiration time.Duration) error
	GetShiftStatus(workerID uint) (*models.WorkerShift, error)
	InvalidateShiftStatus(workerID uint) error
	CacheCensus(census *models.CensusRecord, expiration time.Duration) error
	GetCensus(department string) (*models.CensusRecord, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) InterfaceRedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// 1 Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// 2 Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// 3 Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// 4 CacheShiftStatus 缓存员工班次状态快照
func (s *RedisService) CacheShiftStatus(shift *models.WorkerShift, expiration time.Duration) error {
	key := shiftStatusKey(shift.WorkerID)
	return s.Set(key, shift, expiration)
}

// 5 GetShiftStatus 读取员工班次状态快照
func (s *RedisService) GetShiftStatus(workerID uint) (*models.WorkerShift, error) {
	var shift models.WorkerShift
	if err := s.Get(shiftStatusKey(workerID), &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}

// 6 InvalidateShiftStatus 使班次状态缓存失效，状态变更后调用
func (s *RedisService) InvalidateShiftStatus(workerID uint) error {
	return s.Delete(shiftStatusKey(workerID))
}

// 7 CacheCensus 缓存科室在册统计
func (s *RedisService) CacheCensus(census *models.CensusRecord, expiration time.Duration) error {
	return s.Set("census:"+census.Department, census, expiration)
}

// 8 GetCensus 读取科室在册统计缓存
func (s *RedisService) GetCensus(department string) (*models.CensusRecord, error) {
	var census models.CensusRecord
	if err := s.Get("census:"+department, &census); err != nil {
		return nil, err
	}
	return &census, nil
}

func shiftStatusKey(workerID uint) string {
	return "shift_status:" + strconv.FormatUint(uint64(workerID), 10)
}
