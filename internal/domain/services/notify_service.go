package services

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"medshift-http-service/internal/infrastructure/config"
)

// MQTT主题前缀
const (
	TopicWorkerNotify  = "medshift/worker/%s/notify" // 按收款账户/员工定向通知
	TopicSystemMessage = "medshift/system/message"   // 系统广播
)

// InterfaceNotifyService 定义外部通知通道接口
// 通知是尽力而为的旁路：任何失败只记录日志，不回滚已提交的业务状态
type InterfaceNotifyService interface {
	Connect() error
	Disconnect()
	Send(destination, message string) error
	BroadcastSystemMessage(messageType string, payload map[string]interface{}) error
}

// NotifyService 基于MQTT的通知服务
type NotifyService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布
}

// NewNotifyService 创建一个新的通知服务
func NewNotifyService(cfg *config.Config) InterfaceNotifyService {
	service := &NotifyService{
		Config:      cfg,
		IsConnected: false,
	}

	service.setupMQTTClient()
	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *NotifyService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s-%d", s.Config.MQTTClientID, uuid.New().String()[:8], time.Now().UnixNano()))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	// 添加TLS配置，支持SSL连接
	if strings.HasPrefix(s.Config.MQTTBrokerURL, "ssl://") || strings.HasPrefix(s.Config.MQTTBrokerURL, "tls://") || s.Config.MQTTSSLEnabled {
		log.Println("[MQTT] 使用TLS连接")
		opts.SetTLSConfig(&tls.Config{
			InsecureSkipVerify: true, // 如有CA证书则应加载后关闭
		})
	}

	// 设置连接丢失回调
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Printf("[MQTT] 连接丢失: %v", err)
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
	})

	// 设置连接建立回调
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Println("[MQTT] 成功连接到", s.Config.MQTTBrokerURL)
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
	})

	// 设置重连回调
	opts.SetReconnectingHandler(func(client mqtt.Client, opts *mqtt.ClientOptions) {
		log.Println("[MQTT] 正在尝试重连...")
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT服务器，带有重试机制
func (s *NotifyService) Connect() error {
	log.Printf("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	// 加锁，确保同一时间只有一个连接尝试
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	// 最大重试次数和指数退避策略
	maxRetries := 5
	var err error

	for i := 0; i < maxRetries; i++ {
		token := s.Client.Connect()
		if token.WaitTimeout(5*time.Second) && token.Error() == nil {
			s.connectedMutex.Lock()
			s.IsConnected = true
			s.connectedMutex.Unlock()
			log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)
			return nil
		}

		err = token.Error()
		backoffTime := time.Duration(1<<uint(i)) * time.Second // 指数退避: 1s, 2s, 4s, 8s, 16s
		log.Printf("[MQTT] 连接尝试 %d/%d 失败: %v, 将在 %v 后重试", i+1, maxRetries, err, backoffTime)
		time.Sleep(backoffTime)
	}

	return fmt.Errorf("[MQTT] 连接失败，已尝试 %d 次: %v", maxRetries, err)
}

// Disconnect 断开与MQTT服务器的连接
func (s *NotifyService) Disconnect() {
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}
}

// Send 向指定收款账户/员工发送定向通知
func (s *NotifyService) Send(destination, message string) error {
	topic := fmt.Sprintf(TopicWorkerNotify, destination)
	return s.publishMessage(topic, map[string]interface{}{
		"message":   message,
		"timestamp": time.Now().Unix(),
	})
}

// BroadcastSystemMessage 发布系统广播消息，如SOS悬赏通告
func (s *NotifyService) BroadcastSystemMessage(messageType string, payload map[string]interface{}) error {
	payload["type"] = messageType
	payload["timestamp"] = time.Now().Unix()
	return s.publishMessage(TopicSystemMessage, payload)
}

// publishMessage 发布消息到指定主题
func (s *NotifyService) publishMessage(topic string, payload interface{}) error {
	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if !isConnected {
		// 尝试重新连接一次
		s.PublishMutex.Unlock()
		err := s.Connect()
		s.PublishMutex.Lock()
		if err != nil {
			return err
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	qos := byte(s.Config.MQTTQoS)
	token := s.Client.Publish(topic, qos, s.Config.MQTTRetained, jsonData)
	if !token.WaitTimeout(3*time.Second) || token.Error() != nil {
		return fmt.Errorf("发布消息失败 [%s]: %v", topic, token.Error())
	}

	return nil
}
