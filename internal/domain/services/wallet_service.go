package services

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"medshift-http-service/internal/infrastructure/config"
	"medshift-http-service/pkg/logger"
)

// InterfaceWalletService 定义外部支付通道连接器接口
// 结算本身是本地记账，这里只把已定稿的出账请求转发给外部通道，尽力而为
type InterfaceWalletService interface {
	SubmitPayout(destination string, amount float64, transactionID string) error
}

// PayoutRequest 发送给支付通道的出账请求
type PayoutRequest struct {
	Destination   string  `json:"destination"`
	Amount        float64 `json:"amount"`
	TransactionID string  `json:"transaction_id"`
	Currency      string  `json:"currency"`
}

// WalletService 基于HTTP的支付通道客户端
type WalletService struct {
	Config *config.Config
	client *resty.Client
}

// NewWalletService 创建一个新的支付通道服务
func NewWalletService(cfg *config.Config) InterfaceWalletService {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)

	if cfg.PayRailAPIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.PayRailAPIKey)
	}

	return &WalletService{
		Config: cfg,
		client: client,
	}
}

// SubmitPayout 向支付通道提交出账请求
// 未配置通道地址时仅记录日志，交易记录本身已在本地定稿
func (s *WalletService) SubmitPayout(destination string, amount float64, transactionID string) error {
	if s.Config.PayRailURL == "" {
		logger.Info("支付通道未配置，出账请求仅本地记账: tx=%s dest=%s amount=%.2f", transactionID, destination, amount)
		return nil
	}

	resp, err := s.client.R().
		SetBody(PayoutRequest{
			Destination:   destination,
			Amount:        amount,
			TransactionID: transactionID,
			Currency:      "USD",
		}).
		Post(s.Config.PayRailURL + "/payouts")
	if err != nil {
		return err
	}

	if resp.StatusCode() >= 300 {
		return fmt.Errorf("支付通道返回异常状态: %d", resp.StatusCode())
	}

	return nil
}
