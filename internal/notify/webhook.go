// Package notify 紧急告警的外部推送
package notify

import (
	"context"
	"fmt"
	"time"

	"iotcare-data/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// EmergencyEvent webhook 请求体
type EmergencyEvent struct {
	Event       string                    `json:"event"`
	UserID      string                    `json:"user_id"`
	Time        time.Time                 `json:"time"`
	AlertLevel  string                    `json:"alert_level"`
	AlertReason *string                   `json:"alert_reason,omitempty"`
	Snapshot    *domain.HomeStateSnapshot `json:"snapshot"`
}

// WebhookNotifier 把 Emergency 快照 POST 到配置的 URL
type WebhookNotifier struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
}

// NewWebhookNotifier url 为空时返回 nil
func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	if url == "" {
		return nil
	}
	client := resty.New().
		SetTimeout(5*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{
		httpClient: client,
		url:        url,
		logger:     logger,
	}
}

func (n *WebhookNotifier) NotifyEmergency(ctx context.Context, snap *domain.HomeStateSnapshot) error {
	event := EmergencyEvent{
		Event:       "home_state.emergency",
		UserID:      snap.UserID,
		Time:        snap.Time,
		AlertLevel:  domain.AlertEmergency,
		AlertReason: snap.AlertReason,
		Snapshot:    snap,
	}

	resp, err := n.httpClient.R().
		SetContext(ctx).
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Error("Emergency webhook call failed",
			zap.String("user_id", snap.UserID),
			zap.Error(err),
		)
		return fmt.Errorf("failed to call emergency webhook: %w", err)
	}
	if resp.IsError() {
		n.logger.Error("Emergency webhook returned error",
			zap.String("user_id", snap.UserID),
			zap.Int("status_code", resp.StatusCode()),
		)
		return fmt.Errorf("emergency webhook returned status %d", resp.StatusCode())
	}

	n.logger.Info("Emergency notification sent",
		zap.String("user_id", snap.UserID),
		zap.Time("time", snap.Time),
	)
	return nil
}
