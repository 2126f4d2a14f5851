package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"iotcare-data/internal/apperr"
	"iotcare-data/internal/domain"
	"iotcare-data/internal/service"
	"iotcare-data/internal/wiring"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Source ingestion source label recorded in metrics
const Source = "mqtt"

// DefaultTopic iotcare/{kind}/{device_id}
const DefaultTopic = "iotcare/+/+"

// ScopeOpener *wiring.Registry 满足此接口
type ScopeOpener interface {
	Open(ctx context.Context, key string) (*wiring.Scope, error)
}

// Subscriber *Client 满足此接口
type Subscriber interface {
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Ingestor 把 iotcare/{kind}/{key} 主题上的 JSON 读数写入对应记录类型
type Ingestor struct {
	sub     Subscriber
	reg     ScopeOpener
	topic   string
	qos     byte
	timeout time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

func NewIngestor(sub Subscriber, reg ScopeOpener, topic string, qos byte, logger *zap.Logger) *Ingestor {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Ingestor{
		sub:     sub,
		reg:     reg,
		topic:   topic,
		qos:     qos,
		timeout: 10 * time.Second,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger,
	}
}

// Start 订阅并阻塞到 ctx 取消
func (in *Ingestor) Start(ctx context.Context) error {
	if err := in.sub.Subscribe(in.topic, in.qos, in.Handle); err != nil {
		return fmt.Errorf("failed to subscribe to ingest topic: %w", err)
	}
	in.logger.Info("MQTT ingestor started", zap.String("topic", in.topic))

	<-ctx.Done()

	if err := in.sub.Unsubscribe(in.topic); err != nil {
		in.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	in.logger.Info("MQTT ingestor stopped")
	return nil
}

// Handle 处理一条消息
func (in *Ingestor) Handle(topic string, payload []byte) error {
	// 1. 主题解析: iotcare/{kind}/{key}
	parts := strings.Split(topic, "/")
	if len(parts) != 3 || parts[2] == "" {
		return fmt.Errorf("invalid topic format: %s", topic)
	}
	kind, ok := domain.LookupKind(parts[1])
	if !ok {
		return fmt.Errorf("unknown record kind %q in topic %s", parts[1], topic)
	}
	key := parts[2]

	// 2. 补全主键与时间
	body, err := in.normalize(kind, key, payload)
	if err != nil {
		return err
	}

	// 3. 与 HTTP 创建走同一条服务路径
	ctx, cancel := context.WithTimeout(context.Background(), in.timeout)
	defer cancel()

	scope, err := in.reg.Open(ctx, kind.Slug)
	if err != nil {
		return err
	}
	defer scope.Close()

	recs, ok := scope.Service.(service.Records)
	if !ok {
		return fmt.Errorf("service for %s does not accept records", kind.Slug)
	}
	if _, err := recs.CreateFrom(ctx, strictDecoder(body), Source); err != nil {
		if apperr.Is(err, apperr.KindPersistence) {
			in.logger.Error("MQTT ingest failed",
				zap.String("kind", kind.Slug),
				zap.String(kind.KeyColumn, key),
				zap.Error(err),
			)
		}
		return err
	}

	in.logger.Debug("MQTT reading stored",
		zap.String("kind", kind.Slug),
		zap.String(kind.KeyColumn, key),
	)
	return nil
}

// normalize 主题中的 key 必须与负载一致；负载缺少 key 或 time 时补上
func (in *Ingestor) normalize(kind *domain.Kind, key string, payload []byte) ([]byte, error) {
	if !gjson.ValidBytes(payload) || !gjson.ParseBytes(payload).IsObject() {
		return nil, apperr.Parse("payload must be a JSON object", nil)
	}

	peekKey := gjson.GetBytes(payload, kind.KeyColumn)
	peekTime := gjson.GetBytes(payload, "time")
	if peekKey.Exists() && peekKey.String() != key {
		return nil, apperr.Validation(kind.Slug, kind.KeyColumn,
			fmt.Sprintf("%q does not match topic %q", peekKey.String(), key))
	}
	if peekKey.Exists() && peekTime.Exists() {
		return payload, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return nil, apperr.Parse("payload must be a JSON object", err)
	}
	if !peekKey.Exists() {
		obj[kind.KeyColumn], _ = json.Marshal(key)
	}
	if !peekTime.Exists() {
		obj["time"], _ = json.Marshal(in.now().Format(time.RFC3339Nano))
	}
	return json.Marshal(obj)
}

func strictDecoder(body []byte) service.Decoder {
	return func(dst any) error {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			var timeErr *time.ParseError
			if errors.As(err, &timeErr) {
				return apperr.Parse("invalid timestamp "+timeErr.Value, err)
			}
			return apperr.Parse(err.Error(), err)
		}
		return nil
	}
}
