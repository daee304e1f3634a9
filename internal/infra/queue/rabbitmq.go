package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/jinford/resume-match/internal/core/analysis"
)

const (
	// DefaultQueueName は分析ジョブ用キューの名前
	DefaultQueueName = "analysis_jobs"
	// publishTimeout は発行1件あたりのタイムアウト
	publishTimeout = 5 * time.Second
)

// analysisMessage はキューを流れるジョブメッセージです
// 本文は分析IDのみで、テキスト等の実体はストアから引き直します
type analysisMessage struct {
	AnalysisID uuid.UUID `json:"analysis_id"`
}

// RabbitMQRunner は RabbitMQ 経由で分析ジョブをワーカーに委譲する
// Runner 実装です
type RabbitMQRunner struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger
}

var _ analysis.Runner = (*RabbitMQRunner)(nil)

type runnerOptions struct {
	queueName string
	logger    *slog.Logger
}

// RunnerOption は RabbitMQRunner のオプション設定
type RunnerOption func(*runnerOptions)

// WithQueueName はキュー名を上書きする
func WithQueueName(name string) RunnerOption {
	return func(o *runnerOptions) {
		o.queueName = name
	}
}

// WithRunnerLogger は RabbitMQRunner にロガーを設定する
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(o *runnerOptions) {
		o.logger = logger
	}
}

// NewRabbitMQRunner は RabbitMQ に接続し、ジョブキューを宣言します
func NewRabbitMQRunner(url string, opts ...RunnerOption) (*RabbitMQRunner, error) {
	options := runnerOptions{
		queueName: DefaultQueueName,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queue, err := channel.QueueDeclare(
		options.queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &RabbitMQRunner{
		conn:    conn,
		channel: channel,
		queue:   queue,
		logger:  options.logger,
	}, nil
}

// Dispatch は分析IDをキューに発行します
func (r *RabbitMQRunner) Dispatch(ctx context.Context, analysisID uuid.UUID) error {
	body, err := json.Marshal(analysisMessage{AnalysisID: analysisID})
	if err != nil {
		return fmt.Errorf("failed to marshal analysis message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = r.channel.PublishWithContext(ctx,
		"",           // exchange
		r.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish analysis message: %w", err)
	}

	r.logger.Debug("分析ジョブをキューに発行しました", "analysisID", analysisID)
	return nil
}

// Consume はキューからジョブを受信し、handle を呼び出します
// context がキャンセルされるまでブロックします。handle がエラーを返した
// 場合もメッセージは ack されます。分析の失敗は状態として記録される
// ため再配送は行いません
func (r *RabbitMQRunner) Consume(ctx context.Context, handle func(ctx context.Context, analysisID uuid.UUID) error) error {
	deliveries, err := r.channel.Consume(
		r.queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	r.logger.Info("分析ジョブの受信を開始しました", "queue", r.queue.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}

			var msg analysisMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				r.logger.Warn("不正なジョブメッセージを破棄します", "error", err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handle(ctx, msg.AnalysisID); err != nil {
				r.logger.Error("分析ジョブの処理に失敗しました",
					"analysisID", msg.AnalysisID,
					"error", err,
				)
			}
			if err := delivery.Ack(false); err != nil {
				r.logger.Error("メッセージのackに失敗しました", "error", err)
			}
		}
	}
}

// Close は接続とチャネルを閉じます
func (r *RabbitMQRunner) Close() error {
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return fmt.Errorf("failed to close channel: %w", err)
	}
	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}
