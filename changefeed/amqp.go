package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"cautiva/config"
	"cautiva/repository"
)

// AMQPFeed 多实例间的变更广播：本地写入发布通知，收到其他实例的通知后刷新本地订阅
type AMQPFeed struct {
	conn      *amqp091.Connection
	channel   *amqp091.Channel
	exchange  string
	queue     string
	instance  string
	refresher Refresher
}

// NewAMQPFeed 连接并声明 fanout exchange 与本实例的独占队列
func NewAMQPFeed(cfg config.AMQPConfig, refresher Refresher) (*AMQPFeed, error) {
	conn, err := amqp091.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	f := &AMQPFeed{
		conn:      conn,
		channel:   channel,
		exchange:  cfg.Exchange,
		instance:  uuid.NewString(),
		refresher: refresher,
	}
	if err := f.setup(); err != nil {
		f.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return f, nil
}

func (f *AMQPFeed) setup() error {
	err := f.channel.ExchangeDeclare(
		f.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// 每个实例一个临时队列，断开即删除
	q, err := f.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	f.queue = q.Name

	if err := f.channel.QueueBind(f.queue, "", f.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Instance 本实例标识
func (f *AMQPFeed) Instance() string {
	return f.instance
}

// Publish 广播一次本地写入
func (f *AMQPFeed) Publish(ctx context.Context, event repository.ChangeEvent) error {
	body, err := Notice{Instance: f.instance, Op: event.Op, ID: event.ID, At: time.Now().UTC()}.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal notice: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = f.channel.PublishWithContext(ctx,
		f.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish notice: %w", err)
	}
	return nil
}

// Listener 供 TransactionRepository.OnChange 注册
func (f *AMQPFeed) Listener() func(repository.ChangeEvent) {
	return func(event repository.ChangeEvent) {
		if err := f.Publish(context.Background(), event); err != nil {
			logrus.WithError(err).WithField("id", event.ID).Warn("changefeed.AMQPFeed.Publish failed")
		}
	}
}

// Run 消费通知直到 ctx 取消
func (f *AMQPFeed) Run(ctx context.Context) error {
	msgs, err := f.channel.Consume(
		f.queue, // queue
		"",      // consumer
		true,    // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"exchange": f.exchange,
		"instance": f.instance,
	}).Info("changefeed.AMQPFeed.Run started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			f.handle(delivery.Body)
		}
	}
}

func (f *AMQPFeed) handle(body []byte) bool {
	notice, err := NoticeFromJSON(body)
	if err != nil {
		logrus.WithError(err).Warn("changefeed.AMQPFeed.handle dropped message")
		return false
	}
	if notice.Instance == f.instance {
		return false
	}
	logrus.WithFields(logrus.Fields{
		"from": notice.Instance,
		"op":   notice.Op,
		"id":   notice.ID,
	}).Debug("changefeed.AMQPFeed.handle refresh")
	f.refresher.Refresh()
	return true
}

// Close 关闭通道与连接
func (f *AMQPFeed) Close() error {
	if f.channel != nil {
		f.channel.Close()
	}
	if f.conn != nil {
		return f.conn.Close()
	}
	return nil
}
