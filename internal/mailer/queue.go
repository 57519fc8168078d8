package mailer

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Job is the message placed on the email queue for the delivery worker.
type Job struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// QueueSender enqueues email jobs on a RabbitMQ queue consumed by the
// external delivery worker. Enqueueing is the extent of the guarantee; the
// queue has no retry contract either.
type QueueSender struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

func NewQueueSender(url, queue string) (*QueueSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	chn, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	if _, err := chn.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		chn.Close()
		conn.Close()
		return nil, fmt.Errorf("declare email queue: %w", err)
	}
	return &QueueSender{conn: conn, chn: chn, queue: queue}, nil
}

func (s *QueueSender) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(Job{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("marshal email job: %w", err)
	}
	err = s.chn.PublishWithContext(ctx, "", s.queue, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        payload,
	})
	if err != nil {
		return fmt.Errorf("enqueue email job: %w", err)
	}
	return nil
}

func (s *QueueSender) Close() error {
	if err := s.chn.Close(); err != nil {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}
