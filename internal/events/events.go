// Package events carries job-created notifications over RabbitMQ so the
// worker can start a processor run right away instead of waiting for the
// next cron tick. Losing an event is harmless: the cron-driven run picks
// the job up anyway.
package events

import (
	"encoding/json"

	"github.com/streadway/amqp"
)

const jobCreatedQueue = "campaign_jobs_created"

type jobCreatedEvent struct {
	JobID string `json:"job_id"`
}

// Publisher emits job-created events.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if _, err := declareQueue(ch); err != nil {
		ch.Close()
		return nil, err
	}
	return &Publisher{ch: ch}, nil
}

func (p *Publisher) JobCreated(jobID string) error {
	body, err := json.Marshal(jobCreatedEvent{JobID: jobID})
	if err != nil {
		return err
	}
	return p.ch.Publish("", jobCreatedQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Consume invokes handle for every job-created event until the
// connection closes. Events are acknowledged after handling.
func Consume(conn *amqp.Connection, handle func(jobID string)) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	q, err := declareQueue(ch)
	if err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return err
	}

	for d := range msgs {
		var evt jobCreatedEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			d.Ack(false)
			continue
		}
		handle(evt.JobID)
		d.Ack(false)
	}
	return nil
}

func declareQueue(ch *amqp.Channel) (amqp.Queue, error) {
	return ch.QueueDeclare(
		jobCreatedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
}
