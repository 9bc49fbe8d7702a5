package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/maquirent/rental-api/internal/queue"
)

// publishJSON marshals the event and publishes it as a persistent
// message on the named durable queue via the default exchange.  A fresh
// connection per publish keeps the call robust against broker
// restarts; any error is logged and returned so the caller can choose
// to ignore it, since notification delivery must never fail a request
// whose database work already committed.
func publishJSON(ctx context.Context, queueName string, event interface{}) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}

	return nil
}

// PublishReservationCreated publishes a ReservationCreatedEvent to the
// reservation.created queue.
func PublishReservationCreated(ctx context.Context, event q.ReservationCreatedEvent) error {
	return publishJSON(ctx, q.CreatedQueueName, event)
}

// PublishReservationReminder publishes a ReservationReminderEvent to
// the reservation.reminder queue.
func PublishReservationReminder(ctx context.Context, event q.ReservationReminderEvent) error {
	return publishJSON(ctx, q.ReminderQueueName, event)
}
