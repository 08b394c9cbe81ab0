package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"mindwell/internal/model"
	rabbitmqClient "mindwell/internal/platform/rabbitmq"
)

type TurnWriter interface {
	Create(ctx context.Context, turn *model.ChatHistory) error
}

// HistoryInvalidator drops a user's cached history once their new turn is in
// the database.
type HistoryInvalidator interface {
	MarkDirty(ctx context.Context, userID uint) error
	DeleteHistory(ctx context.Context, userID uint) error
}

// TurnPersistWorker drains the persist queue into chat_history.
type TurnPersistWorker struct {
	conn      *amqp.Connection
	repo      TurnWriter
	cache     HistoryInvalidator
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTurnPersistWorker(conn *amqp.Connection, repo TurnWriter, cache HistoryInvalidator, queueName string) *TurnPersistWorker {
	return &TurnPersistWorker{
		conn:      conn,
		repo:      repo,
		cache:     cache,
		queueName: queueName,
	}
}

func (w *TurnPersistWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := rabbitmqClient.DeclareDurableQueue(ch, w.queueName); err != nil {
		_ = ch.Close()
		cancel()
		return err
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					log.Printf("turn persist worker: %v", err)
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *TurnPersistWorker) handle(ctx context.Context, body []byte) error {
	var turn model.ChatHistory
	if err := json.Unmarshal(body, &turn); err != nil {
		return fmt.Errorf("decode turn failed: %w", err)
	}
	if turn.UserID == 0 {
		return fmt.Errorf("turn without user id")
	}
	// ids are assigned by the database
	turn.ID = 0
	if err := w.repo.Create(ctx, &turn); err != nil {
		return fmt.Errorf("persist turn failed: %w", err)
	}

	// a reader may have cached the list while the turn was still queued
	if w.cache != nil {
		if err := w.cache.MarkDirty(ctx, turn.UserID); err != nil {
			log.Printf("mark history dirty failed for user %d: %v", turn.UserID, err)
		}
		if err := w.cache.DeleteHistory(ctx, turn.UserID); err != nil {
			log.Printf("drop cached history failed for user %d: %v", turn.UserID, err)
		}
	}
	return nil
}

func (w *TurnPersistWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
