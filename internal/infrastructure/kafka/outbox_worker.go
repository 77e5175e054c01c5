package kafka

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/iheb-heni/product-management/internal/usecase"
	"github.com/iheb-heni/product-management/pkg/e"
	"github.com/iheb-heni/product-management/pkg/jitter"
	"github.com/iheb-heni/product-management/pkg/logger"
	"github.com/jackc/pgx/v5"
)

const (
	outboxChannel = "outbox_pending"
	batchSize     = 10
	waitTimeout   = 30 * time.Second

	reconnectBase = 2 * time.Second
	reconnectMax  = 30 * time.Second
)

// OutboxWorker публикует события из таблицы outbox в Kafka.
// На старте выгребает накопившиеся события, затем ждет уведомлений
// LISTEN/NOTIFY на отдельном соединении. Неотправленные события
// остаются pending и будут подхвачены следующим проходом.
type OutboxWorker struct {
	repo      usecase.OutboxRepository
	producer  usecase.MessageProducer
	logger    logger.Logger
	dbConnStr string
	stop      chan struct{}
	wg        sync.WaitGroup
}

func NewOutboxWorker(
	repo usecase.OutboxRepository,
	producer usecase.MessageProducer,
	logger logger.Logger,
	dbConnStr string,
) *OutboxWorker {
	return &OutboxWorker{
		repo:      repo,
		producer:  producer,
		logger:    logger,
		dbConnStr: dbConnStr,
		stop:      make(chan struct{}),
	}
}

func (w *OutboxWorker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		w.logger.Infof("Draining pending outbox events on startup...")
		w.drain(ctx)

		w.listen(ctx)
	}()
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// listen держит выделенное соединение с LISTEN и выгребает outbox
// при каждом уведомлении. Потерянное соединение восстанавливается
// с экспоненциальным отступлением и джиттером.
func (w *OutboxWorker) listen(ctx context.Context) {
	var conn *pgx.Conn

	connect := func() error {
		var err error
		conn, err = pgx.Connect(ctx, w.dbConnStr)
		if err != nil {
			return e.Wrap("failed to connect for LISTEN", err)
		}

		if _, err = conn.Exec(ctx, "LISTEN "+outboxChannel); err != nil {
			conn.Close(ctx)
			return e.Wrap("failed to LISTEN", err)
		}

		w.logger.Infof("Subscribed to '%s' channel", outboxChannel)
		return nil
	}

	reconnect := func(attempt int) bool {
		delay := jitter.ExponentialBackoff(reconnectBase, reconnectMax, attempt, jitter.DefaultJitter)
		select {
		case <-time.After(delay):
			return true
		case <-ctx.Done():
			return false
		case <-w.stop:
			return false
		}
	}

	for attempt := 0; ; attempt++ {
		if err := connect(); err == nil {
			break
		} else {
			w.logger.Warnf("LISTEN connect failed: %v", err)
			if !reconnect(attempt) {
				return
			}
		}
	}
	defer conn.Close(ctx)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		default:
			waitCtx, cancel := context.WithTimeout(ctx, waitTimeout)
			notif, err := conn.WaitForNotification(waitCtx)
			cancel()

			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					continue
				}

				w.logger.Warnf("LISTEN connection lost: %v. Reconnecting...", err)
				conn.Close(ctx)

				if !reconnect(attempt) {
					return
				}
				if err := connect(); err != nil {
					w.logger.Warnf("Reconnect failed: %v", err)
					attempt++
					continue
				}
				attempt = 0
				continue
			}

			if notif != nil && notif.Channel == outboxChannel {
				w.logger.Debugf("Received outbox notification, draining outbox events")
				w.drain(ctx)
			}
		}
	}
}

// drain обрабатывает пачки событий, пока таблица не опустеет.
func (w *OutboxWorker) drain(ctx context.Context) {
	for {
		hasMore, err := w.processBatch(ctx)
		if err != nil {
			w.logger.Warnf("Batch processing failed: %v", err)
			return
		}
		if !hasMore {
			return
		}
	}
}

func (w *OutboxWorker) processBatch(ctx context.Context) (bool, error) {
	events, err := w.repo.GetAndMarkAsProcessing(ctx, batchSize)
	if err != nil {
		return false, err
	}

	if len(events) == 0 {
		return false, nil
	}

	for _, event := range events {
		if err := w.publish(ctx, event); err != nil {
			if isRetryableError(err) {
				w.logger.Warnf("Temporary Kafka failure, event %s will retry: %v", event.EventID, err)
			} else {
				w.logger.Warnf("Permanent Kafka failure, event %s: %v", event.EventID, err)
			}
			continue
		}

		if err := w.repo.MarkAsProcessed(ctx, event.ID); err != nil {
			w.logger.Warnf("mark processed failed: %v", err)
		}
	}

	return true, nil
}

func (w *OutboxWorker) publish(ctx context.Context, event *usecase.OutboxEvent) error {
	return w.producer.WriteRawMessage(ctx, usecase.NewWriteRawMessageReq(event.ProductID, event.Payload))
}

// isRetryableError распознает временные сетевые ошибки брокера по тексту.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"i/o timeout",
		"network is unreachable",
		"broker not available",
		"connection reset",
		"broken pipe",
		"no such host",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(errStr, phrase) {
			return true
		}
	}

	return false
}
