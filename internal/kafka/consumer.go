package kafka

import (
	"context"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Handler returns nil only when the message is processed and its offset may be committed.
type Handler func(ctx context.Context, m kafka.Message) error

// reader is the part of *kafka.Reader the consumer drives.
type reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	minRetryBackoff = 200 * time.Millisecond
	maxRetryBackoff = 10 * time.Second
)

type Consumer struct {
	r          reader
	workers    int
	minBackoff time.Duration
	maxBackoff time.Duration
	log        *logrus.Entry
}

func NewConsumer(brokers []string, group, topic string, workers int, log *logrus.Entry) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		Topic:          topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return newConsumer(r, workers, log.WithFields(logrus.Fields{"topic": topic, "group": group}))
}

func newConsumer(r reader, workers int, log *logrus.Entry) *Consumer {
	if workers <= 0 {
		workers = 1
	}
	return &Consumer{
		r:          r,
		workers:    workers,
		minBackoff: minRetryBackoff,
		maxBackoff: maxRetryBackoff,
		log:        log.WithField("component", "kafka-consumer"),
	}
}

// Start fetches messages and fans them out to the worker pool until ctx is
// done or the reader fails.
//
// Every partition is pinned to one worker, which handles its messages in
// offset order and retries a failing message with backoff until it
// succeeds. A partition's committed offset therefore never moves past a
// message that was not handled; whatever is in flight at shutdown is
// redelivered to the next consumer.
func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make([]chan kafka.Message, c.workers)
	var wg sync.WaitGroup
	for i := range jobs {
		jobs[i] = make(chan kafka.Message, 256)
		wg.Add(1)
		go func(in <-chan kafka.Message) {
			defer wg.Done()
			for m := range in {
				c.process(ctx, h, m)
			}
		}(jobs[i])
	}
	// workers stop retrying once ctx is cancelled, so Wait cannot hang
	stop := func() {
		cancel()
		for _, ch := range jobs {
			close(ch)
		}
		wg.Wait()
	}

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			stop()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case jobs[m.Partition%c.workers] <- m:
		case <-ctx.Done():
			stop()
			return nil
		}
	}
}

// process runs h until it succeeds and then commits m. It gives up only
// when ctx is done, leaving m uncommitted.
func (c *Consumer) process(ctx context.Context, h Handler, m kafka.Message) {
	backoff := c.minBackoff
	for attempt := 1; ctx.Err() == nil; attempt++ {
		err := h(ctx, m)
		if err == nil {
			if err := c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				c.log.WithError(err).WithFields(logrus.Fields{
					"partition": m.Partition,
					"offset":    m.Offset,
				}).Warn("commit failed")
			}
			return
		}
		c.log.WithError(err).WithFields(logrus.Fields{
			"partition": m.Partition,
			"offset":    m.Offset,
			"attempt":   attempt,
		}).Warn("handler failed, retrying")

		select {
		case <-ctx.Done():
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}
