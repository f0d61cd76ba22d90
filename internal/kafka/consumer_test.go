package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-restaurant-api.git/internal/logging"
	"github.com/segmentio/kafka-go"
)

var errBroken = errors.New("broker connection lost")

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed map[int][]int64
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	f := &fakeReader{msgs: make(chan kafka.Message, len(msgs)), committed: map[int][]int64{}}
	for _, m := range msgs {
		f.msgs <- m
	}
	return f
}

// FetchMessage blocks once the queue is empty; a closed queue is a broken reader.
func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m, ok := <-f.msgs:
		if !ok {
			return kafka.Message{}, errBroken
		}
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed[m.Partition] = append(f.committed[m.Partition], m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) commits(partition int) []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int64(nil), f.committed[partition]...)
}

type key struct {
	partition int
	offset    int64
}

// attempts counts handler calls and fails the ones fail says to.
type attempts struct {
	mu    sync.Mutex
	calls map[key]int
	fail  func(k key, call int) bool
}

func (a *attempts) handle(_ context.Context, m kafka.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.calls == nil {
		a.calls = map[key]int{}
	}
	k := key{m.Partition, m.Offset}
	a.calls[k]++
	if a.fail != nil && a.fail(k, a.calls[k]) {
		return errors.New("redis unavailable")
	}
	return nil
}

func (a *attempts) count(k key) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[k]
}

func msg(partition int, offset int64) kafka.Message {
	return kafka.Message{Topic: "order-events", Partition: partition, Offset: offset}
}

func testConsumer(r reader, workers int) *Consumer {
	c := newConsumer(r, workers, logging.Discard())
	c.minBackoff = time.Millisecond
	c.maxBackoff = 5 * time.Millisecond
	return c
}

func start(ctx context.Context, c *Consumer, h Handler) <-chan error {
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx, h) }()
	return done
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitReturn(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return")
		return nil
	}
}

func TestConsumerRetriesFailedMessage(t *testing.T) {
	fr := newFakeReader(msg(0, 0), msg(0, 1), msg(0, 2), msg(1, 0))
	h := &attempts{fail: func(k key, call int) bool { return k == key{0, 1} && call < 3 }}
	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, testConsumer(fr, 2), h.handle)

	waitFor(t, "all commits", func() bool { return len(fr.commits(0)) == 3 && len(fr.commits(1)) == 1 })
	cancel()
	if err := waitReturn(t, done); err != nil {
		t.Fatalf("Start = %v", err)
	}

	if got := fr.commits(0); got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("partition 0 commits = %v, want [0 1 2]", got)
	}
	if n := h.count(key{0, 1}); n != 3 {
		t.Errorf("offset 1 handled %d times, want 3", n)
	}
	if !fr.closed {
		t.Error("reader not closed")
	}
}

func TestConsumerNeverCommitsPastFailure(t *testing.T) {
	fr := newFakeReader(msg(0, 0), msg(0, 1), msg(1, 0))
	h := &attempts{fail: func(k key, _ int) bool { return k == key{0, 0} }}
	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, testConsumer(fr, 4), h.handle)

	waitFor(t, "partition 1 commit", func() bool { return len(fr.commits(1)) == 1 })
	waitFor(t, "retries of offset 0", func() bool { return h.count(key{0, 0}) >= 3 })
	cancel()
	if err := waitReturn(t, done); err != nil {
		t.Fatalf("Start = %v", err)
	}

	if got := fr.commits(0); len(got) != 0 {
		t.Errorf("partition 0 commits = %v, want none", got)
	}
	if n := h.count(key{0, 1}); n != 0 {
		t.Errorf("offset 1 handled %d times before offset 0 succeeded", n)
	}
}

func TestConsumerShutdownWhileHandlerKeepsFailing(t *testing.T) {
	var msgs []kafka.Message
	for p := 0; p < 5; p++ {
		msgs = append(msgs, msg(p, 0))
	}
	fr := newFakeReader(msgs...)
	h := &attempts{fail: func(key, int) bool { return true }}
	ctx, cancel := context.WithCancel(context.Background())
	done := start(ctx, testConsumer(fr, 4), h.handle)

	waitFor(t, "every message attempted twice", func() bool {
		for p := 0; p < 5; p++ {
			if h.count(key{p, 0}) < 2 {
				return false
			}
		}
		return true
	})
	cancel()
	if err := waitReturn(t, done); err != nil {
		t.Fatalf("Start = %v", err)
	}
	for p := 0; p < 5; p++ {
		if got := fr.commits(p); len(got) != 0 {
			t.Errorf("partition %d commits = %v, want none", p, got)
		}
	}
}

func TestConsumerReaderFailure(t *testing.T) {
	fr := newFakeReader(msg(0, 0))
	h := &attempts{fail: func(key, int) bool { return true }}
	done := start(context.Background(), testConsumer(fr, 1), h.handle)

	waitFor(t, "first attempt", func() bool { return h.count(key{0, 0}) >= 1 })
	close(fr.msgs)
	if err := waitReturn(t, done); !errors.Is(err, errBroken) {
		t.Fatalf("Start = %v, want %v", err, errBroken)
	}
	if got := fr.commits(0); len(got) != 0 {
		t.Errorf("commits = %v, want none", got)
	}
}
