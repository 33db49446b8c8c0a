package service

import (
	"context"
	"sync"
)

// WriteQueue serializes write operations per entity key.  The original
// form issued a fire-and-forget request per field edit, so two rapid edits
// of the same field could land out of order; funnelling every write to
// "dish:17" or "rating:42" through one lane removes that race while edits
// to different records still run concurrently.
type WriteQueue struct {
	mu    sync.Mutex
	lanes map[string]*lane
}

type lane struct {
	busy    chan struct{} // holds one token; taking it grants the lane
	holders int           // acquirers present, guarded by WriteQueue.mu
}

// NewWriteQueue returns an empty queue.
func NewWriteQueue() *WriteQueue {
	return &WriteQueue{lanes: map[string]*lane{}}
}

// Do runs op while holding the lane for key, waiting for earlier writes to
// the same key to finish first.  The operation's error is returned to the
// caller so a rejected write can be surfaced to the user.  If ctx ends
// before the lane is free, op never runs.
func (q *WriteQueue) Do(ctx context.Context, key string, op func(context.Context) error) error {
	l := q.enter(key)
	select {
	case <-l.busy:
	case <-ctx.Done():
		q.leave(key, l)
		return ctx.Err()
	}
	defer func() {
		l.busy <- struct{}{}
		q.leave(key, l)
	}()
	return op(ctx)
}

func (q *WriteQueue) enter(key string) *lane {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.lanes[key]
	if !ok {
		l = &lane{busy: make(chan struct{}, 1)}
		l.busy <- struct{}{}
		q.lanes[key] = l
	}
	l.holders++
	return l
}

// leave drops the caller's claim on the lane and frees the map entry when
// nobody else is waiting, so idle keys do not accumulate.
func (q *WriteQueue) leave(key string, l *lane) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l.holders--
	if l.holders == 0 {
		delete(q.lanes, key)
	}
}
