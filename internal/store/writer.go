package store

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// pendingWrite is the latest queued state of one document.
// A nil value means the document should be deleted.
type pendingWrite struct {
	value []byte
}

// Writer queues document writes and applies them later, outside the call that
// mutated the in-memory state. Writes are fire-and-forget: a failure is logged and
// the document stays queued for the next flush.
//
// Only the latest state of each document is kept, so a burst of mutations costs
// one write per document.
type Writer struct {
	store Store

	mu      sync.Mutex
	pending map[string]pendingWrite
	order   []string // First-queued order of the keys in pending
}

func NewWriter(s Store) *Writer {
	return &Writer{store: s, pending: make(map[string]pendingWrite)}
}

// Save snapshots v as JSON now and queues it for key.
// Marshalling happens here so later mutations of v cannot leak into the write.
func (w *Writer) Save(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[store] Failed to encode %s: %v", key, err)
		return
	}
	w.queue(key, pendingWrite{value: data})
}

// SaveRaw queues bytes that are stored as-is.
func (w *Writer) SaveRaw(key string, value []byte) {
	w.queue(key, pendingWrite{value: append([]byte(nil), value...)})
}

// Remove queues deletion of key.
func (w *Writer) Remove(key string) {
	w.queue(key, pendingWrite{})
}

func (w *Writer) queue(key string, p pendingWrite) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.pending[key]; !ok {
		w.order = append(w.order, key)
	}
	w.pending[key] = p
}

// Pending returns how many documents are waiting to be written.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Flush writes every queued document. Documents that fail stay queued unless a
// newer state was queued while the flush ran. It returns the first error seen.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	batch := w.pending
	order := w.order
	w.pending = make(map[string]pendingWrite)
	w.order = nil
	w.mu.Unlock()

	var firstErr error
	for _, key := range order {
		p := batch[key]
		var err error
		if p.value == nil {
			err = w.store.Delete(ctx, key)
		} else {
			err = w.store.Put(ctx, key, p.value)
		}
		if err != nil {
			log.Printf("[store] Failed to write %s: %v", key, err)
			if firstErr == nil {
				firstErr = err
			}
			w.requeue(key, p)
		}
	}
	return firstErr
}

// requeue puts a failed write back unless something newer replaced it.
func (w *Writer) requeue(key string, p pendingWrite) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, newer := w.pending[key]; newer {
		return
	}
	w.pending[key] = p
	w.order = append(w.order, key)
}

// Schedule registers a job on s that flushes the writer every interval.
// The scheduler must be started by the caller.
func (w *Writer) Schedule(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if err := w.Flush(context.Background()); err != nil {
				log.Printf("[store] Scheduled flush incomplete, %d document(s) still pending", w.Pending())
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
