package web

// limiter.go bounds how many uploads are parsed and validated at once.
//
// Each upload holds one semaphore slot for the whole read-validate-store
// sequence. When every slot is taken a request waits up to maxWait and
// then fails with ErrTooManyUploads. Drain blocks until in-flight uploads
// finish, for graceful shutdown.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JonMunkholm/sheetnorm/internal/metrics"
)

// ErrTooManyUploads is returned when no slot frees up in time.
var ErrTooManyUploads = errors.New("too many uploads in progress")

const (
	defaultMaxConcurrent = 5
	defaultMaxWait       = 30 * time.Second
)

// UploadLimiter is a counting semaphore over upload processing.
type UploadLimiter struct {
	slots   chan struct{}
	maxWait time.Duration
	metrics *metrics.Metrics

	mu     sync.Mutex
	active int
	idle   chan struct{} // closed while active == 0
}

// NewUploadLimiter allows at most maxConcurrent uploads; non-positive
// arguments select the defaults. m may be nil.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration, m *metrics.Metrics) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}
	idle := make(chan struct{})
	close(idle)
	return &UploadLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		metrics: m,
		idle:    idle,
	}
}

// Acquire takes a slot, waiting up to the limiter's wait time. The caller
// must Release after a nil return.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.started()
		return nil
	case <-timer.C:
		return ErrTooManyUploads
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free.
func (l *UploadLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.started()
		return true
	default:
		return false
	}
}

// Release returns a slot taken by Acquire or TryAcquire.
func (l *UploadLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.idle)
	}
	l.mu.Unlock()

	<-l.slots
	if l.metrics != nil {
		l.metrics.UploadFinished()
	}
}

func (l *UploadLimiter) started() {
	l.mu.Lock()
	if l.active == 0 {
		l.idle = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()

	if l.metrics != nil {
		l.metrics.UploadStarted()
	}
}

// Active returns the number of uploads holding a slot.
func (l *UploadLimiter) Active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Available returns the number of free slots.
func (l *UploadLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// Drain blocks until no upload holds a slot or ctx is done.
func (l *UploadLimiter) Drain(ctx context.Context) error {
	for {
		l.mu.Lock()
		idle := l.idle
		active := l.active
		l.mu.Unlock()
		if active == 0 {
			return nil
		}

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
