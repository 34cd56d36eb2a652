// Package worker hosts the background tick driver. The worker owns the
// cadence and the cross-instance leader lock; all automation semantics
// (generation, window math, dispatch) live in the automation engine.
package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Leo190198/promoShare/internal/domain"
	"github.com/Leo190198/promoShare/internal/pkg/distlock"
)

// tickTimeout bounds one tick pass. A pass can touch the catalog API for
// every active theme and push a full dispatch batch through the bridge,
// so the ceiling is generous.
const tickTimeout = 5 * time.Minute

// TickRunner is the slice of the automation engine the worker drives.
type TickRunner interface {
	RunSchedulerTick(ctx context.Context) (*domain.TickResult, error)
}

// AutomationWorker runs the scheduler tick on a fixed interval. When a
// distributed lock is configured, only the instance holding it executes
// the pass; the others skip and retry on the next interval.
type AutomationWorker struct {
	runner   TickRunner
	lock     distlock.Lock // optional; nil means single-instance deployment
	interval time.Duration

	// Stats
	ticksRun     int64
	ticksSkipped int64
	tickErrors   int64
	generated    int64
	sent         int64
	failed       int64

	// Control
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
	mu      sync.RWMutex
}

// NewAutomationWorker creates the tick driver with the given interval.
func NewAutomationWorker(runner TickRunner, interval time.Duration) *AutomationWorker {
	return &AutomationWorker{
		runner:   runner,
		interval: interval,
	}
}

// SetLock installs the cross-instance leader lock. Without one, every
// instance runs the tick, which is only safe for single-node deployments.
func (w *AutomationWorker) SetLock(lock distlock.Lock) {
	w.lock = lock
}

// Start begins the tick loop.
func (w *AutomationWorker) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("automation worker already running")
	}
	w.running = true
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.mu.Unlock()

	log.Printf("[AutomationWorker] Starting with tick interval: %v", w.interval)

	w.wg.Add(1)
	go w.tickLoop()

	return nil
}

// Stop gracefully stops the worker, waiting for an in-flight tick.
func (w *AutomationWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	log.Printf("[AutomationWorker] Stopping...")
	w.cancel()
	w.wg.Wait()
	log.Printf("[AutomationWorker] Stopped. Ticks: %d, generated: %d, sent: %d, failed: %d",
		atomic.LoadInt64(&w.ticksRun), atomic.LoadInt64(&w.generated),
		atomic.LoadInt64(&w.sent), atomic.LoadInt64(&w.failed))
}

// IsRunning reports whether the loop is active.
func (w *AutomationWorker) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns the loop counters: executed ticks, skipped ticks, and
// tick errors.
func (w *AutomationWorker) Stats() (run, skipped, errors int64) {
	return atomic.LoadInt64(&w.ticksRun),
		atomic.LoadInt64(&w.ticksSkipped),
		atomic.LoadInt64(&w.tickErrors)
}

func (w *AutomationWorker) tickLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.runTick()
		}
	}
}

// runTick executes one pass under the leader lock.
func (w *AutomationWorker) runTick() {
	ctx, cancel := context.WithTimeout(w.ctx, tickTimeout)
	defer cancel()

	if w.lock != nil {
		acquired, err := w.lock.Acquire(ctx)
		if err != nil {
			log.Printf("[AutomationWorker] Error acquiring tick lock: %v", err)
			atomic.AddInt64(&w.tickErrors, 1)
			return
		}
		if !acquired {
			atomic.AddInt64(&w.ticksSkipped, 1)
			return
		}
		defer func() {
			if err := w.lock.Release(ctx); err != nil {
				log.Printf("[AutomationWorker] Error releasing tick lock: %v", err)
			}
		}()
	}

	res, err := w.runner.RunSchedulerTick(ctx)
	if err != nil {
		log.Printf("[AutomationWorker] Tick failed: %v", err)
		atomic.AddInt64(&w.tickErrors, 1)
		return
	}

	atomic.AddInt64(&w.ticksRun, 1)
	atomic.AddInt64(&w.generated, int64(res.Generated))
	atomic.AddInt64(&w.sent, int64(res.QueuedSent))
	atomic.AddInt64(&w.failed, int64(res.QueuedFailed))

	if res.Generated > 0 || res.QueuedProcessed > 0 {
		log.Printf("[AutomationWorker] Tick done: generated=%d processed=%d sent=%d failed=%d notReady=%v",
			res.Generated, res.QueuedProcessed, res.QueuedSent, res.QueuedFailed, res.SkippedNotReady)
	}
}
