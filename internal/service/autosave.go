package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ── Autosave ──────────────────────────────────────────────

// flushTimeout bounds one scheduled flush.
const flushTimeout = time.Minute

// Autosaver periodically writes dirty templates back to the store.
// Flush is the single save trigger; the cron schedule only calls it.
type Autosaver struct {
	svc      *TemplateService
	schedule string
	log      *slog.Logger

	mu    sync.Mutex
	sched *cron.Cron

	// templates whose save is in flight; a flush skips them
	flightMu sync.Mutex
	inFlight map[string]bool
	saves    sync.WaitGroup
}

// NewAutosaver creates an Autosaver for svc. schedule is a cron spec
// such as "@every 30s" or "*/1 * * * *".
func NewAutosaver(svc *TemplateService, schedule string) *Autosaver {
	return &Autosaver{
		svc:      svc,
		schedule: schedule,
		log:      slog.Default().With("component", "autosave"),
		inFlight: make(map[string]bool),
	}
}

// Start schedules Flush. Calling Start twice restarts the schedule.
// Each run gets its own deadline; cancelling ctx does not stop the
// schedule, Stop does.
func (a *Autosaver) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sched != nil {
		a.sched.Stop()
		a.sched = nil
	}

	base := context.WithoutCancel(ctx)
	c := cron.New()
	_, err := c.AddFunc(a.schedule, func() { a.tick(base) })
	if err != nil {
		return fmt.Errorf("invalid autosave schedule %q: %w", a.schedule, err)
	}
	c.Start()
	a.sched = c
	a.log.Info("autosave scheduled", "schedule", a.schedule)
	return nil
}

func (a *Autosaver) tick(base context.Context) {
	if a.svc.Pending() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(base, flushTimeout)
	defer cancel()

	n, err := a.Flush(ctx)
	if err != nil {
		a.log.Warn("autosave failed", "err", err)
		a.svc.emitter.Emit(ctx, EventAutosaveFailed, err.Error())
		return
	}
	a.log.Debug("autosave", "saved", n)
}

// Pending reports how many templates have unsaved edits.
func (a *Autosaver) Pending() int {
	return a.svc.Pending()
}

// Flush saves every dirty template. Templates whose save is already in
// flight are skipped. It returns the number of templates written.
func (a *Autosaver) Flush(ctx context.Context) (int, error) {
	var (
		saved int
		errs  []error
	)
	for _, id := range a.svc.DirtyIDs() {
		if !a.claim(id) {
			continue
		}
		err := a.svc.Save(ctx, id)
		a.release(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// claim marks a save of id as running. It reports false when one
// already is.
func (a *Autosaver) claim(id string) bool {
	a.flightMu.Lock()
	defer a.flightMu.Unlock()
	if a.inFlight[id] {
		return false
	}
	a.inFlight[id] = true
	a.saves.Add(1)
	return true
}

func (a *Autosaver) release(id string) {
	a.flightMu.Lock()
	defer a.flightMu.Unlock()
	delete(a.inFlight, id)
	a.saves.Done()
}

// waitSaves blocks until no save is in flight or ctx is done.
func (a *Autosaver) waitSaves(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		a.saves.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Stop halts the schedule, waits for running saves until ctx is done and
// then flushes whatever is still pending.
func (a *Autosaver) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.sched != nil {
		<-a.sched.Stop().Done()
		a.sched = nil
	}
	a.mu.Unlock()

	a.waitSaves(ctx)
	_, err := a.Flush(ctx)
	return err
}
