// Package polling drives a named remote job to a terminal status with
// exponential backoff. Each Poller owns one job; concurrent pollers are
// fully isolated.
package polling

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/BranchManager69/dexter-session-core/core/payload"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	defaultInitialInterval = 2 * time.Second
	defaultMaxInterval     = 10 * time.Second
	backoffFactor          = 1.5
)

// CallFunc issues one request against a named remote operation.
type CallFunc func(ctx context.Context, tool string, args map[string]any) (any, error)

// Snapshot is a point-in-time view of poller state.
type Snapshot struct {
	JobID      string
	Result     any
	Err        error
	PollCount  int
	Active     bool
	LastStatus string
}

// Config describes the job to poll and how to report progress.
type Config struct {
	// JobID identifies the remote job; no network activity happens
	// without one.
	JobID *string
	// LastStatus is the status the job was last seen in; polling starts
	// automatically only when it classifies as processing.
	LastStatus *string
	// Tool is the remote operation name passed to the call function.
	Tool string
	// Args are fixed extra arguments merged into every poll request.
	Args map[string]any

	InitialInterval time.Duration
	MaxInterval     time.Duration

	// Enabled overrides automatic enablement when set.
	Enabled *bool

	OnUpdate   func(Snapshot)
	OnComplete func(Snapshot)
	OnError    func(error)
}

type Poller struct {
	call CallFunc
	cfg  Config

	mu         sync.Mutex
	ctx        context.Context
	result     any
	err        error
	lastStatus string
	pollCount  int
	active     bool
	closed     bool
	timer      *time.Timer
	// generation invalidates in-flight polls when the job changes or the
	// poller is torn down; a stale response must never write newer state.
	generation uint64

	closeOnce sync.Once
	closeHook chan struct{}
}

// New creates a poller and, when a job id is present and polling is
// enabled, issues an immediate poll followed by backoff-scheduled ones.
// Cancelling ctx tears the poller down.
func New(ctx context.Context, call CallFunc, cfg Config) *Poller {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaultMaxInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}

	p := &Poller{
		call:      call,
		cfg:       cfg,
		ctx:       ctx,
		closeHook: make(chan struct{}),
	}
	if cfg.LastStatus != nil {
		p.lastStatus = *cfg.LastStatus
	}

	go func() {
		select {
		case <-ctx.Done():
			p.Close()
		case <-p.closeHook:
		}
	}()

	p.mu.Lock()
	if p.shouldPollLocked() {
		p.active = true
		gen := p.generation
		p.mu.Unlock()
		go p.pollOnce(gen, true)
		return p
	}
	p.mu.Unlock()
	return p
}

// shouldPollLocked reports whether automatic polling applies: a job id is
// present and either the explicit enable flag is set or the last known
// status classifies as processing.
func (p *Poller) shouldPollLocked() bool {
	if p.closed || p.cfg.JobID == nil || *p.cfg.JobID == "" {
		return false
	}
	if p.cfg.Enabled != nil {
		return *p.cfg.Enabled
	}
	return IsProcessing(p.lastStatus)
}

// intervalFor computes min(initial * 1.5^count, max), clamped to the
// configured bounds when the computation is non-finite.
func intervalFor(initial, max time.Duration, count int) time.Duration {
	scaled := float64(initial) * math.Pow(backoffFactor, float64(count))
	if math.IsNaN(scaled) || math.IsInf(scaled, 0) || scaled <= 0 {
		return max
	}
	if scaled > float64(max) {
		return max
	}
	if scaled < float64(initial) {
		return initial
	}
	return time.Duration(scaled)
}

// Start overrides automatic enablement and begins polling immediately.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.closed || p.cfg.JobID == nil || *p.cfg.JobID == "" {
		p.mu.Unlock()
		return
	}
	enabled := true
	p.cfg.Enabled = &enabled
	p.active = true
	p.cancelTimerLocked()
	p.generation++
	gen := p.generation
	p.mu.Unlock()

	go p.pollOnce(gen, true)
}

// Stop halts scheduled polling; it does not resume without Start.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	enabled := false
	p.cfg.Enabled = &enabled
	p.active = false
	p.cancelTimerLocked()
	p.generation++
}

// SetJob swaps the polled job. Pending timers for the previous job are
// invalidated and its in-flight responses discarded.
func (p *Poller) SetJob(jobID, lastStatus *string) {
	p.mu.Lock()
	p.cfg.JobID = jobID
	p.cfg.Enabled = nil
	p.lastStatus = ""
	if lastStatus != nil {
		p.lastStatus = *lastStatus
	}
	p.result = nil
	p.err = nil
	p.pollCount = 0
	p.cancelTimerLocked()
	p.generation++

	if p.shouldPollLocked() {
		p.active = true
		gen := p.generation
		p.mu.Unlock()
		go p.pollOnce(gen, true)
		return
	}
	p.active = false
	p.mu.Unlock()
}

// Poll issues one immediate out-of-band request without disturbing the
// schedule.
func (p *Poller) Poll(ctx context.Context) {
	p.mu.Lock()
	if p.closed || p.cfg.JobID == nil || *p.cfg.JobID == "" {
		p.mu.Unlock()
		return
	}
	gen := p.generation
	if ctx != nil {
		p.mu.Unlock()
		p.pollOnceCtx(ctx, gen, false)
		return
	}
	p.mu.Unlock()

	p.pollOnce(gen, false)
}

// Snapshot returns the current poller state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Poller) snapshotLocked() Snapshot {
	snapshot := Snapshot{
		Result:     p.result,
		Err:        p.err,
		PollCount:  p.pollCount,
		Active:     p.active,
		LastStatus: p.lastStatus,
	}
	if p.cfg.JobID != nil {
		snapshot.JobID = *p.cfg.JobID
	}
	return snapshot
}

// Close invalidates all timers and drops in-flight responses. Safe to
// call multiple times.
func (p *Poller) Close() {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.active = false
		p.cancelTimerLocked()
		p.generation++
		p.mu.Unlock()
		close(p.closeHook)
	})
}

func (p *Poller) cancelTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// pollOnce performs one request and applies the outcome, then schedules
// the next poll when scheduleNext is set. Results arriving after the
// generation moved on are discarded.
func (p *Poller) pollOnce(gen uint64, scheduleNext bool) {
	p.pollOnceCtx(nil, gen, scheduleNext)
}

func (p *Poller) pollOnceCtx(ctx context.Context, gen uint64, scheduleNext bool) {
	p.mu.Lock()
	if p.closed || gen != p.generation || p.cfg.JobID == nil {
		p.mu.Unlock()
		return
	}
	if ctx == nil {
		ctx = p.ctx
	}
	tool := p.cfg.Tool
	args := make(map[string]any, len(p.cfg.Args)+1)
	for key, value := range p.cfg.Args {
		args[key] = value
	}
	args["job_id"] = *p.cfg.JobID
	p.mu.Unlock()

	ctx, span := tracer.Start(ctx, "poll job")
	span.SetAttributes(attribute.String("poll.tool", tool))
	raw, err := p.call(ctx, tool, args)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()

	p.mu.Lock()
	if p.closed || gen != p.generation {
		p.mu.Unlock()
		return
	}

	if err != nil {
		p.err = fmt.Errorf("poll %q failed: %w", tool, err)
		onError := p.cfg.OnError
		reported := p.err
		p.mu.Unlock()
		if onError != nil {
			onError(reported)
		}
		if scheduleNext {
			p.scheduleNextPoll(gen)
		}
		return
	}

	result := payload.Extract(raw)
	p.result = result
	p.err = nil
	p.pollCount++
	if status := resultStatus(result); status != "" {
		p.lastStatus = status
	}

	terminal := IsTerminal(p.lastStatus)
	if terminal {
		p.active = false
		p.cancelTimerLocked()
	}
	snapshot := p.snapshotLocked()
	onUpdate := p.cfg.OnUpdate
	onComplete := p.cfg.OnComplete
	p.mu.Unlock()

	if onUpdate != nil {
		onUpdate(snapshot)
	}
	if terminal {
		if onComplete != nil {
			onComplete(snapshot)
		}
		return
	}
	if scheduleNext {
		p.scheduleNextPoll(gen)
	}
}

func (p *Poller) scheduleNextPoll(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !p.active || gen != p.generation {
		return
	}

	interval := intervalFor(p.cfg.InitialInterval, p.cfg.MaxInterval, p.pollCount)
	p.timer = time.AfterFunc(interval, func() {
		p.pollOnce(gen, true)
	})
}

// resultStatus reads the job's own status field out of an unwrapped result.
func resultStatus(result any) string {
	object, ok := result.(map[string]any)
	if !ok {
		return ""
	}
	return payload.PickString(object["status"], object["state"])
}
