// Package scanner implements the orchestrator state machine (spec
// §4.9, C9) that composes every other component — window resolution
// (C2), capture (C3), the frame cache (C4), the template bank (C5),
// matching (C6), the scan scheduler (C7), click dispatch (C8) and the
// event channel (C10) — into the worker process's single tick loop.
package scanner

import (
	"sync"
	"time"

	"autoapprove/internal/capture"
	"autoapprove/internal/clickdispatch"
	"autoapprove/internal/config"
	"autoapprove/internal/eventbus"
	"autoapprove/internal/framecache"
	"autoapprove/internal/geometry"
	"autoapprove/internal/matcher"
	"autoapprove/internal/scheduler"
	"autoapprove/internal/storage"
	"autoapprove/internal/templatebank"
	"autoapprove/internal/winlocator"
)

const consumerTag = "scanner"

// Orchestrator owns the worker's single scanner thread and runs the
// tick loop described in spec §4.9. It is not safe for concurrent
// calls to Run; Pause/Resume/Stop are the only methods meant to be
// called from another goroutine (the IPC control listener).
type Orchestrator struct {
	cfg   *config.Config
	bank  *templatebank.Bank
	cache *framecache.Cache
	sched *scheduler.Scheduler
	match *matcher.Matcher
	click *clickdispatch.Dispatcher
	bus   *eventbus.Channel

	faults *faultTracker

	mu       sync.Mutex
	state    State
	streaks  map[string]int
	session  capture.Session
	resolved winlocator.WindowInfo
	monitor  geometry.Monitor

	pauseCh  chan struct{}
	resumeCh chan struct{}
	stopCh   chan struct{}
}

// New builds an orchestrator from a validated config and its
// dependent components. The caller constructs bank/cache/sched/match/
// click/bus once and hands them in.
func New(cfg *config.Config, bank *templatebank.Bank, cache *framecache.Cache, sched *scheduler.Scheduler, match *matcher.Matcher, click *clickdispatch.Dispatcher, bus *eventbus.Channel) *Orchestrator {
	return &Orchestrator{
		cfg:      cfg,
		bank:     bank,
		cache:    cache,
		sched:    sched,
		match:    match,
		click:    click,
		bus:      bus,
		faults:   newFaultTracker(),
		state:    StateIdle,
		streaks:  make(map[string]int),
		pauseCh:  make(chan struct{}, 1),
		resumeCh: make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
	}
}

// State returns the orchestrator's current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State, detail string) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.emitStatus(s, detail)
}

func (o *Orchestrator) emitStatus(s State, detail string) {
	o.bus.Send(eventbus.Event{
		Kind:      eventbus.KindStatusChanged,
		Timestamp: time.Now(),
		Status:    &eventbus.StatusChanged{State: string(s), Detail: detail},
	})
}

func (o *Orchestrator) emitError(kind, detail string) {
	o.bus.Send(eventbus.Event{
		Kind:      eventbus.KindError,
		Timestamp: time.Now(),
		Error:     &eventbus.Error{Kind: kind, Detail: detail},
	})
}

// Pause requests a transition to Paused at the next suspension point.
func (o *Orchestrator) Pause() {
	select {
	case o.pauseCh <- struct{}{}:
	default:
	}
}

// Resume requests a transition back to Scanning from Paused.
func (o *Orchestrator) Resume() {
	select {
	case o.resumeCh <- struct{}{}:
	default:
	}
}

// Stop requests cooperative shutdown (spec §5: "stop is cooperative").
func (o *Orchestrator) Stop() {
	close(o.stopCh)
}

// Run drives the state machine until Stop is called. It never returns
// an error: every failure mode is folded into Faulted+backoff, per
// spec §4.9's "no state corruption" guarantee.
func (o *Orchestrator) Run() {
	o.setState(StateArming, "starting")

	for {
		select {
		case <-o.stopCh:
			o.teardownSession()
			o.setState(StateIdle, "stopped")
			return
		default:
		}

		switch o.State() {
		case StateArming:
			o.arm()
		case StateScanning:
			o.tick()
		case StatePaused:
			o.waitResume()
		case StateFaulted:
			o.backoffAndRearm()
		default:
			o.setState(StateArming, "")
		}
	}
}

// arm resolves the target window/monitor and starts a capture session
// (spec §4.9: Arming → source-ready → Scanning).
func (o *Orchestrator) arm() {
	target := winlocator.WindowTarget{
		Handle:       uintptr(o.cfg.TargetHWND),
		Title:        o.cfg.TargetTitle,
		TitlePartial: o.cfg.TitlePartial,
		ProcessName:  o.cfg.TargetProcess,
	}

	var source capture.Source
	if o.cfg.CaptureBackend == "monitor" {
		mon, err := o.resolveMonitor(o.cfg.MonitorIndex)
		if err != nil {
			o.fault("MonitorNotFound", err.Error())
			return
		}
		o.mu.Lock()
		o.monitor = mon
		o.mu.Unlock()
		source = capture.Source{MonitorHandle: mon.Handle}
	} else {
		info, err := winlocator.Resolve(target)
		if err != nil {
			o.fault("WindowNotFound", err.Error())
			return
		}
		o.mu.Lock()
		o.resolved = info
		o.mu.Unlock()
		source = capture.Source{WindowHandle: info.Handle}
	}

	sess, err := capture.Start(source, capture.Options{
		IncludeCursor:              o.cfg.IncludeCursor,
		BorderRequired:             o.cfg.BorderRequired,
		FPSMax:                     o.cfg.FPSMax,
		TimeoutMS:                  o.cfg.CaptureTimeoutMS,
		RestoreMinimizedNoactivate: o.cfg.RestoreMinimizedNoactivate,
	})
	if err != nil {
		o.fault("CaptureStartFailed", err.Error())
		return
	}

	o.mu.Lock()
	o.session = sess
	o.mu.Unlock()
	o.faults.reset()
	o.setState(StateScanning, "")
}

// resolveMonitor re-enumerates the display set and looks up the
// configured 1-based monitor_index (spec §6). Monitors are re-enumerated
// on every arm rather than cached, since a display can be attached or
// detached between Arming passes (spec §4.9: arm ⟶ source-ready).
func (o *Orchestrator) resolveMonitor(index int) (geometry.Monitor, error) {
	registry, err := geometry.EnumerateMonitors()
	if err != nil {
		return geometry.Monitor{}, err
	}
	return registry.ByIndex(index)
}

// tick implements the six-step per-tick sequence from spec §4.9.
func (o *Orchestrator) tick() {
	delay := time.Duration(o.sched.NextDelayMS()) * time.Millisecond
	if !o.sleep(delay) {
		return
	}

	if o.cfg.CaptureBackend != "monitor" {
		target := winlocator.WindowTarget{
			Handle:       o.resolved.Handle,
			Title:        o.cfg.TargetTitle,
			TitlePartial: o.cfg.TitlePartial,
			ProcessName:  o.cfg.TargetProcess,
		}
		info, err := winlocator.Resolve(target)
		if err != nil {
			o.recordMiss(nil)
			return
		}
		if info.Handle != o.resolved.Handle {
			o.mu.Lock()
			o.resolved = info
			o.mu.Unlock()
			o.teardownSession()
			o.setState(StateArming, "target changed")
			return
		}
	}

	o.mu.Lock()
	sess := o.session
	o.mu.Unlock()
	if sess == nil {
		o.setState(StateArming, "no session")
		return
	}

	frame, err := sess.LatestFrame()
	if err != nil {
		o.fault("CaptureTimeout", err.Error())
		return
	}
	o.cache.Publish(frame)

	handle := o.cache.Acquire(consumerTag)
	if handle == nil {
		o.recordMiss(nil)
		return
	}
	defer handle.Release()

	roi := matcher.ROI{X: o.cfg.ROI.X, Y: o.cfg.ROI.Y, W: o.cfg.ROI.W, H: o.cfg.ROI.H}
	result, err := o.match.Match(handle.Frame(), roi, o.bank)
	if err != nil {
		o.recordMiss(nil)
		return
	}
	if result == nil {
		o.recordMiss(nil)
		return
	}

	if o.cfg.SaveDebugImages {
		storage.NewDumper(o.cfg.DebugImageDir).SaveMatch(handle.Frame(), result)
	}
	o.recordHit(result)
}

// recordMiss resets the streak for templates that did not match this
// tick and tells the scheduler about the miss (spec §4.9 step 5).
func (o *Orchestrator) recordMiss(matched *matcher.MatchResult) {
	o.mu.Lock()
	for id := range o.streaks {
		if matched == nil || matched.TemplateID != id {
			o.streaks[id] = 0
		}
	}
	o.mu.Unlock()
	o.sched.OnMiss()
}

// recordHit advances the matched template's streak and, once it meets
// min_detections, dispatches a click and enters Cooldown.
func (o *Orchestrator) recordHit(result *matcher.MatchResult) {
	o.mu.Lock()
	o.streaks[result.TemplateID]++
	streak := o.streaks[result.TemplateID]
	for id := range o.streaks {
		if id != result.TemplateID {
			o.streaks[id] = 0
		}
	}
	o.mu.Unlock()

	o.bus.Send(eventbus.Event{
		Kind:      eventbus.KindMatch,
		Timestamp: time.Now(),
		Match: &eventbus.Match{
			TemplateID: result.TemplateID,
			Score:      float64(result.Score),
			X:          result.Location.X,
			Y:          result.Location.Y,
		},
	})

	if streak < o.cfg.MinDetections {
		o.sched.OnMiss()
		return
	}

	center := geometry.Point{
		X: result.Location.X + result.Size.X/2,
		Y: result.Location.Y + result.Size.Y/2,
	}
	err := o.click.Dispatch(o.resolved.Handle, center, o.cfg.ClickOffset)

	success := err == nil
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	o.bus.Send(eventbus.Event{
		Kind:      eventbus.KindClick,
		Timestamp: time.Now(),
		Click:     &eventbus.Click{Success: success, X: center.X, Y: center.Y, Detail: detail},
	})

	o.mu.Lock()
	o.streaks[result.TemplateID] = 0
	o.mu.Unlock()

	if err != nil && err != clickdispatch.ErrCooling {
		o.emitError("ClickFailed", err.Error())
	}

	o.sched.OnHit()
	o.setState(StateCooldown, result.TemplateID)
	o.sleep(time.Duration(o.cfg.HitCooldownMS) * time.Millisecond)
	if o.State() == StateCooldown {
		o.setState(StateScanning, "")
	}
}

// fault records a capture-side failure and transitions to Faulted,
// per spec §4.9's Scanning ─capture-error→ Faulted edge.
func (o *Orchestrator) fault(kind, detail string) {
	o.emitError(kind, detail)
	o.teardownSession()
	o.setState(StateFaulted, kind)
}

// backoffAndRearm waits the fault tracker's current backoff, then
// re-arms, or sticks in Faulted if the 60s fault budget is exceeded
// (spec §7 WorkerFault policy).
func (o *Orchestrator) backoffAndRearm() {
	wait, sticky := o.faults.recordFault(time.Now())
	if sticky {
		o.emitError("WorkerFault", "fault budget exceeded, sticking in Faulted until user action")
		select {
		case <-o.resumeCh:
		case <-o.stopCh:
			return
		}
		o.faults.reset()
		o.setState(StateArming, "user re-armed")
		return
	}
	if !o.sleep(wait) {
		return
	}
	o.setState(StateArming, "backoff elapsed")
}

// waitResume blocks in Paused until Resume, Stop, or a 200ms
// pause-loop tick, whichever comes first.
func (o *Orchestrator) waitResume() {
	select {
	case <-o.resumeCh:
		o.setState(StateScanning, "resumed")
	case <-o.stopCh:
	case <-time.After(200 * time.Millisecond):
	}
}

// sleep is the cooperative, cancellable suspension point spec §5
// requires: it wakes early on Stop or Pause and reports whether the
// caller should keep ticking.
func (o *Orchestrator) sleep(d time.Duration) bool {
	select {
	case <-o.stopCh:
		return false
	case <-o.pauseCh:
		o.setState(StatePaused, "")
		o.waitResume()
		return false
	case <-time.After(d):
		return true
	}
}

func (o *Orchestrator) teardownSession() {
	o.mu.Lock()
	sess := o.session
	o.session = nil
	o.mu.Unlock()
	if sess != nil {
		sess.Stop()
	}
}
