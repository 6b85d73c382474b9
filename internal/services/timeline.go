package services

import (
	"log/slog"
	"sync"
	"time"
)

const windowDateFormat = "2006-01-02"

// AnimationState tracks the timeline's play state.
type AnimationState string

const (
	AnimationStopped AnimationState = "stopped"
	AnimationPlaying AnimationState = "playing"
	AnimationPaused  AnimationState = "paused"
)

// Granularity is the animation step size.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}

// Scheduler is a cancellable repeating task. The abstraction exists so tests
// can step ticks deterministically instead of waiting on wall-clock timers.
type Scheduler interface {
	Start(delay time.Duration, tick func())
	Stop()
}

// tickerScheduler runs ticks on a time.Ticker goroutine. Stop is idempotent
// and guarantees no tick fires after it returns a new Start; a stale goroutine
// from a previous cycle can never deliver a tick because the cancel channel it
// selects on is already closed.
type tickerScheduler struct {
	mu     sync.Mutex
	cancel chan struct{}
}

func NewTickerScheduler() Scheduler {
	return &tickerScheduler{}
}

func (s *tickerScheduler) Start(delay time.Duration, tick func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	cancel := make(chan struct{})
	s.cancel = cancel

	go func() {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		for {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				select {
				case <-cancel:
					return
				default:
				}
				tick()
			}
		}
	}()
}

func (s *tickerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *tickerScheduler) stopLocked() {
	if s.cancel != nil {
		close(s.cancel)
		s.cancel = nil
	}
}

// Timeline owns the animated date window. On each tick it advances both
// endpoints by one unit of the active granularity and publishes the new window
// as YYYY-MM-DD strings. The publish callback runs synchronously on the tick,
// so dependents never observe a half-updated window.
type Timeline struct {
	mu     sync.Mutex
	logger *slog.Logger
	sched  Scheduler

	state       AnimationState
	granularity Granularity
	delay       time.Duration

	// dataset bounds, used as fallbacks for unparseable window input
	dataStart time.Time
	dataEnd   time.Time

	// captured once per controller: the latest known data date
	stopBoundary time.Time

	// pre-animation window bookkeeping; cleared by Pause and Stop
	origStart string
	origEnd   string

	rawStart string
	rawEnd   string
	curStart time.Time
	curEnd   time.Time

	// generation invalidates ticks armed by a previous play cycle
	generation uint64

	publish func(start, end string)
}

// NewTimeline builds a stopped controller. publish receives every window
// change, including the clear on Stop.
func NewTimeline(sched Scheduler, dataStart, dataEnd time.Time, logger *slog.Logger, publish func(start, end string)) *Timeline {
	return &Timeline{
		logger:      logger,
		sched:       sched,
		state:       AnimationStopped,
		granularity: GranularityWeek,
		delay:       100 * time.Millisecond,
		dataStart:   dataStart,
		dataEnd:     dataEnd,
		publish:     publish,
	}
}

// Start transitions to playing and arms the repeating timer. A missing or
// malformed raw window degrades to the dataset bounds rather than erroring.
func (t *Timeline) Start() {
	t.mu.Lock()

	if t.state == AnimationPlaying {
		t.mu.Unlock()
		return
	}

	if t.stopBoundary.IsZero() {
		t.stopBoundary = t.dataEnd
	}
	if t.origStart == "" {
		t.origStart = t.rawStart
	}
	if t.origEnd == "" {
		t.origEnd = t.rawEnd
	}

	start, err := time.Parse(windowDateFormat, t.rawStart)
	if err != nil {
		start = t.dataStart
	}
	end, err := time.Parse(windowDateFormat, t.rawEnd)
	if err != nil {
		end = t.dataEnd
	}

	switch t.granularity {
	case GranularityDay:
		end = start.AddDate(0, 0, 1)
	case GranularityWeek:
		end = start.AddDate(0, 0, 7)
	case GranularityMonth:
		// the end keeps its own year and day; only the month is rewritten,
		// wrapping within the year
		end = setMonth(end, nextWrappedMonth(start.Month()))
	}

	t.curStart = start
	t.curEnd = end
	t.state = AnimationPlaying
	t.generation++
	gen := t.generation
	delay := t.delay

	t.logger.Debug("timeline started",
		"granularity", t.granularity,
		"delay", delay,
		"start", start.Format(windowDateFormat),
	)
	t.mu.Unlock()

	t.sched.Start(delay, func() { t.tick(gen) })
}

func (t *Timeline) tick(gen uint64) {
	t.mu.Lock()

	if gen != t.generation || t.state != AnimationPlaying {
		t.mu.Unlock()
		return
	}

	if t.curStart.After(t.stopBoundary) {
		t.state = AnimationStopped
		t.mu.Unlock()
		t.sched.Stop()
		t.logger.Debug("timeline reached end of data")
		return
	}

	switch t.granularity {
	case GranularityDay:
		t.curStart = t.curStart.AddDate(0, 0, 1)
		t.curEnd = t.curEnd.AddDate(0, 0, 1)
	case GranularityWeek:
		t.curStart = t.curStart.AddDate(0, 0, 7)
		t.curEnd = t.curEnd.AddDate(0, 0, 7)
	case GranularityMonth:
		t.curStart = setMonth(t.curStart, nextWrappedMonth(t.curStart.Month()))
		t.curEnd = setMonth(t.curEnd, nextWrappedMonth(t.curEnd.Month()))
	}

	t.rawStart = t.curStart.Format(windowDateFormat)
	t.rawEnd = t.curEnd.Format(windowDateFormat)
	start, end := t.rawStart, t.rawEnd
	publish := t.publish
	t.mu.Unlock()

	if publish != nil {
		publish(start, end)
	}
}

// Pause stops the timer but keeps the current window, so a subsequent Start
// resumes from the paused position instead of rewinding.
func (t *Timeline) Pause() {
	t.mu.Lock()
	t.state = AnimationPaused
	t.generation++
	t.origStart = ""
	t.origEnd = ""
	t.mu.Unlock()

	t.sched.Stop()
}

// Stop stops the timer and clears the published window entirely, fully
// resetting for the next Start. Calling Stop twice is a no-op the second time.
func (t *Timeline) Stop() {
	t.mu.Lock()
	alreadyStopped := t.state == AnimationStopped && t.rawStart == "" && t.rawEnd == ""
	t.state = AnimationStopped
	t.generation++
	t.rawStart = ""
	t.rawEnd = ""
	t.origStart = ""
	t.origEnd = ""
	publish := t.publish
	t.mu.Unlock()

	t.sched.Stop()
	if !alreadyStopped && publish != nil {
		publish("", "")
	}
}

// SetDelay changes the tick cadence. While playing, the timer is re-armed
// atomically so the new delay takes effect without skipping a frame.
func (t *Timeline) SetDelay(delay time.Duration) {
	t.mu.Lock()
	t.delay = delay
	playing := t.state == AnimationPlaying
	var gen uint64
	if playing {
		t.generation++
		gen = t.generation
	}
	t.mu.Unlock()

	if playing {
		t.sched.Start(delay, func() { t.tick(gen) })
	}
}

// SetGranularity takes effect on the next Start.
func (t *Timeline) SetGranularity(g Granularity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.granularity = g
}

// SetWindow applies a manual window edit. Editing while playing is an
// implicit pause boundary: the run stops so the animation cannot silently
// overwrite the user's edit on the next tick.
func (t *Timeline) SetWindow(start, end string) {
	t.mu.Lock()
	wasPlaying := t.state == AnimationPlaying
	if wasPlaying {
		t.state = AnimationPaused
		t.generation++
	}
	t.origStart = ""
	t.origEnd = ""
	t.rawStart = start
	t.rawEnd = end
	publish := t.publish
	t.mu.Unlock()

	if wasPlaying {
		t.sched.Stop()
	}
	if publish != nil {
		publish(start, end)
	}
}

// Window returns the current raw window strings.
func (t *Timeline) Window() (string, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rawStart, t.rawEnd
}

func (t *Timeline) State() AnimationState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timeline) Granularity() Granularity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.granularity
}

// nextWrappedMonth advances a month index modulo 12: December wraps to
// January without incrementing the year. A one-year window therefore repeats
// the same months; preserved deliberately.
func nextWrappedMonth(m time.Month) time.Month {
	return time.Month(int(m)%12 + 1)
}

// setMonth rewrites the month, letting day-of-month overflow normalize
// forward (Jan 31 → Feb 31 → Mar 3).
func setMonth(t time.Time, m time.Month) time.Time {
	return time.Date(t.Year(), m, t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
