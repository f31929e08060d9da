package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimemonitor/internal/backoff"
	"github.com/hamed0406/uptimemonitor/internal/domain"
	"github.com/hamed0406/uptimemonitor/internal/probe"
)

// --- fakes ---

type fakeResults struct {
	mu   sync.Mutex
	rows []domain.ProbeResult
	err  error
}

func (f *fakeResults) AppendResult(ctx context.Context, r *domain.ProbeResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeResults) forTarget(id domain.TargetID) []domain.ProbeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.ProbeResult
	for _, r := range f.rows {
		if r.TargetID == id {
			out = append(out, r)
		}
	}
	return out
}

// scripted returns outcomes in order, repeating the last one.
type scripted struct {
	mu    sync.Mutex
	outs  []probe.CheckResult
	calls int
}

func (s *scripted) Check(ctx context.Context, address string, timeout time.Duration) probe.CheckResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	if i >= len(s.outs) {
		i = len(s.outs) - 1
	}
	s.calls++
	return s.outs[i]
}

func (s *scripted) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type panicky struct {
	mu    sync.Mutex
	calls int
}

func (p *panicky) Check(ctx context.Context, address string, timeout time.Duration) probe.CheckResult {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	panic("executor bug")
}

func (p *panicky) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// waits records requested sleeps and only pauses briefly.
type waits struct {
	mu sync.Mutex
	d  []time.Duration
}

func (w *waits) wait(ctx context.Context, d time.Duration) bool {
	w.mu.Lock()
	w.d = append(w.d, d)
	w.mu.Unlock()
	select {
	case <-ctx.Done():
		return false
	case <-time.After(time.Millisecond):
		return true
	}
}

func (w *waits) seen() []time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]time.Duration(nil), w.d...)
}

func ok(status int) probe.CheckResult {
	lat := 5
	return probe.CheckResult{Success: true, LatencyMS: &lat, StatusCode: &status}
}

func fail(msg string) probe.CheckResult { return probe.CheckResult{Success: false, Message: msg} }

func noJitter() backoff.Policy {
	p := backoff.Default()
	p.Rand = func() float64 { return 0.5 }
	return p
}

func httpTarget(id string) domain.Target {
	return domain.Target{ID: domain.TargetID(id), Name: id, Kind: domain.KindHTTP, URL: "https://" + id, IntervalSeconds: 10, TimeoutMS: 1000, Enabled: true}
}

func icmpTarget(id string) domain.Target {
	return domain.Target{ID: domain.TargetID(id), Name: id, Kind: domain.KindICMP, Host: id, IntervalSeconds: 10, TimeoutMS: 1000, Enabled: true}
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func newPoller(results *fakeResults, w *waits, checkers map[domain.Kind]probe.Checker) *Poller {
	p := NewPoller(zap.NewNop(), results, checkers, noJitter())
	p.Wait = w.wait
	return p
}

// --- tests ---

func TestPoller_AppendsResult(t *testing.T) {
	res := &fakeResults{}
	w := &waits{}
	chk := &scripted{outs: []probe.CheckResult{ok(200)}}
	p := newPoller(res, w, map[domain.Kind]probe.Checker{domain.KindHTTP: chk})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{httpTarget("T1")})
	eventually(t, func() bool { return len(res.forTarget("T1")) >= 1 })
	cancel()
	<-done

	r := res.forTarget("T1")[0]
	if !r.Success || r.StatusCode == nil || *r.StatusCode != 200 || r.Error != nil {
		t.Fatalf("unexpected result: %+v", r)
	}
	if r.TS.IsZero() || r.TS.Location() != time.UTC {
		t.Fatalf("timestamp should be set in UTC, got %v", r.TS)
	}
}

func TestPoller_BackoffProgression(t *testing.T) {
	res := &fakeResults{}
	w := &waits{}
	chk := &scripted{outs: []probe.CheckResult{
		fail("timeout"), fail("timeout"), fail("timeout"), fail("timeout"), ok(200),
	}}
	p := newPoller(res, w, map[domain.Kind]probe.Checker{domain.KindHTTP: chk})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{httpTarget("T1")})
	eventually(t, func() bool { return len(w.seen()) >= 5 })
	cancel()
	<-done

	want := []time.Duration{20 * time.Second, 40 * time.Second, 80 * time.Second, 80 * time.Second, 10 * time.Second}
	got := w.seen()[:5]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v (all: %v)", i, got[i], want[i], got)
		}
	}
}

func TestPoller_PanickingTargetDoesNotAffectOthers(t *testing.T) {
	res := &fakeResults{}
	w := &waits{}
	bad := &panicky{}
	good := &scripted{outs: []probe.CheckResult{ok(204)}}
	p := newPoller(res, w, map[domain.Kind]probe.Checker{
		domain.KindICMP: bad,
		domain.KindHTTP: good,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{icmpTarget("broken"), httpTarget("fine")})
	eventually(t, func() bool { return len(res.forTarget("fine")) >= 3 && bad.count() >= 3 })
	cancel()
	<-done

	if n := len(res.forTarget("broken")); n != 0 {
		t.Fatalf("panicking attempts must not write results, got %d", n)
	}
	for _, r := range res.forTarget("fine") {
		if !r.Success {
			t.Fatalf("healthy target saw failure: %+v", r)
		}
	}
}

func TestPoller_AppendErrorDoesNotStopLoopOrBackoff(t *testing.T) {
	res := &fakeResults{err: errors.New("db unavailable")}
	w := &waits{}
	chk := &scripted{outs: []probe.CheckResult{ok(200)}}
	p := newPoller(res, w, map[domain.Kind]probe.Checker{domain.KindHTTP: chk})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{httpTarget("T1")})
	eventually(t, func() bool { return chk.count() >= 3 })
	cancel()
	<-done

	for _, d := range w.seen() {
		if d != 10*time.Second {
			t.Fatalf("persistence failure changed backoff: %v", w.seen())
		}
	}
}

func TestPoller_FailureIsNormalized(t *testing.T) {
	res := &fakeResults{}
	w := &waits{}
	lat := 99
	chk := &scripted{outs: []probe.CheckResult{{Success: false, LatencyMS: &lat}}}
	p := newPoller(res, w, map[domain.Kind]probe.Checker{domain.KindICMP: chk})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{icmpTarget("T1")})
	eventually(t, func() bool { return len(res.forTarget("T1")) >= 1 })
	cancel()
	<-done

	r := res.forTarget("T1")[0]
	if r.LatencyMS != nil || r.Error == nil || *r.Error == "" {
		t.Fatalf("failure row must have error and no latency: %+v", r)
	}
}

func TestPoller_EmptyTargetSetParks(t *testing.T) {
	p := newPoller(&fakeResults{}, &waits{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, nil)

	select {
	case <-done:
		t.Fatalf("poller exited with nothing to probe")
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("poller did not stop after cancel")
	}
}

type blocking struct{ started chan struct{} }

func (b *blocking) Check(ctx context.Context, address string, timeout time.Duration) probe.CheckResult {
	close(b.started)
	<-ctx.Done()
	return fail("canceled")
}

func TestPoller_ShutdownAbandonsInFlightProbe(t *testing.T) {
	res := &fakeResults{}
	chk := &blocking{started: make(chan struct{})}
	p := newPoller(res, &waits{}, map[domain.Kind]probe.Checker{domain.KindHTTP: chk})

	ctx, cancel := context.WithCancel(context.Background())
	done := p.Start(ctx, []domain.Target{httpTarget("T1")})
	<-chk.started
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("loop did not stop promptly")
	}
	if n := len(res.forTarget("T1")); n != 0 {
		t.Fatalf("abandoned probe must not be written, got %d rows", n)
	}
}

func TestPoller_UnknownKindIsSkipped(t *testing.T) {
	p := newPoller(&fakeResults{}, &waits{}, map[domain.Kind]probe.Checker{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	select {
	case <-p.Start(ctx, []domain.Target{httpTarget("T1")}):
	case <-time.After(time.Second):
		t.Fatalf("with no runnable loops the poller should finish immediately")
	}
}

func TestWaitTimer(t *testing.T) {
	if !waitTimer(context.Background(), time.Millisecond) {
		t.Fatalf("timer should fire")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if waitTimer(ctx, time.Hour) {
		t.Fatalf("cancelled context should end the wait")
	}
}
