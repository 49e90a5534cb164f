package core

import (
	"context"
	"testing"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/browser"
	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPicker_Pick(t *testing.T) {
	p := NewPicker()

	assert.Equal(t, 0, p.Pick(0, -1))
	assert.Equal(t, 0, p.Pick(1, 0))
	assert.Equal(t, 0, p.Pick(1, -1))

	for size := 2; size <= 10; size++ {
		for avoid := 0; avoid < size; avoid++ {
			for i := 0; i < 200; i++ {
				idx := p.Pick(size, avoid)
				require.NotEqual(t, avoid, idx)
				require.True(t, idx >= 0 && idx < size)
			}
		}
	}
}

func TestPicker_Redraws(t *testing.T) {
	draws := []int{2, 2, 2, 1}
	calls := 0
	p := &Picker{intn: func(n int) int {
		v := draws[calls]
		calls++
		return v
	}}

	assert.Equal(t, 1, p.Pick(3, 2))
	assert.Equal(t, 4, calls, "抽到要避开的索引时应重抽而不是调整")
}

func newTestSession(opener browser.Opener, pair models.LinkPair, sleep func(context.Context, time.Duration) error) *TabSession {
	return &TabSession{
		workerID:    1,
		pair:        pair,
		destination: pair.DestinationOr("https://fallback.example"),
		spec:        browser.WindowSpec{Width: 375, Height: 812, Left: 100, Top: 100},
		opener:      opener,
		timing: sessionTiming{
			sourceWait:      models.Range{Min: time.Second, Max: 2 * time.Second},
			destinationWait: models.Range{Min: 3 * time.Second, Max: 4 * time.Second},
			settleDelay:     600 * time.Millisecond,
			sleep:           sleep,
			random:          func(r models.Range) time.Duration { return r.Min },
		},
		logger: zerolog.Nop(),
	}
}

func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestTabSession_FullCycle(t *testing.T) {
	opener := &fakeOpener{}
	var waits []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}

	s := newTestSession(opener, models.LinkPair{Source: "https://a.example/?q=<x>"}, sleep)
	result := s.Run(context.Background())

	require.True(t, result.Completed())
	assert.Equal(t, models.SessionClosed, result.State)
	assert.True(t, result.ClosedCleanly)
	assert.Empty(t, result.StepErrors)
	assert.Equal(t, 1, result.WindowID)
	assert.Equal(t, "https://fallback.example", result.Destination)

	w := opener.Window(0)
	assert.Equal(t, []string{"https://a.example/?q=<x>", "https://fallback.example", "about:blank"}, w.Navigations())
	require.Len(t, w.documents, 1)
	assert.Contains(t, w.documents[0], "https://a.example/?q=&lt;x&gt;")
	assert.Contains(t, w.documents[0], "#1")
	assert.True(t, w.Closed())

	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second, 600 * time.Millisecond}, waits)
	assert.Equal(t, []browser.WindowSpec{{Width: 375, Height: 812, Left: 100, Top: 100}}, opener.specs)
}

func TestTabSession_UsesPairDestination(t *testing.T) {
	opener := &fakeOpener{}
	s := newTestSession(opener, models.LinkPair{Source: "https://a.example", Destination: "https://b.example"}, noSleep)
	s.Run(context.Background())

	assert.Equal(t, []string{"https://a.example", "https://b.example", "about:blank"}, opener.Window(0).Navigations())
}

func TestTabSession_OpenFailure(t *testing.T) {
	opener := &fakeOpener{err: errBoom}
	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, noSleep)
	result := s.Run(context.Background())

	assert.True(t, result.Aborted())
	assert.Equal(t, AbortOpenFailed, result.AbortReason)
	assert.Zero(t, opener.Opened(), "开启失败时不应有任何导航")
}

func TestTabSession_WindowClosedByUser(t *testing.T) {
	opener := &fakeOpener{}
	sleep := func(ctx context.Context, d time.Duration) error {
		opener.Window(0).closeByUser()
		return nil
	}

	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, sleep)
	result := s.Run(context.Background())

	assert.True(t, result.Aborted())
	assert.Equal(t, AbortWindowClosed, result.AbortReason)
	assert.Equal(t, []string{"https://a.example"}, opener.Window(0).Navigations())
}

func TestTabSession_StoppedWhileWaiting(t *testing.T) {
	opener := &fakeOpener{}
	ctx, cancel := context.WithCancel(context.Background())
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, sleep)
	result := s.Run(ctx)

	assert.True(t, result.Aborted())
	assert.Equal(t, AbortStopped, result.AbortReason)
	assert.Equal(t, models.SessionAborted, result.State)

	w := opener.Window(0)
	assert.Equal(t, []string{"https://a.example"}, w.Navigations())
	assert.True(t, w.Closed(), "停止时应尽力关闭视窗")
	assert.True(t, result.ClosedCleanly)
}

func TestTabSession_StepErrorsDoNotAbort(t *testing.T) {
	opener := &fakeOpener{navErr: errBoom}
	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, noSleep)
	result := s.Run(context.Background())

	assert.True(t, result.Completed())
	require.Len(t, result.StepErrors, 3)
	assert.Equal(t, stepNavigateSource, result.StepErrors[0].Step)
	assert.Equal(t, stepNavigateDest, result.StepErrors[1].Step)
	assert.Equal(t, stepBlank, result.StepErrors[2].Step)
	assert.ErrorIs(t, result.StepErrors[0].Err, errBoom)
}

func TestTabSession_CloseLeavesWindowOpen(t *testing.T) {
	opener := &fakeOpener{}
	sleep := func(ctx context.Context, d time.Duration) error {
		w := opener.Window(0)
		w.mu.Lock()
		w.stuckOpen = true
		w.mu.Unlock()
		return nil
	}

	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, sleep)
	result := s.Run(context.Background())

	assert.True(t, result.Completed(), "关闭失败只是警告,仍算完成")
	assert.False(t, result.ClosedCleanly)
}

func TestTabSession_RecoversPanic(t *testing.T) {
	opener := &fakeOpener{panics: true}
	s := newTestSession(opener, models.LinkPair{Source: "https://a.example"}, noSleep)

	var result models.SessionResult
	require.NotPanics(t, func() {
		result = s.Run(context.Background())
	})
	assert.True(t, result.Aborted())
	assert.Equal(t, AbortPanic, result.AbortReason)
}

func TestPlaceholderHTML(t *testing.T) {
	got := placeholderHTML(3, `https://a.example/"><script>`)
	assert.Contains(t, got, "#3")
	assert.Contains(t, got, "&#34;&gt;&lt;script&gt;")
	assert.NotContains(t, got, "<script>")
}
