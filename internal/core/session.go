package core

import (
	"context"
	"fmt"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/browser"
	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// 中止原因
const (
	AbortOpenFailed   = "open_failed"   // 视窗无法开启(可能被阻挡)
	AbortStopped      = "stopped"       // 收到停止指令
	AbortWindowClosed = "window_closed" // 视窗被手动关闭
	AbortPanic        = "panic"
)

// 会话步骤名称
const (
	stepWritePlaceholder = "write_placeholder"
	stepNavigateSource   = "navigate_source"
	stepNavigateDest     = "navigate_destination"
	stepBlank            = "navigate_blank"
	stepClose            = "close"
)

const placeholderTemplate = `<!doctype html><meta charset="utf-8">
<title>载入中…</title>
<style>body{font:14px/1.6 system-ui;margin:24px}</style>
<body>#%d 即将开启：<code>%s</code></body>`

// placeholderHTML 导航到来源前写入的过渡页
func placeholderHTML(workerID int, source string) string {
	return fmt.Sprintf(placeholderTemplate, workerID, html.EscapeString(source))
}

// sessionTiming 等待相关参数与函数
type sessionTiming struct {
	sourceWait      models.Range
	destinationWait models.Range
	settleDelay     time.Duration

	sleep  func(ctx context.Context, d time.Duration) error
	random func(r models.Range) time.Duration
}

// TabSession 一个弹出视窗的完整生命周期
// Opening → AtSource → AtDestination → Closing → Closed,等待点可转为 Aborted
type TabSession struct {
	workerID    int
	pair        models.LinkPair
	destination string
	spec        browser.WindowSpec

	opener browser.Opener
	timing sessionTiming
	logger zerolog.Logger

	window browser.Window
	result models.SessionResult
}

// Run 执行会话,返回结果;panic会被转为中止
func (s *TabSession) Run(ctx context.Context) (result models.SessionResult) {
	start := time.Now()
	s.result = models.SessionResult{
		WorkerID:    s.workerID,
		Pair:        s.pair,
		Destination: s.destination,
		State:       models.SessionOpening,
		StartedAt:   start,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Msgf("💥 会话发生panic: %v", r)
			s.abortAfterPanic()
		}
		s.result.Duration = time.Since(start)
		result = s.result
	}()

	if !s.open(ctx) {
		return
	}
	if !s.atSource(ctx) {
		return
	}
	if !s.atDestination(ctx) {
		return
	}
	s.close()
	return
}

func (s *TabSession) open(ctx context.Context) bool {
	s.logger.Info().Msgf("🪟 开启: %s", s.pair.Source)

	w, err := s.opener.Open(ctx, s.spec)
	if err != nil || w == nil || w.Closed() {
		ev := s.logger.Warn()
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("⚠️ 无法开启新视窗(可能被浏览器阻挡)")
		s.abort(AbortOpenFailed)
		return false
	}

	s.window = w
	s.result.WindowID = w.ID()
	s.logger = s.logger.With().Int("window", w.ID()).Logger()
	return true
}

func (s *TabSession) atSource(ctx context.Context) bool {
	s.result.State = models.SessionAtSource

	s.step(stepWritePlaceholder, s.window.WriteDocument(placeholderHTML(s.workerID, s.pair.Source)))
	s.step(stepNavigateSource, s.window.Navigate(s.pair.Source))

	wait := s.timing.random(s.timing.sourceWait)
	s.logger.Info().Msgf("⏳ 等待 %s 后跳转到目的地", wait.Round(time.Second))
	return s.pause(ctx, wait)
}

func (s *TabSession) atDestination(ctx context.Context) bool {
	s.result.State = models.SessionAtDestination

	s.step(stepNavigateDest, s.window.Navigate(s.destination))

	wait := s.timing.random(s.timing.destinationWait)
	s.logger.Info().Msgf("↪️ 已跳转 %s,等待 %s 后关闭", s.destination, wait.Round(time.Second))
	return s.pause(ctx, wait)
}

// close 关闭前的等待不受停止指令影响
func (s *TabSession) close() {
	s.result.State = models.SessionClosing

	s.step(stepBlank, s.window.Navigate("about:blank"))
	_ = s.timing.sleep(context.Background(), s.timing.settleDelay)
	s.step(stepClose, s.window.Close())

	if s.window.Closed() {
		s.result.ClosedCleanly = true
		s.logger.Info().Msg("✅ 已关闭视窗")
	} else {
		s.logger.Warn().Msg("⚠️ 关闭失败,可能要手动关闭")
	}
	s.result.State = models.SessionClosed
}

// pause 等待后检查运行状态与视窗是否还在
func (s *TabSession) pause(ctx context.Context, d time.Duration) bool {
	if err := s.timing.sleep(ctx, d); err != nil || ctx.Err() != nil {
		s.abort(AbortStopped)
		return false
	}
	if s.window.Closed() {
		s.logger.Warn().Msg("⚠️ 视窗已被关闭,中止本次流程")
		s.abort(AbortWindowClosed)
		return false
	}
	return true
}

// abort 转为中止;视窗还开着时尽力关闭
func (s *TabSession) abort(reason string) {
	s.result.State = models.SessionAborted
	s.result.AbortReason = reason

	if s.window == nil || reason == AbortWindowClosed {
		return
	}
	if s.window.Closed() {
		return
	}
	if err := s.window.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("中止时关闭视窗失败")
		return
	}
	s.result.ClosedCleanly = true
}

func (s *TabSession) abortAfterPanic() {
	defer func() {
		if r := recover(); r != nil {
			s.result.State = models.SessionAborted
			s.result.AbortReason = AbortPanic
		}
	}()
	s.abort(AbortPanic)
}

func (s *TabSession) step(name string, err error) {
	if err != nil {
		s.result.StepErrors = append(s.result.StepErrors, models.StepError{Step: name, Err: err})
	}
}
