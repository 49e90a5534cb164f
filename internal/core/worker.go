package core

import (
	"context"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/models"
	"github.com/RecoveryAshes/linkrelay/internal/utils"
	"github.com/rs/zerolog"
)

// runWorker worker循环: 挑选 → 会话 → 冷却,直到停止
func (c *Controller) runWorker(ctx context.Context, id int) {
	defer c.wg.Done()

	logger := utils.Worker(id)
	state := models.NewWorkerState(id)

	for ctx.Err() == nil {
		pool := c.pool.Load()
		if pool.Len() == 0 {
			logger.Warn().Msg("⚠️ 无资料可用,停止该 worker")
			return
		}

		state.Observe(pool.Generation)
		idx := c.picker.Pick(pool.Len(), state.LastPickedIndex)
		state.LastPickedIndex = idx

		session := c.newSession(id, pool.At(idx), logger)
		result := session.Run(ctx)
		c.record(ctx, &result, logger)

		if ctx.Err() != nil {
			break
		}

		cooldown := c.random(c.config.Run.Cooldown)
		logger.Info().Msgf("😴 冷却 %s 后挑下一列", cooldown.Round(time.Second))
		if err := c.sleep(ctx, cooldown); err != nil {
			break
		}
	}

	logger.Debug().Msg("worker 已结束")
}

func (c *Controller) newSession(workerID int, pair models.LinkPair, logger zerolog.Logger) *TabSession {
	return &TabSession{
		workerID:    workerID,
		pair:        pair,
		destination: pair.DestinationOr(c.config.DefaultDestination),
		spec:        c.config.Window,
		opener:      c.opener,
		timing: sessionTiming{
			sourceWait:      c.config.Run.SourceWait,
			destinationWait: c.config.Run.DestinationWait,
			settleDelay:     c.config.Run.SettleDelay,
			sleep:           c.sleep,
			random:          c.random,
		},
		logger: logger,
	}
}

// record 统计会话结果,完整流程才计数并检查是否需要重新载入
func (c *Controller) record(ctx context.Context, result *models.SessionResult, logger zerolog.Logger) {
	if !result.State.Terminal() {
		logger.Error().Str("state", string(result.State)).Msg("❌ 会话结束时状态异常")
	}
	for _, stepErr := range result.StepErrors {
		c.stepFailures.Add(1)
		logger.Warn().Str("step", stepErr.Step).Err(stepErr.Err).Msg("⚠️ 步骤失败")
	}

	if result.Aborted() {
		c.aborted.Add(1)
		if result.AbortReason == AbortOpenFailed {
			c.openFailures.Add(1)
		}
		logger.Debug().Str("reason", result.AbortReason).Msg("本次流程中止")
		return
	}

	completed := c.completed.Add(1)
	if c.progress != nil {
		_ = c.progress.Add(1)
	}
	logger.Debug().Int64("completed", completed).Dur("duration", result.Duration).Msg("本次流程完成")

	c.maybeReload(ctx, completed)
}
