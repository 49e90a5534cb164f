package utils

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/RecoveryAshes/linkrelay/internal/models"
)

// Sleep 等待d或ctx取消,取消时返回ctx.Err()
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RandomDuration 在[Min, Max]内均匀取一个时长
func RandomDuration(r models.Range) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rand.Int64N(int64(r.Max-r.Min)+1))
}
