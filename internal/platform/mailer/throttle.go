package mailer

import (
	"sync"
	"time"
)

const (
	// defaultSendLimit は1インターバルあたりの送信上限です。
	defaultSendLimit = 60
	// defaultSendInterval はカウントをリセットする単位時間です。
	defaultSendInterval = time.Minute
)

// throttleは、メール送信などの操作の頻度を制限します。
type throttle struct {
	mu        sync.Mutex
	limit     int           // 1インターバルあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
}

// newThrottleは新しいthrottleのインスタンスを生成します。
func newThrottle(limit int, interval time.Duration) *throttle {
	return &throttle{
		limit:     limit,
		interval:  interval,
		lastReset: time.Now(),
	}
}

// waitIfNeededは送信上限に達しているかを確認し、必要であれば待機します。
func (t *throttle) waitIfNeeded() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	// interval を過ぎたらカウントリセット
	if now.Sub(t.lastReset) >= t.interval {
		t.count = 0
		t.lastReset = now
	}

	t.count++
	if t.count > t.limit {
		sleep := t.interval - now.Sub(t.lastReset)
		if sleep > 0 {
			time.Sleep(sleep)
		}
		// リセット
		t.count = 1
		t.lastReset = time.Now()
	}
}
