package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Async runs dispatches in the background. Each one gets its own timeout and
// failures are only logged.
type Async struct {
	notifier Notifier
	timeout  time.Duration
	log      *zap.Logger
	wg       sync.WaitGroup
}

func NewAsync(notifier Notifier, timeout time.Duration, log *zap.Logger) *Async {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Async{notifier: notifier, timeout: timeout, log: log}
}

func (a *Async) Go(intent Intent, msg Message) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		defer cancel()

		if _, err := a.notifier.Dispatch(ctx, intent, msg); err != nil {
			a.log.Warn("Background mail dispatch failed",
				zap.Error(err),
				zap.String("intent", string(intent)),
				zap.String("account_id", msg.AccountID),
			)
		}
	}()
}

// Wait blocks until every dispatch started with Go has returned.
func (a *Async) Wait() {
	a.wg.Wait()
}
