// cmd/paperflow/signals.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// rootContextWithSignals deriva un contexto que se cancela ante SIGINT/SIGTERM
// o al vencer timeout (0 = sin timeout). El cancel devuelto libera el handler
// de señales.
func rootContextWithSignals(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(parent)
	if timeout > 0 {
		var timeoutCancel context.CancelFunc
		base, timeoutCancel = context.WithTimeout(base, timeout)
		prev := baseCancel
		baseCancel = func() {
			timeoutCancel()
			prev()
		}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	return base, func() {
		signal.Stop(ch)
		baseCancel()
	}
}
