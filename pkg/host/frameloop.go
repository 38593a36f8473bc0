package host

import (
	"context"
	"time"
)

// FrameLoop ticks a console on a fixed interval, standing in for a game's
// update loop when no renderer drives it.
type FrameLoop struct {
	host     *Host
	interval time.Duration
	onFrame  func()
}

// NewFrameLoop creates a frame loop for the given host.
func NewFrameLoop(h *Host, interval time.Duration) *FrameLoop {
	return &FrameLoop{host: h, interval: interval}
}

// OnFrame sets a callback run after each console tick.
func (fl *FrameLoop) OnFrame(fn func()) { fl.onFrame = fn }

// Run ticks until ctx is cancelled.
func (fl *FrameLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(fl.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fl.tick()
		}
	}
}

func (fl *FrameLoop) tick() {
	fl.host.Console.Tick()
	if fl.onFrame != nil {
		fl.onFrame()
	}
}
