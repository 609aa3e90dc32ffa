package cmd

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"

	"github.com/warpdl/ambiance/cmd/common"
	"github.com/warpdl/ambiance/pkg/ambiance"
)

// layerBars renders one progress bar per layer from the host status.
type layerBars struct {
	host   *ambiance.Host
	p      *mpb.Progress
	bars   []*mpb.Bar
	status atomic.Pointer[[]ambiance.LayerStatus]
}

func newLayerBars(w io.Writer, h *ambiance.Host) *layerBars {
	lb := &layerBars{
		host: h,
		p: mpb.New(
			mpb.WithOutput(w),
			mpb.WithRefreshRate(DEF_BAR_REFRESH),
			mpb.WithWidth(48),
		),
	}
	st := h.Status()
	lb.status.Store(&st)
	width := 0
	for _, s := range st {
		width = max(width, len(s.Name))
	}
	for i, s := range st {
		lb.bars = append(lb.bars, common.InitLayerBar(lb.p, s.Name, width, func() string {
			return lb.describe(i)
		}))
	}
	lb.refresh()
	return lb
}

func (lb *layerBars) describe(i int) string {
	st := *lb.status.Load()
	if i >= len(st) {
		return ""
	}
	s := st[i]
	state := s.State
	if s.Muted {
		state = "muted"
	}
	if s.Mode == ambiance.ModeLoop {
		return state + " loop"
	}
	return fmt.Sprintf("%s fired %d", state, s.Fired)
}

func (lb *layerBars) refresh() {
	st := lb.host.Status()
	lb.status.Store(&st)
	for i, bar := range lb.bars {
		if i >= len(st) {
			break
		}
		s := st[i]
		total, cur := int64(s.Period*1000), int64(s.Elapsed*1000)
		if s.Mode == ambiance.ModeLoop {
			total, cur = 2, 0
			if s.State == ambiance.StatePlaying.String() {
				cur = 1
			}
		}
		bar.SetTotal(total, false)
		bar.SetCurrent(cur)
	}
}

// run polls the host until ctx is done.
func (lb *layerBars) run(ctx context.Context) {
	ticker := time.NewTicker(DEF_BAR_REFRESH)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			lb.refresh()
		}
	}
}

// Close removes the bars and waits for the last render.
func (lb *layerBars) Close() {
	for _, bar := range lb.bars {
		bar.Abort(false)
	}
	lb.p.Wait()
}
