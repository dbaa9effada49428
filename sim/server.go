package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"
)

// Server is one barber. Its Run loop lives for the whole run and only returns
// once the run context is cancelled.
type Server struct {
	ID          int
	ServiceTime time.Duration
	clk         clock.Clock
}

// NewServer creates a server that spends serviceTime on every client.
func NewServer(id int, serviceTime time.Duration, clk clock.Clock) *Server {
	return &Server{ID: id, ServiceTime: serviceTime, clk: clk}
}

// Run loops idle → serving → idle: wait for a ready client, claim it, serve
// it for ServiceTime, then release its seat. Returns when ctx is done; a
// service interrupted by cancellation is not finished.
func (srv *Server) Run(ctx context.Context, shop *Shop) {
	for {
		c, err := shop.Claim(ctx, srv.ID)
		if err != nil {
			logrus.Debugf("server %d stopping: %v", srv.ID, err)
			return
		}
		if err := sleep(ctx, srv.clk, srv.ServiceTime); err != nil {
			logrus.Debugf("server %d interrupted while serving client %d", srv.ID, c.ID)
			return
		}
		shop.Finish(srv.ID, c)
	}
}

// sleep blocks for d on clk, or until ctx is done.
func sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := clk.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
