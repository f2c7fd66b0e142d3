// Package job runs the background work that keeps tracked AA data sessions
// moving: sessions are created synchronously but their payloads arrive
// whenever the FIP finishes assembling them.
package job

import (
	"context"
	"time"

	"github.com/ArchanSureja/QuickCredit/internal/service"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// pollTimeout bounds one full pass over the pending sessions.
const pollTimeout = 2 * time.Minute

// SessionPoller periodically retries ingestion of pending data sessions.
type SessionPoller struct {
	svc  *service.Service
	log  *logrus.Logger
	spec string
	cron *cron.Cron
}

// NewSessionPoller creates a poller with a cron schedule spec.
func NewSessionPoller(svc *service.Service, spec string, log *logrus.Logger) *SessionPoller {
	return &SessionPoller{
		svc:  svc,
		log:  log,
		spec: spec,
	}
}

// Start schedules the poller. The first run happens at the first cron tick,
// not immediately.
func (p *SessionPoller) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(p.spec, p.run); err != nil {
		return err
	}
	c.Start()
	p.cron = c
	p.log.Infof("Session poller scheduled: %s", p.spec)
	return nil
}

// Stop halts the schedule and waits for a running poll to finish.
func (p *SessionPoller) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}

func (p *SessionPoller) run() {
	ctx, cancel := context.WithTimeout(context.Background(), pollTimeout)
	defer cancel()

	if err := p.svc.PollPendingSessions(ctx); err != nil {
		p.log.Errorf("Session poll failed: %v", err)
	}
}
