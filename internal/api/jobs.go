package api

import (
	"context"
	"time"

	"github.com/afrelay/afrelay/internal/scheduler"
	"github.com/afrelay/afrelay/internal/soap"
)

// outboxPassLimit bounds one scheduled worker pass. Manual retries through
// the HTTP surface can go higher.
const outboxPassLimit = 30

const bootstrapInterval = 6 * time.Hour

// RegisterJobs wires the background passes: one ticket watchdog per service,
// the outbox worker and the calendar bootstrap. Watchdogs and bootstrap also
// run at startup so a fresh process converges without waiting a full period.
func RegisterJobs(sched *scheduler.Scheduler, deps Deps) {
	watchdogEvery := time.Duration(deps.Config.Scheduler.TokenWatchdogMinutes) * time.Minute

	sched.Add(scheduler.Job{
		Name:       "wsfe-token-watchdog",
		Interval:   watchdogEvery,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			return deps.Tickets.WatchdogPass(ctx, soap.ServiceWSFE)
		},
	})
	sched.Add(scheduler.Job{
		Name:       "wspci-token-watchdog",
		Interval:   watchdogEvery,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			return deps.Tickets.WatchdogPass(ctx, soap.ServiceWSPCI)
		},
	})
	sched.Add(scheduler.Job{
		Name:     "caea-outbox-worker",
		Interval: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := deps.Worker.ProcessPendingOutboxJobs(ctx, outboxPassLimit)
			return err
		},
	})
	sched.Add(scheduler.Job{
		Name:       "caea-bootstrap",
		Interval:   bootstrapInterval,
		RunAtStart: true,
		Run: func(ctx context.Context) error {
			_, err := deps.Engine.BootstrapOnce(ctx)
			return err
		},
	})
}
