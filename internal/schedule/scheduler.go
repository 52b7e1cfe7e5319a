package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
)

// Scheduler runs each registered provider on its own schedule. A tick that is
// still running when the next one is due is skipped, so a provider never
// ticks concurrently with itself. Ticks past their timeout have their
// context cancelled.
type Scheduler struct {
	cron   *cron.Cron
	logger ports.Logger
	now    func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

func New(logger ports.Logger) *Scheduler {
	cl := &cronLogger{logger: logger.WithFields(map[string]any{"component": "scheduler"})}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(
				cron.Recover(cl),
				cron.SkipIfStillRunning(cl),
			),
		),
		logger: cl.logger,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Scheduler) Register(p ports.EntityProvider, sch Schedule) error {
	sch = sch.WithDefaults()
	inner, err := ParseFrequency(sch.Frequency)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfigValidation, fmt.Sprintf("provider '%s' schedule", p.Name()))
	}
	delayed := &delayedSchedule{inner: inner, first: s.now().Add(sch.InitialDelay)}
	s.cron.Schedule(delayed, s.job(p, sch.Timeout))
	s.logger.Infof(s.ctx, "Scheduled provider %s: frequency %s, timeout %s, initial delay %s",
		p.Name(), sch.Frequency, sch.Timeout, sch.InitialDelay)
	return nil
}

func (s *Scheduler) job(p ports.EntityProvider, timeout time.Duration) cron.Job {
	return cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(s.ctx, timeout)
		defer cancel()
		res := p.Tick(ctx)
		if ctx.Err() == context.DeadlineExceeded {
			s.logger.Warnf(s.ctx, "Provider %s tick exceeded timeout %s; result discarded", p.Name(), timeout)
			return
		}
		s.logger.Debugf(s.ctx, "Provider %s tick finished with status %s in %s", p.Name(), res.Status, res.Duration)
	})
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop prevents new ticks, cancels running ones and waits up to grace for
// them to return.
func (s *Scheduler) Stop(grace time.Duration) {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
	case <-time.After(grace):
		s.logger.Warnf(context.Background(), "Scheduler stopped with ticks still running after %s", grace)
	}
}

// Run starts the scheduler and blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, grace time.Duration) {
	s.Start()
	<-ctx.Done()
	s.Stop(grace)
}

// cronLogger adapts ports.Logger to cron.Logger.
type cronLogger struct {
	logger ports.Logger
}

func (l *cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debugf(context.Background(), "cron: %s %v", msg, keysAndValues)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Errorf(context.Background(), err, "cron: %s %v", msg, keysAndValues)
}
