// Package schedule runs the recurring routines: the spoken morning
// briefing, the spoken evening reflection, and a periodic source health
// check.
package schedule

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"jarvis/internal/config"
	"jarvis/internal/daily"
	appLog "jarvis/internal/log"
	"jarvis/internal/source"
)

// jobTimeout bounds one scheduled run; a hung upstream API must not
// block the next run.
const jobTimeout = 2 * time.Minute

// DocumentBuilder builds the daily documents.
type DocumentBuilder interface {
	MorningBriefing(ctx context.Context, day time.Time) daily.Document
	EveningReflection(ctx context.Context, day time.Time) daily.Document
}

// Speaker delivers the documents' summaries out loud.
type Speaker interface {
	Connected() bool
	Speak(ctx context.Context, message, mediaPlayer string) error
}

// Scheduler owns the cron instance. Job failures are logged; the
// scheduler itself never stops on them.
type Scheduler struct {
	cron        *cron.Cron
	docs        DocumentBuilder
	speaker     Speaker
	mediaPlayer string
	sources     []source.Adapter
	loc         *time.Location
	cfg         config.ScheduleConfig
}

// New builds the scheduler. speaker may be nil; documents are then only
// built and logged. sources are the adapters the health check probes.
func New(docs DocumentBuilder, speaker Speaker, mediaPlayer string, sources []source.Adapter, loc *time.Location, cfg config.ScheduleConfig) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:        cron.New(cron.WithLocation(loc)),
		docs:        docs,
		speaker:     speaker,
		mediaPlayer: mediaPlayer,
		sources:     sources,
		loc:         loc,
		cfg:         cfg,
	}
}

// Start registers the cron entries and starts the scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Morning, s.runMorning); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.Evening, s.runEvening); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(s.cfg.HealthCheck, s.runHealthCheck); err != nil {
		return err
	}

	s.cron.Start()
	appLog.Info("scheduler started",
		"morning", s.cfg.Morning,
		"evening", s.cfg.Evening,
		"health_check", s.cfg.HealthCheck,
		"timezone", s.loc.String(),
	)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	appLog.Info("scheduler stopped")
}

func (s *Scheduler) runMorning() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	doc := s.docs.MorningBriefing(ctx, time.Now().In(s.loc))
	appLog.Info("morning briefing built", "date", doc.Date, "summary", doc.Summary)
	s.speak(ctx, doc.Summary)
}

func (s *Scheduler) runEvening() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	doc := s.docs.EveningReflection(ctx, time.Now().In(s.loc))
	appLog.Info("evening reflection built", "date", doc.Date, "summary", doc.Summary)
	s.speak(ctx, doc.Summary)
}

func (s *Scheduler) speak(ctx context.Context, message string) {
	if s.speaker == nil || !s.speaker.Connected() || message == "" {
		return
	}
	if err := s.speaker.Speak(ctx, message, s.mediaPlayer); err != nil {
		appLog.Warn("spoken delivery failed", err)
	}
}

// runHealthCheck probes every adapter and logs per-source status.
func (s *Scheduler) runHealthCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	for _, src := range s.sources {
		if src == nil {
			continue
		}
		healthy := src.HealthCheck(ctx)
		if healthy {
			appLog.Debug("source healthy", "source", src.Name())
			continue
		}
		appLog.Warn("source unhealthy", nil, "source", src.Name(), "connected", src.Connected())
	}
}
