package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-insight/internal/analysis"
	"github.com/i474232898/weather-insight/internal/weather"
)

// Scheduler runs the periodic housekeeping jobs: reloading the weather log and
// expiring idle analysis sessions.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	sessions  *analysis.Registry

	refreshInterval time.Duration
	sweepInterval   time.Duration
}

// New creates a new Scheduler. A zero interval disables the matching job.
func New(service *weather.Service, sessions *analysis.Registry, refreshInterval, sweepInterval time.Duration) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:       s,
		service:         service,
		sessions:        sessions,
		refreshInterval: refreshInterval,
		sweepInterval:   sweepInterval,
	}
}

// Start schedules the enabled jobs and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	scheduled := 0

	if s.service != nil && s.refreshInterval > 0 {
		_, err := s.scheduler.Every(s.refreshInterval).WaitForSchedule().Do(s.refresh)
		if err != nil {
			return err
		}
		scheduled++
	}

	if s.sessions != nil && s.sweepInterval > 0 {
		_, err := s.scheduler.Every(s.sweepInterval).WaitForSchedule().Do(s.sweep)
		if err != nil {
			return err
		}
		scheduled++
	}

	if scheduled == 0 {
		log.Println("scheduler: no periodic jobs enabled; nothing to schedule")
		return nil
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) refresh() {
	log.Println("scheduler: running weather log refresh")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.service.Load(ctx); err != nil {
		log.Printf("ERROR: scheduler: weather log refresh failed, keeping previous copy: %v", err)
	}
}

func (s *Scheduler) sweep() {
	s.sessions.Sweep(time.Now())
}
