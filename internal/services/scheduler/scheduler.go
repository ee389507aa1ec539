package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/castkeep/castkeep-api/internal/models"
	"github.com/castkeep/castkeep-api/internal/services/subscriptions"
	apperrors "github.com/castkeep/castkeep-api/pkg/errors"
)

// Downloader is the slice of the sync service the scheduler drives
type Downloader interface {
	DownloadLatest(ctx context.Context, rss string, count int) (*models.WorkSummary, error)
}

// Scheduler runs the periodic auto-sync pass: every interval, each
// subscription with auto-download enabled gets its newest episodes
// fetched.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	registry   *subscriptions.Registry
	downloader Downloader
	interval   time.Duration
	count      int
	timeout    time.Duration
}

// New creates a scheduler. count caps the downloads per subscription
// per pass; interval is how often the pass runs.
func New(registry *subscriptions.Registry, downloader Downloader, interval time.Duration, count int) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		registry:   registry,
		downloader: downloader,
		interval:   interval,
		count:      count,
		timeout:    30 * time.Minute,
	}
}

// Start schedules the auto-sync job and starts the scheduler in the
// background
func (s *Scheduler) Start() error {
	// SingletonMode: a slow pass must never overlap the next tick
	run := func() {
		if err := s.RunOnce(); err != nil {
			log.Printf("[WARN] %v", err)
		}
	}
	if _, err := s.scheduler.Every(s.interval).SingletonMode().Do(run); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	log.Printf("[INFO] Auto-sync scheduled every %s", s.interval)
	return nil
}

// Stop halts the scheduler and waits for a running pass to finish
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// RunOnce executes a single auto-sync pass over all subscriptions. A
// feed failure never stops the pass; when some feeds failed the pass
// returns a partial-batch error summarizing the damage.
func (s *Scheduler) RunOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	subs, err := s.registry.List()
	if err != nil {
		log.Printf("[ERROR] Auto-sync could not list subscriptions: %v", err)
		return err
	}

	attempted, failed := 0, 0
	for _, sub := range subs {
		if !sub.AutoDownload {
			continue
		}
		attempted++
		summary, err := s.downloader.DownloadLatest(ctx, sub.URL, s.count)
		if err != nil {
			log.Printf("[ERROR] Auto-sync failed for %s: %v", sub.URL, err)
			failed++
			continue
		}
		if summary.Downloaded > 0 || summary.Failed > 0 {
			log.Printf("[INFO] Auto-sync %s: %d downloaded, %d skipped, %d failed",
				sub.Folder, summary.Downloaded, summary.Skipped, summary.Failed)
		}
	}

	if failed > 0 {
		return apperrors.PartialBatchError("auto-sync pass", failed, attempted)
	}
	return nil
}
