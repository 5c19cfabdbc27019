package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/comitanigiacomo/ascend-engine/internal/core/analytics"
	"github.com/comitanigiacomo/ascend-engine/internal/core/domain"
)

type SessionRepository interface {
	ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error)
}

type SnapshotJob struct {
	UserID string
}

// SnapshotWorker recomputes a user's analytics snapshot in the background
// after their sessions change, so the next read is a cache hit.
type SnapshotWorker struct {
	repo  SessionRepository
	store domain.SnapshotStore
	jobs  chan SnapshotJob
	now   func() time.Time
}

func NewSnapshotWorker(repo SessionRepository, store domain.SnapshotStore, queueSize int) *SnapshotWorker {
	if queueSize <= 0 {
		queueSize = 100
	}
	return &SnapshotWorker{
		repo:  repo,
		store: store,
		jobs:  make(chan SnapshotJob, queueSize),
		now:   time.Now,
	}
}

func (w *SnapshotWorker) Start(ctx context.Context) {
	go func() {
		log.Println("Snapshot Worker started in background...")
		for {
			select {
			case job := <-w.jobs:
				w.processJob(ctx, job)
			case <-ctx.Done():
				log.Println("Snapshot Worker shutting down...")
				return
			}
		}
	}()
}

func (w *SnapshotWorker) Enqueue(userID string) {
	select {
	case w.jobs <- SnapshotJob{UserID: userID}:
	default:
		log.Printf("Snapshot Worker queue full! Dropping job for user %s", userID)
	}
}

func (w *SnapshotWorker) processJob(ctx context.Context, job SnapshotJob) {
	if w.repo == nil || w.store == nil {
		return
	}

	gen, err := w.store.Generation(ctx, job.UserID)
	if err != nil {
		log.Printf("Worker Error reading snapshot generation for %s: %v", job.UserID, err)
		return
	}

	sessions, err := w.repo.ListByUserID(ctx, job.UserID)
	if err != nil {
		log.Printf("Worker Error fetching sessions for %s: %v", job.UserID, err)
		return
	}

	snapshot, err := analytics.ComputeSnapshot(sessions, w.now())
	if err != nil {
		log.Printf("Worker Error computing snapshot for %s: %v", job.UserID, err)
		return
	}

	if err := w.store.Set(ctx, job.UserID, gen, snapshot); err != nil {
		if errors.Is(err, domain.ErrSnapshotStale) {
			log.Printf("Worker Snapshot for %s superseded by a newer write, skipping", job.UserID)
			return
		}
		log.Printf("Worker Failed to store snapshot for %s: %v", job.UserID, err)
		return
	}

	log.Printf("Snapshot refreshed for %s: sessions=%d", job.UserID, snapshot.Overview.TotalSessions)
}
