package jobs

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"rewind/internal/timeline"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Worker drains the job queue. Its one job type reconciles duplicate
// timeline stages left behind by the lock-free generate path.
type Worker struct {
	ID   string
	Repo *Repo
	DB   *gorm.DB
	Log  *zap.Logger
}

func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(800 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job, err := w.Repo.Claim(w.ID)
			if err != nil {
				w.Log.Error("worker claim failed", zap.Error(err))
				continue
			}
			if job == nil {
				continue
			}
			w.handle(job)
		}
	}
}

func (w *Worker) handle(job *Job) {
	switch job.Type {
	case TypeTimelineDedup:
		w.handleTimelineDedup(job)
	default:
		_ = w.Repo.MarkFailed(job.ID, "unknown job type")
	}
}

func (w *Worker) handleTimelineDedup(job *Job) {
	type payload struct {
		MemoryRecordID uint64 `json:"memory_record_id"`
	}
	var p payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		_ = w.Repo.MarkFailed(job.ID, "bad payload")
		return
	}

	var analyses []timeline.Analysis
	err := w.DB.
		Where("memory_record_id=? AND user_id=?", p.MemoryRecordID, job.UserID).
		Order("created_at asc, id asc").
		Find(&analyses).Error
	if err != nil {
		w.retry(job, "db read error")
		return
	}

	plan := timeline.PlanDedup(analyses)
	if len(plan.Drop) == 0 {
		_ = w.Repo.MarkDone(job.ID)
		return
	}

	if err := w.DB.Where("id IN ?", plan.Drop).Delete(&timeline.Analysis{}).Error; err != nil {
		w.retry(job, "db delete error")
		return
	}

	w.Log.Info("reconciled duplicate timeline stages",
		zap.Uint64("user_id", job.UserID),
		zap.Uint64("memory_record_id", p.MemoryRecordID),
		zap.Int("deleted", len(plan.Drop)),
		zap.Int("remaining", plan.Remaining))
	_ = w.Repo.MarkDone(job.ID)
}

func (w *Worker) retry(job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		_ = w.Repo.MarkFailed(job.ID, errMsg)
		return
	}

	sec := math.Min(math.Pow(2, float64(attempts)), 600)
	next := time.Now().Add(time.Duration(sec) * time.Second)

	_ = w.Repo.RetryLater(job.ID, attempts, next, errMsg)
}
