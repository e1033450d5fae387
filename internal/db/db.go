package db

import (
	"fmt"

	"rewind/internal/analysis"
	"rewind/internal/auth"
	"rewind/internal/chat"
	"rewind/internal/jobs"
	"rewind/internal/memory"
	"rewind/internal/timeline"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&auth.User{},
		&memory.MemoryRecord{},
		&chat.Conversation{},
		&timeline.Analysis{},
		&analysis.ThoughtAnalysis{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	// Deliberately no unique index on timeline_analyses(memory_record_id,
	// stage): the generate path short-circuits on an existing stage and the
	// dedup job reconciles race leftovers.
	stmts := []string{
		`create index if not exists idx_memory_user_created on memory_records(user_id, created_at desc);`,
		`create index if not exists idx_conv_user_updated on conversations(user_id, updated_at desc);`,
		`create index if not exists idx_conv_memory on conversations(memory_record_id, user_id);`,
		`create index if not exists idx_ta_memory_created on timeline_analyses(memory_record_id, user_id, created_at);`,
		`create index if not exists idx_thought_user_created on thought_analyses(user_id, created_at desc);`,
		`create index if not exists idx_jobs_due on jobs(status, run_at);`,
		`create index if not exists idx_jobs_lock on jobs(status, locked_at);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
