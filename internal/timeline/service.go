package timeline

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"rewind/internal/ai"
	"rewind/internal/chat"
	"rewind/internal/memory"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not found")

// minInsightRunes is the quality gate: an interpreted insight shorter than
// this is treated like a completion failure. Counted in runes, not bytes;
// the content is mostly CJK.
const minInsightRunes = 20

// Store is the record-store surface the orchestrator needs.
type Store interface {
	MemoryByID(ctx context.Context, userID, memoryID uint64) (*memory.MemoryRecord, error)
	AnalysesForMemory(ctx context.Context, userID, memoryID uint64) ([]Analysis, error)
	ConversationMessages(ctx context.Context, userID, conversationID, memoryID uint64) ([]chat.Message, error)
	CreateAnalysis(ctx context.Context, a *Analysis) error
	DeleteAnalyses(ctx context.Context, ids []uint64) error
}

// DedupEnqueuer schedules an after-the-fact reconciliation pass. Optional;
// a nil enqueuer just means races wait for the manual cleanup endpoint.
type DedupEnqueuer interface {
	EnqueueTimelineDedup(ctx context.Context, userID, memoryID uint64, runAt time.Time) error
}

type Service struct {
	Store     Store
	Completer ai.Completer
	Dedup     DedupEnqueuer
	Log       *zap.Logger
}

type GenerateInput struct {
	MemoryRecordID uint64
	ConversationID *uint64
	Context        *ai.AnalysisContext
}

// Generate runs the staged analysis state machine: look up the memory,
// resolve the stage, short-circuit on a duplicate, otherwise run the
// compose→complete→interpret pipeline and persist. Pipeline failures never
// reach the caller; the fallback synthesizer covers them. The bool reports
// whether a new row was created.
func (s *Service) Generate(ctx context.Context, userID uint64, in GenerateInput) (*Analysis, bool, error) {
	rec, err := s.Store.MemoryByID(ctx, userID, in.MemoryRecordID)
	if err != nil {
		return nil, false, err
	}

	existing, err := s.Store.AnalysesForMemory(ctx, userID, in.MemoryRecordID)
	if err != nil {
		return nil, false, err
	}

	stage := ResolveStage(existing)
	if found := FindExisting(existing, stage); found != nil {
		return found, false, nil
	}

	actx := in.Context
	if actx == nil && in.ConversationID != nil {
		actx = s.loadConversationContext(ctx, userID, *in.ConversationID, in.MemoryRecordID)
	}

	result := s.runPipeline(ctx, rec, actx, stage)

	row := &Analysis{
		UserID:           userID,
		MemoryRecordID:   in.MemoryRecordID,
		ConversationID:   in.ConversationID,
		Stage:            stage,
		Insight:          result.Insight,
		EmotionalState:   result.EmotionalState,
		GrowthIndicators: pq.StringArray(result.GrowthIndicators),
	}
	if err := s.Store.CreateAnalysis(ctx, row); err != nil {
		return nil, false, err
	}

	if s.Dedup != nil {
		if err := s.Dedup.EnqueueTimelineDedup(ctx, userID, in.MemoryRecordID, time.Now().Add(time.Minute)); err != nil {
			s.Log.Warn("failed to enqueue timeline dedup",
				zap.Uint64("memory_record_id", in.MemoryRecordID),
				zap.Error(err))
		}
	}

	return row, true, nil
}

// loadConversationContext is best-effort: a missing or undecodable
// conversation degrades to a pre-dialogue analysis rather than an error.
func (s *Service) loadConversationContext(ctx context.Context, userID, conversationID, memoryID uint64) *ai.AnalysisContext {
	msgs, err := s.Store.ConversationMessages(ctx, userID, conversationID, memoryID)
	if err != nil || len(msgs) == 0 {
		if err != nil && !errors.Is(err, ErrNotFound) {
			s.Log.Warn("failed to load conversation for analysis",
				zap.Uint64("conversation_id", conversationID),
				zap.Error(err))
		}
		return nil
	}

	current := make([]ai.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		current = append(current, ai.ChatMessage{Sender: m.Sender, Text: m.Text})
	}
	return &ai.AnalysisContext{Current: current}
}

// runPipeline is total: any completion, interpretation or quality-gate
// failure is absorbed and replaced with the stage-appropriate canned
// analysis, logged for operators.
func (s *Service) runPipeline(ctx context.Context, rec *memory.MemoryRecord, actx *ai.AnalysisContext, stage string) ai.Analysis {
	system, user := ai.ComposeAnalysis(snapshot(rec), actx, stage)

	raw, err := s.Completer.Complete(ctx,
		[]ai.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ai.CompletionOptions{Temperature: 0.7, MaxTokens: 1500},
	)
	if err != nil {
		s.Log.Warn("analysis completion failed, using fallback",
			zap.Uint64("memory_record_id", rec.ID),
			zap.String("stage", stage),
			zap.Error(err))
		return ai.Synthesize(stage)
	}

	parsed, err := ai.Interpret(raw)
	if err != nil {
		s.Log.Warn("analysis response not interpretable, using fallback",
			zap.Uint64("memory_record_id", rec.ID),
			zap.String("stage", stage),
			zap.Error(err))
		return ai.Synthesize(stage)
	}

	if utf8.RuneCountInString(parsed.Insight) < minInsightRunes {
		s.Log.Warn("analysis insight below quality gate, using fallback",
			zap.Uint64("memory_record_id", rec.ID),
			zap.String("stage", stage),
			zap.Int("insight_runes", utf8.RuneCountInString(parsed.Insight)))
		return ai.Synthesize(stage)
	}

	return parsed
}

// Entry is one timeline item shaped for display.
type Entry struct {
	Stage            string
	Date             string
	Title            string
	Insight          string
	EmotionalState   string
	GrowthIndicators []string
}

// History returns the memory record plus its analyses mapped to display
// entries, and the count of non-initial stages. An empty timeline is a
// valid result, not an error.
func (s *Service) History(ctx context.Context, userID, memoryID uint64) (*memory.MemoryRecord, []Entry, int, error) {
	rec, err := s.Store.MemoryByID(ctx, userID, memoryID)
	if err != nil {
		return nil, nil, 0, err
	}

	analyses, err := s.Store.AnalysesForMemory(ctx, userID, memoryID)
	if err != nil {
		return nil, nil, 0, err
	}

	entries := make([]Entry, 0, len(analyses))
	conversations := 0
	for _, a := range analyses {
		if a.Stage != StageInitial {
			conversations++
		}
		entries = append(entries, Entry{
			Stage:            a.Stage,
			Date:             a.CreatedAt.Format("2006/1/2"),
			Title:            StageTitle(a.Stage),
			Insight:          a.Insight,
			EmotionalState:   a.EmotionalState,
			GrowthIndicators: NormalizeIndicators(a.GrowthIndicators),
		})
	}
	return rec, entries, conversations, nil
}

// Cleanup runs the dedup plan synchronously for one memory record.
func (s *Service) Cleanup(ctx context.Context, userID, memoryID uint64) (deleted, remaining int, err error) {
	if _, err := s.Store.MemoryByID(ctx, userID, memoryID); err != nil {
		return 0, 0, err
	}

	analyses, err := s.Store.AnalysesForMemory(ctx, userID, memoryID)
	if err != nil {
		return 0, 0, err
	}
	if len(analyses) == 0 {
		return 0, 0, nil
	}

	plan := PlanDedup(analyses)
	if len(plan.Drop) > 0 {
		if err := s.Store.DeleteAnalyses(ctx, plan.Drop); err != nil {
			return 0, 0, err
		}
	}
	return len(plan.Drop), plan.Remaining, nil
}

func snapshot(rec *memory.MemoryRecord) ai.MemorySnapshot {
	snap := ai.MemorySnapshot{
		Content:   rec.Content,
		CreatedAt: rec.CreatedAt,
	}
	if rec.Title != nil {
		snap.Title = *rec.Title
	}
	if rec.Mood != nil {
		snap.Mood = *rec.Mood
	}
	if rec.Tags != nil {
		snap.Tags = *rec.Tags
	}
	return snap
}
