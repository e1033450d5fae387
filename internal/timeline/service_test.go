package timeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"rewind/internal/ai"
	"rewind/internal/chat"
	"rewind/internal/memory"
	"rewind/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	records  map[uint64]*memory.MemoryRecord
	convs    map[uint64][]chat.Message
	analyses []timeline.Analysis
	nextID   uint64
	now      time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: map[uint64]*memory.MemoryRecord{},
		convs:   map[uint64][]chat.Message{},
		now:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) MemoryByID(_ context.Context, userID, memoryID uint64) (*memory.MemoryRecord, error) {
	rec, ok := f.records[memoryID]
	if !ok || rec.UserID != userID {
		return nil, timeline.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) AnalysesForMemory(_ context.Context, userID, memoryID uint64) ([]timeline.Analysis, error) {
	var out []timeline.Analysis
	for _, a := range f.analyses {
		if a.UserID == userID && a.MemoryRecordID == memoryID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) ConversationMessages(_ context.Context, userID, conversationID, memoryID uint64) ([]chat.Message, error) {
	msgs, ok := f.convs[conversationID]
	if !ok {
		return nil, timeline.ErrNotFound
	}
	return msgs, nil
}

func (f *fakeStore) CreateAnalysis(_ context.Context, a *timeline.Analysis) error {
	f.nextID++
	a.ID = f.nextID
	a.CreatedAt = f.now
	f.now = f.now.Add(time.Minute)
	f.analyses = append(f.analyses, *a)
	return nil
}

func (f *fakeStore) DeleteAnalyses(_ context.Context, ids []uint64) error {
	drop := map[uint64]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := f.analyses[:0]
	for _, a := range f.analyses {
		if !drop[a.ID] {
			kept = append(kept, a)
		}
	}
	f.analyses = kept
	return nil
}

type fakeCompleter struct {
	calls int
	reply string
	err   error
}

func (f *fakeCompleter) Complete(_ context.Context, _ []ai.Message, _ ai.CompletionOptions) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeEnqueuer struct {
	calls    int
	memoryID uint64
	runAt    time.Time
}

func (f *fakeEnqueuer) EnqueueTimelineDedup(_ context.Context, _ uint64, memoryID uint64, runAt time.Time) error {
	f.calls++
	f.memoryID = memoryID
	f.runAt = runAt
	return nil
}

const goodReply = `{
  "insight": "你在困惑中依然保持着对自我的观察，这种觉察是内在成长的起点，也预示着思考将走向更深的层次。",
  "emotionalState": "困惑中带有探索欲",
  "growthIndicators": ["自我觉察", "思维深化", "情感成熟"]
}`

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

func seedRecord(store *fakeStore) *memory.MemoryRecord {
	rec := &memory.MemoryRecord{
		ID:        1,
		UserID:    7,
		Title:     strPtr("一个困惑的日子"),
		Content:   "今天我感到有些困惑",
		Mood:      intPtr(3),
		CreatedAt: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
	store.records[rec.ID] = rec
	return rec
}

func newService(store *fakeStore, completer ai.Completer, dedup timeline.DedupEnqueuer) *timeline.Service {
	return &timeline.Service{Store: store, Completer: completer, Dedup: dedup, Log: zap.NewNop()}
}

func TestGenerateFirstAnalysisIsInitial(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	completer := &fakeCompleter{reply: goodReply}
	svc := newService(store, completer, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "initial", row.Stage)
	assert.Equal(t, uint64(7), row.UserID)
	assert.Equal(t, "困惑中带有探索欲", row.EmotionalState)
	assert.GreaterOrEqual(t, len(row.GrowthIndicators), 2)
	assert.Equal(t, 1, completer.calls)
	assert.Len(t, store.analyses, 1)
}

func TestGenerateStageProgression(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	completer := &fakeCompleter{reply: goodReply}
	svc := newService(store, completer, nil)

	want := []string{"initial", "conversation_1", "conversation_2"}
	for _, stage := range want {
		row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, stage, row.Stage)
	}
	assert.Equal(t, 3, completer.calls)
}

func TestGenerateShortCircuitsOnExistingStage(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	store.analyses = []timeline.Analysis{
		{ID: 1, UserID: 7, MemoryRecordID: 1, Stage: "initial"},
		{ID: 2, UserID: 7, MemoryRecordID: 1, Stage: "conversation_2", Insight: "已有分析"},
	}
	completer := &fakeCompleter{reply: goodReply}
	svc := newService(store, completer, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, uint64(2), row.ID)
	assert.Equal(t, "已有分析", row.Insight)
	assert.Zero(t, completer.calls, "existing stage must not trigger a completion")
	assert.Len(t, store.analyses, 2)
}

func TestGenerateMemoryNotFound(t *testing.T) {
	svc := newService(newFakeStore(), &fakeCompleter{reply: goodReply}, nil)

	_, _, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 99})
	assert.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestGenerateWrongUserIsNotFound(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	svc := newService(store, &fakeCompleter{reply: goodReply}, nil)

	_, _, err := svc.Generate(context.Background(), 8, timeline.GenerateInput{MemoryRecordID: 1})
	assert.ErrorIs(t, err, timeline.ErrNotFound)
}

func TestGenerateFallsBackOnCompletionError(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	completer := &fakeCompleter{err: &ai.TransportError{StatusCode: 500, Body: "boom"}}
	svc := newService(store, completer, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err, "transport failures must not surface")

	assert.True(t, created)
	want := ai.Synthesize("initial")
	assert.Equal(t, want.Insight, row.Insight)
	assert.Equal(t, want.EmotionalState, row.EmotionalState)
	assert.Equal(t, want.GrowthIndicators, []string(row.GrowthIndicators))
}

func TestGenerateFallsBackOnEmptyReply(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	svc := newService(store, &fakeCompleter{reply: "   "}, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, ai.Synthesize("initial").Insight, row.Insight)
}

func TestGenerateFallsBackOnShortInsight(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	short := `{"insight":"太短了","emotionalState":"平静","growthIndicators":["a","b"]}`
	svc := newService(store, &fakeCompleter{reply: short}, nil)

	row, _, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.Equal(t, ai.Synthesize("initial").Insight, row.Insight)
}

func TestGenerateConversationStageUsesFallbackForThatStage(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	store.analyses = []timeline.Analysis{{ID: 1, UserID: 7, MemoryRecordID: 1, Stage: "initial"}}
	store.nextID = 1
	svc := newService(store, &fakeCompleter{err: errors.New("network down")}, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, "conversation_1", row.Stage)
	assert.Equal(t, ai.Synthesize("conversation_1").Insight, row.Insight)
	assert.Len(t, row.GrowthIndicators, 4)
}

func TestGenerateLoadsConversationContext(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	store.convs[3] = []chat.Message{
		{ID: "m1", Sender: chat.SenderUser, Text: "你好吗"},
		{ID: "m2", Sender: chat.SenderPastSelf, Text: "挺好的"},
	}
	convID := uint64(3)
	svc := newService(store, &fakeCompleter{reply: goodReply}, nil)

	row, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{
		MemoryRecordID: 1,
		ConversationID: &convID,
	})
	require.NoError(t, err)

	assert.True(t, created)
	require.NotNil(t, row.ConversationID)
	assert.Equal(t, convID, *row.ConversationID)
}

func TestGenerateMissingConversationDegrades(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	convID := uint64(42)
	svc := newService(store, &fakeCompleter{reply: goodReply}, nil)

	_, created, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{
		MemoryRecordID: 1,
		ConversationID: &convID,
	})
	require.NoError(t, err, "a missing conversation must not fail generation")
	assert.True(t, created)
}

func TestGenerateEnqueuesDedup(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	enq := &fakeEnqueuer{}
	svc := newService(store, &fakeCompleter{reply: goodReply}, enq)

	before := time.Now()
	_, _, err := svc.Generate(context.Background(), 7, timeline.GenerateInput{MemoryRecordID: 1})
	require.NoError(t, err)

	assert.Equal(t, 1, enq.calls)
	assert.Equal(t, uint64(1), enq.memoryID)
	assert.True(t, enq.runAt.After(before))
}

func TestHistory(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	base := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	store.analyses = []timeline.Analysis{
		{ID: 1, UserID: 7, MemoryRecordID: 1, Stage: "initial", Insight: "起点",
			EmotionalState: "平静", GrowthIndicators: []string{"自我觉察,内在成长"}, CreatedAt: base},
		{ID: 2, UserID: 7, MemoryRecordID: 1, Stage: "conversation_1", Insight: "进展",
			EmotionalState: "开朗", GrowthIndicators: []string{"思维深化"}, CreatedAt: base.AddDate(0, 0, 3)},
	}
	svc := newService(store, &fakeCompleter{}, nil)

	rec, entries, conversations, err := svc.History(context.Background(), 7, 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(1), rec.ID)
	assert.Equal(t, 1, conversations)
	require.Len(t, entries, 2)

	assert.Equal(t, "首次记录", entries[0].Title)
	assert.Equal(t, "2024/2/1", entries[0].Date)
	assert.Equal(t, []string{"自我觉察", "内在成长"}, entries[0].GrowthIndicators)

	assert.Equal(t, "第1次对话", entries[1].Title)
	assert.Equal(t, "2024/2/4", entries[1].Date)
}

func TestHistoryEmptyTimeline(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	svc := newService(store, &fakeCompleter{}, nil)

	rec, entries, conversations, err := svc.History(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.NotNil(t, rec)
	assert.Empty(t, entries)
	assert.Zero(t, conversations)
}

func TestCleanupRemovesDuplicates(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	store.analyses = []timeline.Analysis{
		{ID: 1, UserID: 7, MemoryRecordID: 1, Stage: "initial"},
		{ID: 2, UserID: 7, MemoryRecordID: 1, Stage: "conversation_1"},
		{ID: 3, UserID: 7, MemoryRecordID: 1, Stage: "conversation_1"},
		{ID: 4, UserID: 7, MemoryRecordID: 1, Stage: "initial"},
		{ID: 5, UserID: 7, MemoryRecordID: 1, Stage: "conversation_2"},
	}
	svc := newService(store, &fakeCompleter{}, nil)

	deleted, remaining, err := svc.Cleanup(context.Background(), 7, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, deleted)
	assert.Equal(t, 3, remaining)
	assert.Len(t, store.analyses, 3)
	for _, a := range store.analyses {
		assert.NotContains(t, []uint64{3, 4}, a.ID)
	}
}

func TestCleanupNothingToDo(t *testing.T) {
	store := newFakeStore()
	seedRecord(store)
	svc := newService(store, &fakeCompleter{}, nil)

	deleted, remaining, err := svc.Cleanup(context.Background(), 7, 1)
	require.NoError(t, err)
	assert.Zero(t, deleted)
	assert.Zero(t, remaining)
}

func TestCleanupMemoryNotFound(t *testing.T) {
	svc := newService(newFakeStore(), &fakeCompleter{}, nil)

	_, _, err := svc.Cleanup(context.Background(), 7, 1)
	assert.ErrorIs(t, err, timeline.ErrNotFound)
}
