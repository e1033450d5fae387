package analysis

import (
	"strings"
	"testing"
	"time"

	"rewind/internal/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(year int, month time.Month, mood int, content string) memory.MemoryRecord {
	r := memory.MemoryRecord{
		Content:   content,
		CreatedAt: time.Date(year, month, 10, 12, 0, 0, 0, time.UTC),
	}
	if mood > 0 {
		r.Mood = &mood
	}
	return r
}

func TestStartForRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	start, ok := StartForRange("6months", now)
	require.True(t, ok)
	assert.Equal(t, time.Date(2023, 12, 15, 0, 0, 0, 0, time.UTC), start)

	start, ok = StartForRange("1year", now)
	require.True(t, ok)
	assert.Equal(t, 2023, start.Year())

	start, ok = StartForRange("2years", now)
	require.True(t, ok)
	assert.Equal(t, 2022, start.Year())

	_, ok = StartForRange("all", now)
	assert.False(t, ok)

	_, ok = StartForRange("nonsense", now)
	assert.False(t, ok)
}

func TestBuildReportBasics(t *testing.T) {
	records := []memory.MemoryRecord{
		rec(2024, time.January, 2, "难过的一天"),
		rec(2024, time.February, 4, "好多了"),
	}

	got := BuildReport(records, "1year")

	assert.Equal(t, "过去1年", got.TimeRange)
	assert.Equal(t, 2, got.RecordsAnalyzed)
	assert.Contains(t, got.Summary, "基于2条记录")
	assert.NotEmpty(t, got.Insights.Growth)
	assert.NotEmpty(t, got.Influences.Internal)
}

func TestEmotionalTrendQuarterGrouping(t *testing.T) {
	records := []memory.MemoryRecord{
		rec(2023, time.January, 2, "a"),
		rec(2023, time.February, 1, "b"),
		rec(2023, time.May, 4, "c"),
		rec(2023, time.December, 5, "d"),
		rec(2023, time.March, 0, "no mood, ignored"),
	}

	trend := emotionalTrend(records)
	require.Len(t, trend, 3)

	assert.Equal(t, "2023年Q1", trend[0].Period)
	assert.InDelta(t, 1.5, trend[0].AvgMood, 0.001)
	assert.Equal(t, "情绪波动较大，多焦虑", trend[0].Description)

	assert.Equal(t, "2023年Q2", trend[1].Period)
	assert.Equal(t, "明显提升，积极情绪增多", trend[1].Description)

	assert.Equal(t, "2023年Q4", trend[2].Period)
	assert.Equal(t, "整体乐观，内心更加平和", trend[2].Description)
}

func TestMoodDescriptionBands(t *testing.T) {
	assert.Equal(t, "情绪波动较大，多焦虑", moodDescription(2.4))
	assert.Equal(t, "开始有所改善，更加稳定", moodDescription(2.5))
	assert.Equal(t, "开始有所改善，更加稳定", moodDescription(3.4))
	assert.Equal(t, "明显提升，积极情绪增多", moodDescription(3.5))
	assert.Equal(t, "整体乐观，内心更加平和", moodDescription(4))
	assert.Equal(t, "整体乐观，内心更加平和", moodDescription(5))
}

func TestKeyMomentsSelection(t *testing.T) {
	long := strings.Repeat("长", 201)
	title := "转折点"
	records := []memory.MemoryRecord{
		{Content: "短且无心情", CreatedAt: time.Now()},
		{Content: long, Title: &title, CreatedAt: time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)},
		rec(2023, time.August, 3, "有心情评分"),
	}

	got := keyMoments(records)
	require.Len(t, got, 2)
	assert.Equal(t, "转折点", got[0].Title)
	assert.Equal(t, "2023-07-01", got[0].Date)
	assert.Equal(t, "重要的思考", got[1].Title)
}

func TestKeyMomentsCapsAtThree(t *testing.T) {
	records := make([]memory.MemoryRecord, 0, 5)
	for i := 0; i < 5; i++ {
		records = append(records, rec(2023, time.Month(i+1), 3, "记录"))
	}

	assert.Len(t, keyMoments(records), 3)
}

func TestBuildReportEmpty(t *testing.T) {
	got := BuildReport(nil, "all")

	assert.Equal(t, "全部记录", got.TimeRange)
	assert.Zero(t, got.RecordsAnalyzed)
	assert.Empty(t, got.EmotionalTrend)
	assert.Empty(t, got.KeyMoments)
}
