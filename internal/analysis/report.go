package analysis

import (
	"fmt"
	"time"
	"unicode/utf8"

	"rewind/internal/memory"
)

type TrendPoint struct {
	Period      string  `json:"period"`
	AvgMood     float64 `json:"avgMood"`
	Description string  `json:"description"`
}

type KeyMoment struct {
	Date         string `json:"date"`
	Title        string `json:"title"`
	Significance string `json:"significance"`
}

type Insights struct {
	Growth   []string `json:"growth"`
	Changes  []string `json:"changes"`
	Patterns []string `json:"patterns"`
}

type Influences struct {
	Internal []string `json:"internal"`
	External []string `json:"external"`
}

type Report struct {
	TimeRange       string       `json:"timeRange"`
	RecordsAnalyzed int          `json:"recordsAnalyzed"`
	Insights        Insights     `json:"insights"`
	KeyMoments      []KeyMoment  `json:"keyMoments"`
	EmotionalTrend  []TrendPoint `json:"emotionalTrend"`
	Influences      Influences   `json:"influences"`
	Summary         string       `json:"summary"`
}

// StartForRange maps a named time range onto its lower bound. The second
// return is false for "all" (no filter).
func StartForRange(timeRange string, now time.Time) (time.Time, bool) {
	switch timeRange {
	case "6months":
		return now.AddDate(0, -6, 0), true
	case "1year":
		return now.AddDate(-1, 0, 0), true
	case "2years":
		return now.AddDate(-2, 0, 0), true
	default:
		return time.Time{}, false
	}
}

func timeRangeLabel(timeRange string) string {
	switch timeRange {
	case "6months":
		return "过去6个月"
	case "1year":
		return "过去1年"
	case "2years":
		return "过去2年"
	case "all":
		return "全部记录"
	}
	return "未知时间范围"
}

// BuildReport derives a heuristic growth report from the records, which
// must be ordered by creation time.
func BuildReport(records []memory.MemoryRecord, timeRange string) Report {
	return Report{
		TimeRange:       timeRangeLabel(timeRange),
		RecordsAnalyzed: len(records),
		Insights:        fixedInsights(),
		KeyMoments:      keyMoments(records),
		EmotionalTrend:  emotionalTrend(records),
		Influences:      fixedInfluences(),
		Summary:         fmt.Sprintf("基于%d条记录的分析，发现了显著的个人成长轨迹。", len(records)),
	}
}

// emotionalTrend groups mood scores by quarter, in first-seen order, and
// bands the averages into a description.
func emotionalTrend(records []memory.MemoryRecord) []TrendPoint {
	order := make([]string, 0)
	moods := make(map[string][]int)
	for _, r := range records {
		if r.Mood == nil {
			continue
		}
		q := fmt.Sprintf("%d年Q%d", r.CreatedAt.Year(), (int(r.CreatedAt.Month())-1)/3+1)
		if _, ok := moods[q]; !ok {
			order = append(order, q)
		}
		moods[q] = append(moods[q], *r.Mood)
	}

	out := make([]TrendPoint, 0, len(order))
	for _, q := range order {
		sum := 0
		for _, m := range moods[q] {
			sum += m
		}
		avg := float64(sum) / float64(len(moods[q]))
		out = append(out, TrendPoint{Period: q, AvgMood: avg, Description: moodDescription(avg)})
	}
	return out
}

func moodDescription(avg float64) string {
	switch {
	case avg < 2.5:
		return "情绪波动较大，多焦虑"
	case avg < 3.5:
		return "开始有所改善，更加稳定"
	case avg < 4:
		return "明显提升，积极情绪增多"
	default:
		return "整体乐观，内心更加平和"
	}
}

// keyMoments picks up to three records that look significant: long content
// or an explicit mood score.
func keyMoments(records []memory.MemoryRecord) []KeyMoment {
	out := make([]KeyMoment, 0, 3)
	for _, r := range records {
		if utf8.RuneCountInString(r.Content) <= 200 && r.Mood == nil {
			continue
		}
		title := "重要的思考"
		if r.Title != nil && *r.Title != "" {
			title = *r.Title
		}
		out = append(out, KeyMoment{
			Date:         r.CreatedAt.Format("2006-01-02"),
			Title:        title,
			Significance: "这是你思想变化的重要节点",
		})
		if len(out) == 3 {
			break
		}
	}
	return out
}

func fixedInsights() Insights {
	return Insights{
		Growth: []string{
			"对工作的态度从焦虑转向更加平和和理性",
			"在人际关系中学会了更好的边界设定",
			"对自我价值的认知更加成熟和稳定",
		},
		Changes: []string{
			"从完美主义者逐渐接受不完美",
			"价值观从追求外在认可转向内在满足",
			"生活重心从工作转向工作与生活的平衡",
		},
		Patterns: []string{
			"每当面临重大决策时，你倾向于寻求他人意见",
			"情绪低落时常通过写作和反思来调节",
			"对新事物保持开放态度，但需要时间适应变化",
		},
	}
}

func fixedInfluences() Influences {
	return Influences{
		Internal: []string{
			"自我反思能力的提升",
			"对心理健康的重视",
			"学习新知识带来的成长感",
			"价值观的重新审视和确立",
		},
		External: []string{
			"工作环境的变化和挑战",
			"重要人际关系的影响",
			"社会环境和时代背景",
			"阅读和学习资源的获得",
		},
	}
}
