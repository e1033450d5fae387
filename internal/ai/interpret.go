package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Analysis is the structured result recovered from an LLM reply.
type Analysis struct {
	Insight          string
	EmotionalState   string
	GrowthIndicators []string
}

// Recovery runs in two phases. First the ordered jsonStrategies try to find
// a well-formed JSON object carrying all three fields; the first hit wins.
// If none succeeds, per-field regex extraction fills in what it can and the
// rest is defaulted. Append new strategies to the slice; callers never
// change.
type jsonStrategy func(raw string) (Analysis, bool)

var jsonStrategies = []jsonStrategy{
	fencedBlockJSON,
	braceSpanJSON,
}

var fencedRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

func fencedBlockJSON(raw string) (Analysis, bool) {
	m := fencedRe.FindStringSubmatch(raw)
	if m == nil {
		return Analysis{}, false
	}
	return parseStrict(m[1])
}

func braceSpanJSON(raw string) (Analysis, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return Analysis{}, false
	}
	return parseStrict(raw[start : end+1])
}

func parseStrict(candidate string) (Analysis, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return Analysis{}, false
	}

	rawInsight, ok1 := obj["insight"]
	rawState, ok2 := obj["emotionalState"]
	rawIndicators, ok3 := obj["growthIndicators"]
	if !ok1 || !ok2 || !ok3 || rawIndicators == nil {
		return Analysis{}, false
	}

	insight := strings.TrimSpace(coerceString(rawInsight))
	state := strings.TrimSpace(coerceString(rawState))
	if insight == "" || state == "" {
		return Analysis{}, false
	}

	// non-list growthIndicators degrade to an empty list
	indicators := []string{}
	if list, ok := rawIndicators.([]any); ok {
		for _, item := range list {
			indicators = append(indicators, strings.TrimSpace(coerceString(item)))
		}
	}

	return Analysis{Insight: insight, EmotionalState: state, GrowthIndicators: indicators}, true
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Interpret recovers insight, emotional state and growth indicators from a
// raw LLM reply. Only effectively empty input is uninterpretable; anything
// else yields a usable structure through extraction and defaulting.
func Interpret(raw string) (Analysis, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Analysis{}, ErrUninterpretable
	}

	for _, try := range jsonStrategies {
		if a, ok := try(trimmed); ok {
			return a, nil
		}
	}

	insight := extractField(raw, "insight")
	if insight == "" {
		insight = firstRunes(trimmed, 200)
	}

	state := extractField(raw, "emotionalState")
	if state == "" {
		state = "情绪状态复杂，正在成长中"
	}

	indicators := extractList(raw, "growthIndicators")
	if len(indicators) == 0 {
		indicators = []string{"自我觉察", "内在成长"}
	}

	return Analysis{Insight: insight, EmotionalState: state, GrowthIndicators: indicators}, nil
}

// extractField tries a quoted-JSON-field match first, then a loose
// "label: value to end of line" match.
func extractField(text, field string) string {
	quoted := regexp.MustCompile(`(?i)"` + field + `"\s*:\s*"([^"]+)"`)
	if m := quoted.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	loose := regexp.MustCompile(`(?im)"?` + field + `"?\s*[:：]\s*(.+)$`)
	if m := loose.FindStringSubmatch(text); m != nil {
		v := strings.TrimSpace(m[1])
		v = strings.TrimRight(v, ",，")
		v = strings.Trim(v, `"`)
		return strings.TrimSpace(v)
	}
	return ""
}

var listItemSep = regexp.MustCompile(`[,，]`)

// extractList matches a bracketed run after the field label and splits it
// on ASCII or Chinese commas, discarding empties.
func extractList(text, field string) []string {
	re := regexp.MustCompile(`(?i)"?` + field + `"?\s*[:：]\s*\[([^\]]*)\]`)
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	var out []string
	for _, item := range listItemSep.Split(m[1], -1) {
		item = strings.Trim(item, "\"'“” \t\r\n")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

func firstRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
