package timeline

import (
	"fmt"
	"regexp"
	"strings"
)

const StageInitial = "initial"

var (
	stageNumRe   = regexp.MustCompile(`conversation_(\d+)`)
	indicatorSep = regexp.MustCompile(`[,，]`)
)

// ResolveStage picks the canonical stage label for the next analysis of a
// memory record, given its existing analyses in creation order. The first
// analysis is "initial"; afterwards each new stage is conversation_k with
// k one past the count of non-initial analyses already recorded.
func ResolveStage(existing []Analysis) string {
	if len(existing) == 0 {
		return StageInitial
	}
	n := 0
	for _, a := range existing {
		if a.Stage != StageInitial {
			n++
		}
	}
	return fmt.Sprintf("conversation_%d", n+1)
}

// FindExisting returns the analysis already recorded for the given stage,
// or nil. Callers short-circuit on a hit instead of generating again.
func FindExisting(existing []Analysis, stage string) *Analysis {
	for i := range existing {
		if existing[i].Stage == stage {
			return &existing[i]
		}
	}
	return nil
}

// StageTitle derives the display title for a stage label.
func StageTitle(stage string) string {
	if stage != StageInitial {
		if m := stageNumRe.FindStringSubmatch(stage); m != nil {
			return fmt.Sprintf("第%s次对话", m[1])
		}
	}
	return "首次记录"
}

// DedupPlan is the outcome of reconciling duplicate stages: the ids to
// delete and the count of rows that remain.
type DedupPlan struct {
	Drop      []uint64
	Remaining int
}

// PlanDedup keeps the earliest analysis per distinct stage and marks every
// later duplicate for deletion. Pure grouping; the input must already be
// ordered by creation time.
func PlanDedup(existing []Analysis) DedupPlan {
	seen := make(map[string]struct{}, len(existing))
	var plan DedupPlan
	for _, a := range existing {
		if _, ok := seen[a.Stage]; ok {
			plan.Drop = append(plan.Drop, a.ID)
			continue
		}
		seen[a.Stage] = struct{}{}
	}
	plan.Remaining = len(seen)
	return plan
}

// NormalizeIndicators renders stored growth indicators as a clean list. A
// legacy row may hold one comma-joined string instead of a native array;
// both come out the same.
func NormalizeIndicators(stored []string) []string {
	items := stored
	if len(stored) == 1 && strings.ContainsAny(stored[0], ",，") {
		items = indicatorSep.Split(stored[0], -1)
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			out = append(out, it)
		}
	}
	return out
}
