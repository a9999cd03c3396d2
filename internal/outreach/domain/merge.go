package domain

import "time"

// StageFlags carries the stage transitions of one conversion update. A
// nil or false flag is a no-op; only true flags advance the funnel.
type StageFlags struct {
	Sent      *bool `json:"sent"`
	Opened    *bool `json:"opened"`
	Clicked   *bool `json:"clicked"`
	Replied   *bool `json:"replied"`
	Converted *bool `json:"converted"`
}

// Merge folds flags into state with OR-merge semantics: a true flag sets
// the stage and stamps its timestamp if unset, everything else leaves the
// state untouched. True stages are never cleared, timestamps never move,
// so merging is monotone under any interleaving of concurrent updates.
// Reports whether the state changed.
func Merge(state *OutreachFunnelState, flags StageFlags, now time.Time) bool {
	changed := false
	changed = mergeStage(&state.Sent, &state.SentAt, flags.Sent, now) || changed
	changed = mergeStage(&state.Opened, &state.OpenedAt, flags.Opened, now) || changed
	changed = mergeStage(&state.Clicked, &state.ClickedAt, flags.Clicked, now) || changed
	changed = mergeStage(&state.Replied, &state.RepliedAt, flags.Replied, now) || changed
	changed = mergeStage(&state.Converted, &state.ConvertedAt, flags.Converted, now) || changed
	if changed {
		state.UpdatedAt = now
	}
	return changed
}

func mergeStage(stage *bool, reachedAt **time.Time, flag *bool, now time.Time) bool {
	if flag == nil || !*flag {
		return false
	}
	changed := false
	if !*stage {
		*stage = true
		changed = true
	}
	if *reachedAt == nil {
		stamp := now
		*reachedAt = &stamp
		changed = true
	}
	return changed
}
