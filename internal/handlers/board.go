package handlers

import (
	"strconv"

	"sortplay/internal/viewmodel"
	"sortplay/pkg/content"
	"sortplay/pkg/play"
	"sortplay/pkg/realtime"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

func buildBoard(id string, snap play.Snapshot) viewmodel.Board {
	selected := ""
	if snap.Drag.Active() {
		selected = snap.Drag.ActiveItemID
	}
	b := viewmodel.Board{
		SessionID:   id,
		Key:         strconv.FormatUint(snap.Version, 10),
		Prompt:      snap.Prompt,
		RoundKind:   snap.RoundKind.String(),
		RoundStatus: snap.RoundStatus.String(),
		RoundNumber: snap.RoundIndex + 1,
		Rounds:      snap.Rounds,
		Items:       toItems(snap.Remaining, selected),
		Score:       snap.Score,
		Mistakes:    snap.Mistakes,
		Arcade:      snap.Mode == session.Arcade,
		Lives:       snap.Lives,
		TargetScore: snap.TargetScore,
		Locked:      snap.Complete || snap.RoundStatus != round.StatusActive,
		Complete:    snap.Complete,
		Success:     snap.Success,
		Countdown:   buildCountdown(snap),
	}
	switch {
	case snap.RoundStatus.Showing():
		b.Feedback = snap.RoundStatus.String()
	case snap.HasLast && snap.Last.Blocked:
		b.Feedback = viewmodel.FeedbackBlocked
	}
	for _, t := range snap.Targets {
		b.Targets = append(b.Targets, viewmodel.Target{
			ID:       t.ID,
			Label:    t.Label,
			Capacity: t.Capacity,
			Placed:   toItems(t.Placed, ""),
			Full:     t.Full,
			Hovered:  t.Hovered,
		})
	}
	return b
}

func buildCountdown(snap play.Snapshot) viewmodel.Countdown {
	if !snap.Timed() || snap.Complete {
		return viewmodel.Countdown{}
	}
	return viewmodel.Countdown{
		Timed:    true,
		Seconds:  realtime.Seconds(snap.TimeLeft),
		Fraction: realtime.Fraction(snap.TimeLeft, snap.Deadline),
	}
}

func toItems(items []content.Item, selected string) []viewmodel.Item {
	out := make([]viewmodel.Item, 0, len(items))
	for _, it := range items {
		out = append(out, viewmodel.Item{
			ID:       it.ID,
			Payload:  it.Payload,
			Selected: it.ID == selected,
		})
	}
	return out
}
