package terminal

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"sortplay/pkg/content"
	"sortplay/pkg/feedback"
	"sortplay/pkg/interact"
	"sortplay/pkg/play"
	"sortplay/pkg/realtime"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

const (
	marginX     = 2
	barWidth    = 20
	boxHeight   = 4
	minBoxWidth = 16
	helpText    = "1-0 pick  a-l drop  mouse drag  esc cancel  q quit"
)

var (
	styleTitle    = tcell.StyleDefault.Bold(true)
	styleDim      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleItem     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSelected = tcell.StyleDefault.Reverse(true)
	styleBox      = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleHover    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleGood     = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleBad      = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Draw renders the current state and rebuilds the hit-test layout and key
// bindings to match.
func (a *App) Draw() {
	snap := a.game.Snapshot()
	s := a.screen
	s.Clear()
	w, h := s.Size()

	a.layout.Reset()
	a.itemKeys = make(map[rune]string)
	a.targetKeys = make(map[rune]string)
	a.itemRects = make(map[string]interact.Rect)

	a.text(marginX, 0, styleTitle, a.title)
	a.text(marginX, 1, styleDim, hud(snap))
	if snap.Timed() && !snap.Complete {
		a.countdown(2, snap)
	}

	y := 4
	if snap.Complete {
		a.result(y, snap)
	} else {
		a.text(marginX, y, styleTitle, snap.Prompt)
		y = a.items(y+2, w, snap)
		y = a.targets(y+1, w, snap)
		a.status(y+1, snap)
	}
	a.text(marginX, h-1, styleDim, helpText)
	s.Show()
}

func hud(snap play.Snapshot) string {
	out := fmt.Sprintf("Round %d of %d   Score %d", snap.RoundIndex+1, snap.Rounds, snap.Score)
	if snap.Mode == session.Arcade {
		out += fmt.Sprintf("   Lives %d   Goal %d", snap.Lives, snap.TargetScore)
	}
	if snap.Mistakes > 0 {
		out += fmt.Sprintf("   Mistakes %d", snap.Mistakes)
	}
	return out
}

func (a *App) countdown(y int, snap play.Snapshot) {
	filled := min(int(realtime.Fraction(snap.TimeLeft, snap.Deadline)*barWidth+0.5), barWidth)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	style := styleGood
	if filled*4 <= barWidth {
		style = styleBad
	}
	x := a.text(marginX, y, styleDim, fmt.Sprintf("%2ds ", realtime.Seconds(snap.TimeLeft)))
	a.text(x, y, style, bar)
}

func (a *App) items(y, w int, snap play.Snapshot) int {
	selected := ""
	if snap.Drag.Active() {
		selected = snap.Drag.ActiveItemID
	}
	x := marginX
	for i, it := range snap.Remaining {
		key := ' '
		if i < len(itemKeys) {
			key = rune(itemKeys[i])
			a.itemKeys[key] = it.ID
		}
		label := fmt.Sprintf("[%c] %s", key, payload(it))
		width := runewidth.StringWidth(label)
		if x > marginX && x+width > w-marginX {
			x, y = marginX, y+2
		}
		style := styleItem
		if it.ID == selected {
			style = styleSelected
		}
		a.text(x, y, style, label)
		r := interact.Rect{X: float64(x), Y: float64(y), W: float64(width), H: 1}
		a.layout.SetItem(it.ID, r, 1)
		a.itemRects[it.ID] = r
		x += width + 2
	}
	return y + 2
}

func (a *App) targets(y, w int, snap play.Snapshot) int {
	x := marginX
	bottom := y
	for i, t := range snap.Targets {
		key := ' '
		if i < len(targetKeys) {
			key = rune(targetKeys[i])
			a.targetKeys[key] = t.ID
		}
		title := fmt.Sprintf("[%c] %s", key, t.Label)
		width := max(runewidth.StringWidth(title)+4, minBoxWidth)
		if x > marginX && x+width > w-marginX {
			x, y = marginX, y+boxHeight+1
		}
		style := styleBox
		switch {
		case t.Hovered:
			style = styleHover
		case t.Full:
			style = styleDim
		}
		a.box(x, y, width, style)
		a.text(x+2, y+1, style, title)
		placed := make([]string, 0, len(t.Placed))
		for _, it := range t.Placed {
			placed = append(placed, payload(it))
		}
		line := strings.Join(placed, " ")
		if t.Capacity > 0 {
			line = fmt.Sprintf("%d/%d %s", len(t.Placed), t.Capacity, line)
		}
		a.text(x+2, y+2, styleItem, runewidth.Truncate(line, width-4, "…"))
		a.layout.SetTarget(t.ID, interact.Rect{X: float64(x), Y: float64(y), W: float64(width), H: boxHeight}, 0)
		x += width + 2
		bottom = y + boxHeight
	}
	return bottom
}

func (a *App) status(y int, snap play.Snapshot) {
	a.mu.Lock()
	cue, at := a.cue, a.cueAt
	a.mu.Unlock()

	switch snap.RoundStatus {
	case round.StatusCorrect:
		a.text(marginX, y, styleGood, "Correct!")
	case round.StatusIncorrect:
		a.text(marginX, y, styleBad, "Not quite.")
	case round.StatusTimedOut:
		a.text(marginX, y, styleBad, "Time's up.")
	default:
		if a.clock.Now().Sub(at) >= cueFlash {
			return
		}
		switch cue {
		case feedback.CueCorrect, feedback.CueCelebrate:
			a.text(marginX, y, styleGood, "✓")
		case feedback.CueIncorrect:
			if snap.HasLast && snap.Last.Blocked {
				a.text(marginX, y, styleBad, "✗ another item needs that spot")
				return
			}
			a.text(marginX, y, styleBad, "✗ try again")
		}
	}
}

func (a *App) result(y int, snap play.Snapshot) {
	a.mu.Lock()
	celebrate := a.celebrate
	a.mu.Unlock()

	if snap.Success {
		msg := "Well done!"
		if celebrate {
			msg = "★ Well done! ★"
		}
		a.text(marginX, y, styleGood, msg)
	} else {
		a.text(marginX, y, styleBad, "Session over.")
	}
	a.text(marginX, y+1, styleItem, fmt.Sprintf("Final score %d", snap.Score))
	a.text(marginX, y+3, styleDim, "Press enter to exit.")
}

func (a *App) box(x, y, w int, style tcell.Style) {
	s := a.screen
	for i := 1; i < w-1; i++ {
		s.SetContent(x+i, y, '─', nil, style)
		s.SetContent(x+i, y+boxHeight-1, '─', nil, style)
	}
	for j := 1; j < boxHeight-1; j++ {
		s.SetContent(x, y+j, '│', nil, style)
		s.SetContent(x+w-1, y+j, '│', nil, style)
	}
	s.SetContent(x, y, '┌', nil, style)
	s.SetContent(x+w-1, y, '┐', nil, style)
	s.SetContent(x, y+boxHeight-1, '└', nil, style)
	s.SetContent(x+w-1, y+boxHeight-1, '┘', nil, style)
}

// text draws str at (x, y) and returns the column after it.
func (a *App) text(x, y int, style tcell.Style, str string) int {
	for _, r := range str {
		a.screen.SetContent(x, y, r, nil, style)
		x += max(runewidth.RuneWidth(r), 1)
	}
	return x
}

func payload(it content.Item) string {
	if it.Payload == "" {
		return it.ID
	}
	return it.Payload
}
