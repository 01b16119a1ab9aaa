// Package lessons loads lesson packs from TOML and turns them into session
// configurations.
package lessons

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"sortplay/pkg/content"
	"sortplay/pkg/round"
	"sortplay/pkg/session"
)

var (
	ErrNoID      = errors.New("lesson has no id")
	ErrBadMode   = errors.New("unknown session mode")
	ErrBadAccept = errors.New("invalid accept rule")
)

// Lesson is one lesson pack as written on disk.
type Lesson struct {
	ID          string     `toml:"id"`
	Title       string     `toml:"title"`
	Description string     `toml:"description"`
	Mode        string     `toml:"mode"`
	Lives       int        `toml:"lives"`
	TargetScore int        `toml:"target_score"`
	PassScore   int        `toml:"pass_score"`
	Shuffle     bool       `toml:"shuffle"`
	Rounds      []RoundDef `toml:"rounds"`

	// Source is where the pack was loaded from. Not part of the file.
	Source string `toml:"-"`
}

type RoundDef struct {
	Kind       string      `toml:"kind"`
	Prompt     string      `toml:"prompt"`
	DeadlineMS int         `toml:"deadline_ms"`
	Items      []ItemDef   `toml:"items"`
	Targets    []TargetDef `toml:"targets"`
}

type ItemDef struct {
	ID       string `toml:"id"`
	Payload  string `toml:"payload"`
	Category string `toml:"category"`
	Rank     int    `toml:"rank"`
}

type TargetDef struct {
	ID       string    `toml:"id"`
	Label    string    `toml:"label"`
	Capacity int       `toml:"capacity"`
	Accept   AcceptDef `toml:"accept"`
}

// AcceptDef is the accept rule of a target. Value is shorthand for a single
// entry in Values.
type AcceptDef struct {
	Kind   string   `toml:"kind"`
	Value  string   `toml:"value"`
	Values []string `toml:"values"`
}

// Rule converts the definition to a content rule.
func (a AcceptDef) Rule() content.Rule {
	values := append([]string(nil), a.Values...)
	if a.Value != "" {
		values = append([]string{a.Value}, values...)
	}
	return content.Rule{Kind: a.Kind, Values: values}
}

// Parse decodes one lesson pack. Unknown keys are rejected so typos surface.
func Parse(data []byte) (Lesson, error) {
	var l Lesson
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return Lesson{}, fmt.Errorf("decode lesson: %s", strings.TrimSpace(strict.String()))
		}
		return Lesson{}, fmt.Errorf("decode lesson: %w", err)
	}
	l.ID = strings.TrimSpace(l.ID)
	if l.ID == "" {
		return Lesson{}, ErrNoID
	}
	if l.Title == "" {
		l.Title = l.ID
	}
	return l, nil
}

// Build converts the lesson into a session configuration using delays for
// feedback timing. The result still goes through session.New validation.
func (l Lesson) Build(delays round.Delays) (session.Config, error) {
	mode, ok := session.ParseMode(strings.ToLower(strings.TrimSpace(l.Mode)))
	if !ok {
		return session.Config{}, fmt.Errorf("%s: %w: %q", l.ID, ErrBadMode, l.Mode)
	}
	cfg := session.Config{
		Mode:        mode,
		Shuffle:     l.Shuffle,
		Lives:       l.Lives,
		TargetScore: l.TargetScore,
		PassScore:   l.PassScore,
		Delays:      delays,
		Rounds:      make([]round.Spec, 0, len(l.Rounds)),
	}
	for i, rd := range l.Rounds {
		spec, err := rd.spec()
		if err != nil {
			return session.Config{}, fmt.Errorf("%s: round %d: %w", l.ID, i, err)
		}
		cfg.Rounds = append(cfg.Rounds, spec)
	}
	return cfg, nil
}

// Validate builds the lesson with default delays and runs the session
// content checks.
func (l Lesson) Validate() error {
	cfg, err := l.Build(round.DefaultDelays())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", l.ID, err)
	}
	return nil
}

func (rd RoundDef) spec() (round.Spec, error) {
	kind, ok := round.ParseKind(strings.ToLower(strings.TrimSpace(rd.Kind)))
	if !ok {
		return round.Spec{}, fmt.Errorf("%w: %q", session.ErrUnknownRoundKind, rd.Kind)
	}
	spec := round.Spec{
		Kind:     kind,
		Prompt:   rd.Prompt,
		Deadline: time.Duration(rd.DeadlineMS) * time.Millisecond,
		Items:    make([]content.Item, 0, len(rd.Items)),
		Targets:  make([]content.DropTarget, 0, len(rd.Targets)),
	}
	for _, it := range rd.Items {
		payload := it.Payload
		if payload == "" {
			payload = it.ID
		}
		spec.Items = append(spec.Items, content.Item{
			ID:         it.ID,
			Payload:    payload,
			Classifier: content.Classifier{Category: it.Category, Rank: it.Rank},
		})
	}
	for _, t := range rd.Targets {
		accepts, err := t.Accept.Rule().Compile()
		if err != nil {
			return round.Spec{}, fmt.Errorf("target %q: %w: %w", t.ID, ErrBadAccept, err)
		}
		label := t.Label
		if label == "" {
			label = t.ID
		}
		spec.Targets = append(spec.Targets, content.DropTarget{
			ID:       t.ID,
			Label:    label,
			Accepts:  accepts,
			Capacity: t.Capacity,
		})
	}
	return spec, nil
}
