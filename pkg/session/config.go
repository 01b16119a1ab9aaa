package session

import (
	"errors"
	"fmt"

	"sortplay/pkg/content"
	"sortplay/pkg/evaluate"
	"sortplay/pkg/round"
)

// Content errors. Validate wraps them with the offending round and element.
var (
	ErrNoRounds         = errors.New("session has no rounds")
	ErrEmptyRound       = errors.New("round has no items")
	ErrNoTargets        = errors.New("round has no drop targets")
	ErrDuplicateItem    = errors.New("duplicate item id")
	ErrDuplicateTarget  = errors.New("duplicate target id")
	ErrDeadTarget       = errors.New("target accepts no item in its round")
	ErrUnplaceableItem  = errors.New("item has no accepting target")
	ErrOverCapacity     = errors.New("targets cannot hold every item")
	ErrUnwinnable       = errors.New("no item can be placed correctly")
	ErrBadTiming        = errors.New("invalid timing")
	ErrBadCapacity      = errors.New("target capacity must not be negative")
	ErrBadLives         = errors.New("arcade sessions need at least one life")
	ErrBadTargetScore   = errors.New("arcade sessions need a positive target score")
	ErrArcadeFreeSort   = errors.New("arcade sessions only run dash rounds")
	ErrUnreachablePass  = errors.New("pass score exceeds the attainable score")
	ErrUnknownRoundKind = errors.New("unknown round kind")
)

// Mode selects how a session ends.
type Mode uint8

const (
	// Sequential sessions play every round once.
	Sequential Mode = iota
	// Arcade sessions recycle the round deck until lives run out or the
	// target score is reached.
	Arcade
)

// String returns the mode name as used in lesson files.
func (m Mode) String() string {
	if m == Arcade {
		return "arcade"
	}
	return "sequential"
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "sequential", "":
		return Sequential, true
	case "arcade":
		return Arcade, true
	}
	return 0, false
}

// Config is the content and rules a host builds a session from.
type Config struct {
	Mode   Mode
	Rounds []round.Spec
	// Shuffle randomizes round order at start and item order within each
	// round.
	Shuffle     bool
	Lives       int
	TargetScore int
	// PassScore is the score a sequential session needs to count as a
	// success. Zero means finishing is enough.
	PassScore int
	Delays    round.Delays
}

// MaxScore returns the best score one pass over the rounds can yield.
func (c Config) MaxScore() int {
	total := 0
	for _, spec := range c.Rounds {
		if spec.Kind == round.Dash {
			total++
			continue
		}
		total += len(spec.Items)
	}
	return total
}

// Validate reports every content problem that would leave a session
// unwinnable. The returned error joins one wrapped sentinel per problem.
func (c Config) Validate() error {
	var errs []error
	if len(c.Rounds) == 0 {
		errs = append(errs, ErrNoRounds)
	}
	if err := c.Delays.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrBadTiming, err))
	}
	for i, spec := range c.Rounds {
		if err := validateRound(spec); err != nil {
			errs = append(errs, fmt.Errorf("round %d: %w", i+1, err))
		}
	}

	switch c.Mode {
	case Arcade:
		if c.Lives < 1 {
			errs = append(errs, ErrBadLives)
		}
		if c.TargetScore < 1 {
			errs = append(errs, ErrBadTargetScore)
		}
		for i, spec := range c.Rounds {
			if spec.Kind != round.Dash {
				errs = append(errs, fmt.Errorf("round %d: %w", i+1, ErrArcadeFreeSort))
			}
		}
	default:
		if c.PassScore < 0 || (len(c.Rounds) > 0 && c.PassScore > c.MaxScore()) {
			errs = append(errs, fmt.Errorf("%w: %d > %d", ErrUnreachablePass, c.PassScore, c.MaxScore()))
		}
	}
	return errors.Join(errs...)
}

func validateRound(spec round.Spec) error {
	var errs []error
	switch spec.Kind {
	case round.FreeSort, round.Dash:
	default:
		errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownRoundKind, spec.Kind))
	}
	if len(spec.Items) == 0 {
		errs = append(errs, ErrEmptyRound)
	}
	if len(spec.Targets) == 0 {
		errs = append(errs, ErrNoTargets)
	}
	if spec.Deadline < 0 || (spec.Kind == round.Dash && spec.Deadline == 0) {
		errs = append(errs, fmt.Errorf("%w: deadline %v", ErrBadTiming, spec.Deadline))
	}

	seen := make(map[string]bool)
	for _, it := range spec.Items {
		if it.ID == "" || seen[it.ID] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateItem, it.ID))
		}
		seen[it.ID] = true
	}
	seen = make(map[string]bool)
	for _, t := range spec.Targets {
		if t.ID == "" || seen[t.ID] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateTarget, t.ID))
		}
		seen[t.ID] = true
		if t.Capacity < 0 {
			errs = append(errs, fmt.Errorf("%w: %q has %d", ErrBadCapacity, t.ID, t.Capacity))
		}
	}

	for _, t := range spec.Targets {
		if !acceptsAny(t, spec.Items) {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDeadTarget, t.ID))
		}
	}

	if spec.Kind == round.FreeSort {
		for _, it := range spec.Items {
			if _, ok := evaluate.Home(it, spec.Targets); !ok {
				errs = append(errs, fmt.Errorf("%w: %q", ErrUnplaceableItem, it.ID))
			}
		}
		if len(errs) == 0 && round.Placeable(spec.Items, spec.Targets, nil) < len(spec.Items) {
			errs = append(errs, ErrOverCapacity)
		}
	}
	if spec.Kind == round.Dash && len(errs) == 0 && round.Placeable(spec.Items, spec.Targets, nil) == 0 {
		errs = append(errs, ErrUnwinnable)
	}
	return errors.Join(errs...)
}

func acceptsAny(t content.DropTarget, items []content.Item) bool {
	for _, it := range items {
		if t.Accept(it) {
			return true
		}
	}
	return false
}
