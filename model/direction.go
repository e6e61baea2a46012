// Package model defines the static rule set of a grain simulation: grain
// types, behaviors with their reaction slots, and scalar fields.
//
// A Model is plain data. It is edited between steps and read, never
// written, by the step engine.
package model

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownDirection is returned when a direction name cannot be parsed.
var ErrUnknownDirection = errors.New("unknown direction")

// Direction is one of the 8 compass neighbors of a cell.
type Direction uint8

// Enumeration order matters: neighbor binding and movement scan
// directions in this order.
const (
	North Direction = iota // up, y-1
	East                   // right, x+1
	South                  // down, y+1
	West                   // left, x-1
	NorthEast
	SouthEast
	SouthWest
	NorthWest

	NumDirections = 8
)

// Offset holds the coordinate delta of a Direction.
type Offset struct {
	DX, DY int
}

// Offsets maps each Direction to its coordinate delta.
var Offsets = [NumDirections]Offset{
	North:     {0, -1},
	East:      {1, 0},
	South:     {0, 1},
	West:      {-1, 0},
	NorthEast: {1, -1},
	SouthEast: {1, 1},
	SouthWest: {-1, 1},
	NorthWest: {-1, -1},
}

var directionNames = [NumDirections]string{"n", "e", "s", "w", "ne", "se", "sw", "nw"}

// String returns the short compass name ("n", "ne", ...).
func (d Direction) String() string {
	if int(d) < NumDirections {
		return directionNames[d]
	}
	return fmt.Sprintf("direction(%d)", uint8(d))
}

// ParseDirection parses a compass name. "up", "right", "down" and "left"
// are accepted as aliases of the orthogonal directions.
func ParseDirection(s string) (Direction, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "up":
		return North, nil
	case "right":
		return East, nil
	case "down":
		return South, nil
	case "left":
		return West, nil
	}
	for i, name := range directionNames {
		if name == s {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownDirection, s)
}

// DirectionSet is a bitset of allowed directions.
type DirectionSet uint8

const (
	// NoDirections allows nothing.
	NoDirections DirectionSet = 0
	// FirstDirections are the orthogonal neighbors N, E, S, W.
	FirstDirections DirectionSet = 1<<North | 1<<East | 1<<South | 1<<West
	// ExtendedDirections adds the diagonals to FirstDirections.
	ExtendedDirections DirectionSet = 0xFF
)

// Dirs builds a set from individual directions.
func Dirs(ds ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range ds {
		s = s.Add(d)
	}
	return s
}

// Has reports whether d is in the set.
func (s DirectionSet) Has(d Direction) bool {
	return s&(1<<d) != 0
}

// Add returns the set with d added.
func (s DirectionSet) Add(d Direction) DirectionSet {
	return s | 1<<d
}

// Remove returns the set with d removed.
func (s DirectionSet) Remove(d Direction) DirectionSet {
	return s &^ (1 << d)
}

// Empty reports whether no direction is allowed.
func (s DirectionSet) Empty() bool {
	return s == NoDirections
}

// Len returns the number of allowed directions.
func (s DirectionSet) Len() int {
	n := 0
	for d := Direction(0); d < NumDirections; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Directions lists the allowed directions in enumeration order.
func (s DirectionSet) Directions() []Direction {
	out := make([]Direction, 0, NumDirections)
	for d := Direction(0); d < NumDirections; d++ {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

// Names lists the short names of the allowed directions.
func (s DirectionSet) Names() []string {
	ds := s.Directions()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}

// ParseDirectionSet parses a set keyword ("first", "extended", "none")
// or a single direction name.
func ParseDirectionSet(s string) (DirectionSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "orthogonal":
		return FirstDirections, nil
	case "extended", "all":
		return ExtendedDirections, nil
	case "none", "":
		return NoDirections, nil
	}
	d, err := ParseDirection(s)
	if err != nil {
		return NoDirections, err
	}
	return Dirs(d), nil
}

// MarshalYAML writes the set as a keyword when it matches one, otherwise
// as a list of names.
func (s DirectionSet) MarshalYAML() (any, error) {
	switch s {
	case FirstDirections:
		return "first", nil
	case ExtendedDirections:
		return "extended", nil
	case NoDirections:
		return []string{}, nil
	}
	return s.Names(), nil
}

// UnmarshalYAML accepts a keyword, a single name, or a sequence of names
// and keywords.
func (s *DirectionSet) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		set, err := ParseDirectionSet(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*s = set
		return nil
	case yaml.SequenceNode:
		var set DirectionSet
		for _, item := range node.Content {
			part, err := ParseDirectionSet(item.Value)
			if err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			set |= part
		}
		*s = set
		return nil
	}
	return fmt.Errorf("line %d: direction set must be a name or a list", node.Line)
}
