package route

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"roadsim/model"
)

// Direction is a route instruction direction: one of the eight compass
// codes (absolute) or L/R/ST (relative to the incoming heading).
type Direction string

const (
	Left     Direction = "L"
	Right    Direction = "R"
	Straight Direction = "ST"
)

// Relative reports whether the direction is a turn relative to the
// incoming heading rather than an absolute compass code.
func (d Direction) Relative() bool {
	switch d {
	case Left, Right, Straight:
		return true
	}
	return false
}

// Compass converts an absolute direction to its model compass point.
func (d Direction) Compass() model.Compass { return model.Compass(d) }

// ParseDirection recognizes a direction code, case-insensitively.
func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.ToUpper(s))
	if d.Relative() {
		return d, true
	}
	if model.Compass(d).RingIndex() >= 0 {
		return d, true
	}
	return "", false
}

// Command is one parsed route instruction: exit the named junction in
// the given direction.
type Command struct {
	Junction  string
	Direction Direction
}

// String renders the command in its compact token form, e.g. "N_A".
func (c Command) String() string { return string(c.Direction) + "_" + c.Junction }

// FormatCommands joins commands into canonical route text.
func FormatCommands(cmds []Command) string {
	tokens := make([]string, len(cmds))
	for i, c := range cmds {
		tokens[i] = c.String()
	}
	return strings.Join(tokens, " ")
}

// JunctionLookup is the part of the world the parser needs.
type JunctionLookup interface {
	Junction(name string) *model.Junction
}

// Parse turns compact route text into an ordered command list. Tokens are
// separated by whitespace or commas and must match DIRECTION_JUNCTION.
// Malformed tokens and references to unknown junctions are dropped with a
// diagnostic; parsing continues on the remaining tokens. Empty text or
// the literal "auto" yields nil, which signals auto-routing.
func Parse(text string, world JunctionLookup) []Command {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || strings.EqualFold(trimmed, "auto") {
		return nil
	}
	tokens := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == ','
	})
	var cmds []Command
	for _, tok := range tokens {
		parts := strings.SplitN(tok, "_", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.WithField("token", tok).Warn("route token is not DIRECTION_JUNCTION, skipping")
			continue
		}
		dir, ok := ParseDirection(parts[0])
		if !ok {
			log.WithField("token", tok).Warn("unknown direction code, skipping")
			continue
		}
		name := strings.ToUpper(parts[1])
		if world != nil && world.Junction(name) == nil {
			log.WithFields(log.Fields{"token": tok, "junction": name}).Warn("unknown junction, skipping")
			continue
		}
		cmds = append(cmds, Command{Junction: name, Direction: dir})
	}
	return cmds
}
