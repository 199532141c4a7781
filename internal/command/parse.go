// Package command implements the parser, Intent derivation, and verb
// dispatch of spec.md §4.1, grounded on the teacher's dispatch() switch
// (commands.go) but generalised from a flat string-switch into a verb
// table plus a script fallback path.
package command

import (
	"strings"

	"github.com/port4k/port4k/internal/domain"
)

// Verb is the first parsed token of a command line, normalised to one of
// the canonical verbs of spec.md §4.1, or Custom for anything else (which
// falls through to the current room's on_command script).
type Verb int

const (
	VerbHelp Verb = iota
	VerbLook
	VerbExamine
	VerbSearch
	VerbTake
	VerbDrop
	VerbOpen
	VerbClose
	VerbUnlock
	VerbLock
	VerbUse
	VerbPut
	VerbTalk
	VerbGo
	VerbInventory
	VerbQuit
	VerbWho
	VerbLogout
	VerbLogin
	VerbRegister
	VerbLuaRepl
	VerbBalance
	VerbHint
	VerbCustom
)

var verbWords = map[string]Verb{
	"help": VerbHelp, "?": VerbHelp,
	"look": VerbLook, "l": VerbLook,
	"examine": VerbExamine, "x": VerbExamine,
	"search":    VerbSearch,
	"take":      VerbTake, "get": VerbTake,
	"drop":      VerbDrop,
	"open":      VerbOpen,
	"close":     VerbClose,
	"unlock":    VerbUnlock,
	"lock":      VerbLock,
	"use":       VerbUse,
	"put":       VerbPut,
	"talk":      VerbTalk,
	"go":        VerbGo,
	"inventory": VerbInventory, "inv": VerbInventory, "i": VerbInventory,
	"quit":   VerbQuit,
	"who":    VerbWho,
	"logout": VerbLogout,
	"login":  VerbLogin,
	"register": VerbRegister,
	"lua":    VerbLuaRepl,
	"balance": VerbBalance, "bal": VerbBalance,
	"hint": VerbHint,
}

// directionWords lets a bare direction ("north", "n") act as shorthand for
// "go <direction>", matching the teacher's n/s/e/w/u/d shortcuts generalised
// to the full canonical direction set (spec.md §3).
var directionWords = func() map[string]bool {
	m := make(map[string]bool)
	for alias := range aliasTable() {
		m[alias] = true
	}
	return m
}()

func aliasTable() map[string]domain.Direction {
	// Delegates to domain.NormalizeDirection's alias table by probing every
	// common alias; kept local so command does not need a second exported
	// table in domain just to enumerate aliases.
	aliases := []string{
		"n", "north", "ne", "northeast", "e", "east", "se", "southeast",
		"s", "south", "sw", "southwest", "w", "west", "nw", "northwest",
		"u", "up", "d", "down", "in", "out",
	}
	out := make(map[string]domain.Direction, len(aliases))
	for _, a := range aliases {
		if d, ok := domain.NormalizeDirection(a); ok {
			out[a] = d
		}
	}
	return out
}

// Intent is a parsed command: verb, positional args, optional direct noun
// phrase, optional direction (spec.md GLOSSARY).
type Intent struct {
	Verb      Verb
	Raw       string // the original verb token, lowercased (for Custom/admin)
	Args      []string
	Direct    string
	Direction domain.Direction
	HasDir    bool
	Admin     bool // true for "@..." lines, which bypass the verb table
}

// Parse tokenises line shell-style: whitespace-separated, with single and
// double quotes grouping an atomic token with no escape handling inside
// (spec.md §4.1 "Parser"). An empty line parses to a Custom Intent with an
// empty Raw.
func Parse(line string) Intent {
	tokens := tokenize(line)
	if len(tokens) == 0 {
		return Intent{Verb: VerbCustom}
	}

	first := tokens[0]
	if strings.HasPrefix(first, "@") {
		return Intent{Verb: VerbCustom, Raw: first, Args: tokens[1:], Admin: true}
	}

	lower := strings.ToLower(first)
	if dir, ok := domain.NormalizeDirection(lower); ok && directionWords[lower] {
		return Intent{Verb: VerbGo, Raw: lower, Direction: dir, HasDir: true, Args: tokens[1:]}
	}

	verb, known := verbWords[lower]
	if !known {
		verb = VerbCustom
	}

	rest := tokens[1:]
	intent := Intent{Verb: verb, Raw: lower, Args: rest}

	if verb == VerbGo && len(rest) > 0 {
		if dir, ok := domain.NormalizeDirection(rest[0]); ok {
			intent.Direction = dir
			intent.HasDir = true
		}
	}
	if len(rest) > 0 {
		intent.Direct = strings.Join(rest, " ")
	}
	return intent
}

func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range line {
		switch {
		case r == '\'' && !inDouble:
			inSingle = !inSingle
		case r == '"' && !inSingle:
			inDouble = !inDouble
		case (r == ' ' || r == '\t') && !inSingle && !inDouble:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}
