package command

import (
	"strings"

	"mudengine/internal/clock"
	"mudengine/internal/mudcode"
)

// Dispatch runs the full C6 pipeline for one input line: tokenize, resolve,
// cooldown check, gate, invoke, post (spec.md §4.3). On success it applies
// the handler's reported cooldown to timer (if non-nil and positive) and
// returns the handler's output text. On failure it returns a *mudcode.Error
// of Kind Parse (couldn't tokenize or resolve), Overloaded (timer is still
// counting down from a prior command), or Precondition (failed the gate).
func Dispatch(reg *Registry, c clock.Clock, timer *clock.Timer, actor Actor, line string) (string, error) {
	parsed := Tokenize(line)
	if parsed.Verb == "" {
		return "", mudcode.NewWithMessage(mudcode.Parse, "Huh?", nil)
	}

	cmd, ambiguous := reg.Resolve(parsed.Verb)
	if cmd == nil {
		if len(ambiguous) > 0 {
			return "", mudcode.NewWithMessage(mudcode.Parse,
				"Ambiguous command. Did you mean: "+strings.Join(ambiguous, ", ")+"?", nil)
		}
		return "", mudcode.NewWithMessage(mudcode.Parse, "Huh?", nil)
	}

	if timer != nil && !timer.HasExpired(c) {
		return "", mudcode.NewWithMessage(mudcode.Overloaded, "You are not ready to do that yet.", nil)
	}

	if cmd.Gate != nil {
		if ok, reason := cmd.Gate(actor); !ok {
			return "", mudcode.NewWithMessage(mudcode.Precondition, reason, nil)
		}
	}

	result := cmd.Handler(actor, parsed)
	if timer != nil && result.Cooldown > 0 {
		timer.Update(c, result.Cooldown)
	}
	return result.Output, nil
}
