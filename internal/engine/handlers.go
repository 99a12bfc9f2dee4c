package engine

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"rulebot/internal/eval"
	"rulebot/internal/store"
)

// rule is one ordered (pattern, handler) pair. Rule identity is positional:
// the first rule in the table whose pattern matches anywhere in the input
// wins, so the declaration order below is load-bearing.
type rule struct {
	name   string
	re     *regexp.Regexp
	handle func(m match, name string) (string, string)
}

// match wraps a submatch result so handlers can read named groups.
type match struct {
	re     *regexp.Regexp
	groups []string
}

func (m match) group(name string) string {
	if m.re == nil {
		return ""
	}
	i := m.re.SubexpIndex(name)
	if i < 0 || i >= len(m.groups) {
		return ""
	}
	return m.groups[i]
}

// exprChars is the calculator charset: digits, operators, parens, dots and
// whitespace. Anything else keeps the pattern from matching at all.
const exprChars = `[-+*/%().\s0-9]+`

var (
	reNameIs    = regexp.MustCompile(`(?i)\bmy name is (?P<name>[A-Za-z ]{1,40})\b`)
	reIm        = regexp.MustCompile(`(?i)\bi['’]?m (?P<name>[A-Za-z ]{1,40})\b`)
	reIAm       = regexp.MustCompile(`(?i)\bi am (?P<name>[A-Za-z ]{1,40})\b`)
	reNameQuery = regexp.MustCompile(`(?i)\b(what('s| is) my name|who am i)\b`)
	reTime      = regexp.MustCompile(`(?i)\b(what time is it|current time|time)\b`)
	reDate      = regexp.MustCompile(`(?i)\b(what(?:'s| is) the date|date today|what date)\b`)
	reJoke      = regexp.MustCompile(`(?i)\b(joke|tell me a joke)\b`)
	reFact      = regexp.MustCompile(`(?i)\b(fact|tell me a fact|fun fact)\b`)
	reCalc      = regexp.MustCompile(`(?i)\b(?:calculate|calc)\s+(?P<expr>` + exprChars + `)$`)
	reWhatIs    = regexp.MustCompile(`(?i)\bwhat(?:'s| is)\s+(?P<expr>` + exprChars + `)\??$`)
	reHelp      = regexp.MustCompile(`(?i)\b(help|assist|what can you do)\b`)
	reBye       = regexp.MustCompile(`(?i)\b(bye|goodbye|see you|exit|quit)\b`)
)

// buildRules wires the canonical precedence: name-setting before name
// query, before time/date, before joke/fact, before calculator, before
// help, before goodbye.
func buildRules(e *Engine) []rule {
	return []rule{
		{"set-name", reNameIs, e.setName},
		{"set-name", reIm, e.setName},
		{"set-name", reIAm, e.setName},
		{"name-query", reNameQuery, e.tellName},
		{"time", reTime, e.tellTime},
		{"date", reDate, e.tellDate},
		{"joke", reJoke, e.tellJoke},
		{"fact", reFact, e.tellFact},
		{"calculate", reCalc, e.calculate},
		{"calculate", reWhatIs, e.calculate},
		{"help", reHelp, e.help},
		{"bye", reBye, e.goodbye},
	}
}

// normalizeName splits the raw capture on whitespace, capitalizes each
// token and rejoins. Empty after normalization means nothing usable was
// captured.
func normalizeName(raw string) string {
	parts := strings.Fields(raw)
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, " ")
}

func (e *Engine) setName(m match, current string) (string, string) {
	name := normalizeName(m.group("name"))
	if name == "" {
		return "I didn't catch that name. Try: 'My name is Alice'.", current
	}
	if _, err := e.store.EnsureUser(name); err != nil {
		log.Printf("ensure user %q failed: %v", name, err)
	}
	reply := fmt.Sprintf("Nice to meet you, %s! I'll remember you.", name)
	// small welcome entry in the new user's history
	e.record(name, store.SenderBot, reply)
	return reply, name
}

func (e *Engine) tellName(_ match, current string) (string, string) {
	if current != "" && current != store.GuestKey {
		return fmt.Sprintf("Your name is %s.", current), current
	}
	return "I don't know your name yet — tell me: 'My name is ...'.", current
}

func (e *Engine) tellTime(_ match, current string) (string, string) {
	return fmt.Sprintf("The current time is %s.", e.now().Format("2006-01-02 15:04:05")), current
}

func (e *Engine) tellDate(_ match, current string) (string, string) {
	return fmt.Sprintf("Today's date is %s.", e.now().Format("2006-01-02")), current
}

func (e *Engine) tellJoke(_ match, current string) (string, string) {
	return e.pick(e.tables.Jokes), current
}

func (e *Engine) tellFact(_ match, current string) (string, string) {
	return e.pick(e.tables.Facts), current
}

func (e *Engine) calculate(m match, current string) (string, string) {
	expr := strings.TrimSpace(m.group("expr"))
	if expr == "" {
		return "I couldn't detect an expression to calculate. Try: calculate 2+2", current
	}
	v, err := eval.Eval(expr)
	switch {
	case err == nil:
		return fmt.Sprintf("%s = %s", expr, v), current
	case errors.Is(err, eval.ErrUnsafe):
		return "That's not a safe expression to evaluate. I only do basic arithmetic.", current
	default:
		return "I couldn't calculate that. Try a simpler expression like 12 + 3 * (2).", current
	}
}

func (e *Engine) help(_ match, current string) (string, string) {
	return e.tables.Help, current
}

func (e *Engine) goodbye(_ match, current string) (string, string) {
	return e.pick(e.tables.Farewells), current
}
