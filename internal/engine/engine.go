// Package engine is the matching-and-dispatch core: an ordered rule table
// scanned first-match-wins, a keyword intent classifier as fallback, and
// the glue that threads the remembered user name through a turn.
package engine

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"rulebot/internal/content"
	"rulebot/internal/intent"
	"rulebot/internal/store"
)

const (
	emptyInputReply = "Please type something."
	apologyReply    = "Oops — something went wrong handling that."
	thanksReply     = "You're welcome!"
)

// Engine is the per-process responder. It holds no per-user mutable state
// itself; everything durable goes through the store.
type Engine struct {
	store  store.Store
	tables content.Tables
	rules  []rule

	// test seams
	now      func() time.Time
	randIntn func(n int) int
}

// New builds an Engine over the given store and reply tables.
func New(st store.Store, tables content.Tables) *Engine {
	e := &Engine{
		store:    st,
		tables:   tables,
		now:      time.Now,
		randIntn: rand.Intn,
	}
	e.rules = buildRules(e)
	return e
}

// Respond handles one utterance and returns the reply together with the
// (possibly updated) remembered name. It never fails: handler panics are
// contained and storage trouble only costs durability, not the reply.
func (e *Engine) Respond(text, currentName string) (string, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return emptyInputReply, currentName
	}

	e.record(currentName, store.SenderUser, text)

	for _, r := range e.rules {
		m := r.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		reply, newName := e.invoke(r, match{re: r.re, groups: m}, currentName)
		if newName == "" {
			newName = currentName
		}
		e.record(newName, store.SenderBot, reply)
		return reply, newName
	}

	reply := e.fallback(text, currentName)
	e.record(currentName, store.SenderBot, reply)
	return reply, currentName
}

// History returns the most recent limit turns for userKey, oldest first.
func (e *Engine) History(userKey string, limit int) ([]store.Turn, error) {
	if strings.TrimSpace(userKey) == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 100
	}
	turns, err := e.store.History(userKey, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return turns, nil
}

// invoke runs one handler with panic containment: an exploding handler
// costs the user a generic apology, never the process.
func (e *Engine) invoke(r rule, m match, name string) (reply, newName string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("handler %s panicked: %v", r.name, rec)
			reply, newName = apologyReply, name
		}
	}()
	return r.handle(m, name)
}

// fallback classifies the utterance by keyword overlap once no rule
// matched and maps the intent to a reply.
func (e *Engine) fallback(text, name string) string {
	in, ok := intent.Classify(text)
	if !ok {
		if strings.Contains(strings.ToLower(text), "thank") {
			return thanksReply
		}
		return e.tables.Default
	}
	switch in {
	case intent.Greet:
		return e.pick(e.tables.Greetings)
	case intent.Time:
		reply, _ := e.tellTime(match{}, name)
		return reply
	case intent.Joke:
		return e.pick(e.tables.Jokes)
	case intent.Fact:
		return e.pick(e.tables.Facts)
	case intent.Help:
		return e.tables.Help
	case intent.Bye:
		return e.pick(e.tables.Farewells)
	case intent.NameQuery:
		reply, _ := e.tellName(match{}, name)
		return reply
	}
	return e.tables.Default
}

// record appends a turn; a failing store degrades durability only.
func (e *Engine) record(name, sender, text string) {
	if err := e.store.AppendTurn(name, sender, text); err != nil {
		log.Printf("append %s turn for %q failed: %v", sender, name, err)
	}
}

func (e *Engine) pick(list []string) string {
	if len(list) == 0 {
		return e.tables.Default
	}
	return list[e.randIntn(len(list))]
}
