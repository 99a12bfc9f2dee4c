// Package intent is the fallback classifier used when no rule matched.
// It scores each intent by the number of its trigger phrases found as
// substrings of the lower-cased input; the strictly best score wins.
// Ties break by declaration order, which keeps classification
// deterministic (the intent table is a slice, never a map).
package intent

import "strings"

// Intent is a fallback classification label.
type Intent string

const (
	None      Intent = ""
	Greet     Intent = "greet"
	Time      Intent = "time"
	Joke      Intent = "joke"
	Fact      Intent = "fact"
	Help      Intent = "help"
	Bye       Intent = "bye"
	NameQuery Intent = "name_query"
)

type bucket struct {
	intent   Intent
	keywords []string
}

// Declaration order is the tie-break order.
var buckets = []bucket{
	{Greet, []string{"hi", "hello", "hey", "hiya", "good morning", "good afternoon", "good evening"}},
	{Time, []string{"time", "what time", "current time"}},
	{Joke, []string{"joke", "funny"}},
	{Fact, []string{"fact", "fun fact"}},
	{Help, []string{"help", "assist", "what can you do"}},
	{Bye, []string{"bye", "goodbye", "see you", "exit", "quit"}},
	{NameQuery, []string{"what is my name", "who am i", "my name"}},
}

// Classify returns the best-scoring intent for text, or (None, false) when
// no keyword of any intent occurs.
func Classify(text string) (Intent, bool) {
	lower := strings.ToLower(text)
	best := None
	bestScore := 0
	for _, b := range buckets {
		score := 0
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = b.intent
			bestScore = score
		}
	}
	if bestScore == 0 {
		return None, false
	}
	return best, true
}
