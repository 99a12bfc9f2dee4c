// Package content holds the canned reply tables. The engine treats them as
// opaque read-only collections to pick from at random.
package content

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Tables carries every canned reply the responder can produce.
type Tables struct {
	Greetings []string `yaml:"greetings"`
	Farewells []string `yaml:"farewells"`
	Jokes     []string `yaml:"jokes"`
	Facts     []string `yaml:"facts"`
	Help      string   `yaml:"help"`
	Default   string   `yaml:"default"`
}

// Defaults returns the built-in reply tables.
func Defaults() Tables {
	return Tables{
		Greetings: []string{
			"Hi there! I'm RuleBot. What's your name?",
			"Hello! I'm RuleBot — what's your name?",
			"Hey! I'm RuleBot. Tell me your name so I can remember you.",
		},
		Farewells: []string{
			"Goodbye! Have a great day!",
			"See you later — take care!",
			"Bye! I'll remember you.",
		},
		Jokes: []string{
			"Why did the computer get cold? It left its Windows open!",
			"Why do programmers prefer dark mode? Because light attracts bugs!",
			"What do you call 8 hobbits? A hobbyte.",
		},
		Facts: []string{
			"Fun fact: The first computer 'bug' was an actual moth found in a computer!",
			"Fun fact: The first 1GB hard drive (1980) weighed about 550 pounds.",
		},
		Help: "I can: greet you, remember your name across visits, tell the current time, " +
			"tell a joke, do basic arithmetic (try: 'calculate 2+2' or 'calc 12/4'), " +
			"and say goodbye. Try: 'My name is Alice', 'What time is it?', 'Tell me a joke'.",
		Default: "I'm not sure I understand. Could you rephrase that?",
	}
}

// Load reads a YAML overrides file on top of the defaults. Fields absent
// from the file keep their built-in values, so no table can end up empty.
func Load(path string) (Tables, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read content file: %w", err)
	}
	var over Tables
	if err := yaml.Unmarshal(raw, &over); err != nil {
		return t, fmt.Errorf("parse content file: %w", err)
	}
	if len(over.Greetings) > 0 {
		t.Greetings = over.Greetings
	}
	if len(over.Farewells) > 0 {
		t.Farewells = over.Farewells
	}
	if len(over.Jokes) > 0 {
		t.Jokes = over.Jokes
	}
	if len(over.Facts) > 0 {
		t.Facts = over.Facts
	}
	if over.Help != "" {
		t.Help = over.Help
	}
	if over.Default != "" {
		t.Default = over.Default
	}
	return t, nil
}
