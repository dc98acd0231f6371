// Package vocab holds the built-in electrical documentation vocabulary.
//
// The vocabulary drives three things: section-marker splitting in the
// segmenter, the deterministic local tag extractor, and static keyword
// injection for the specialist query intents. It ships embedded so the
// pipeline never depends on an external file, but can be overridden by
// loading a YAML file with the same shape.
package vocab

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocab.yaml
var builtinYAML []byte

// Vocabulary is the fixed domain word lists used across the pipeline.
type Vocabulary struct {
	// SectionMarkers are words that begin a new logical section when
	// found at the start of a line (case-insensitive).
	SectionMarkers []string `yaml:"section_markers"`

	// Components is the recognised equipment dictionary.
	Components []string `yaml:"components"`

	// Voltages is the recognised voltage-level dictionary.
	Voltages []string `yaml:"voltages"`

	// IntentExpansions maps a query intent to domain-standard terms
	// injected into the expanded keyword set.
	IntentExpansions map[string][]string `yaml:"intent_expansions"`
}

// IdentifierPattern matches short alphanumeric equipment identifiers
// such as MDP-1, CB12, T-3A or LP2B.
var IdentifierPattern = regexp.MustCompile(`\b[A-Z]{1,4}-?\d{1,4}[A-Z]?\b`)

var (
	builtinOnce sync.Once
	builtin     *Vocabulary
)

// Builtin returns the embedded vocabulary. The embedded file is part of
// the binary, so a parse failure is a programming error and panics.
func Builtin() *Vocabulary {
	builtinOnce.Do(func() {
		v, err := parse(builtinYAML)
		if err != nil {
			panic(fmt.Sprintf("vocab: embedded vocabulary is invalid: %v", err))
		}
		builtin = v
	})
	return builtin
}

// LoadFile loads a vocabulary override from a YAML file.
func LoadFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Vocabulary, error) {
	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse vocabulary: %w", err)
	}
	if len(v.SectionMarkers) == 0 {
		return nil, fmt.Errorf("vocabulary has no section markers")
	}
	return &v, nil
}

// ExpansionsFor returns the static keyword injection for an intent.
// Unknown intents get no expansion.
func (v *Vocabulary) ExpansionsFor(intent string) []string {
	return v.IntentExpansions[intent]
}
