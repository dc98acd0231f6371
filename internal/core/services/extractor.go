package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/voltdex/internal/core/domain"
	"github.com/custodia-labs/voltdex/internal/core/ports/driven"
	"github.com/custodia-labs/voltdex/internal/logger"
	"github.com/custodia-labs/voltdex/internal/vocab"
)

// TagExtractor derives structured tags from chunk text. The LLM path
// gives richer results; the local dictionary path always works. Extract
// never fails and never returns missing fields.
type TagExtractor struct {
	llm   driven.LLMService // optional
	vocab *vocab.Vocabulary
}

// NewTagExtractor creates a tag extractor. llm may be nil.
func NewTagExtractor(llm driven.LLMService, v *vocab.Vocabulary) *TagExtractor {
	if v == nil {
		v = vocab.Builtin()
	}
	return &TagExtractor{llm: llm, vocab: v}
}

// Extract returns the tags for one chunk of text. When both the LLM and
// the local extractor produce results, component lists are union-merged
// and the LLM wins on the scalar fields.
func (e *TagExtractor) Extract(ctx context.Context, content string) domain.Tags {
	local := e.localExtract(content)

	if e.llm == nil {
		local.Normalise()
		return local
	}

	llmTags, err := e.llmExtract(ctx, content)
	if err != nil {
		logger.Debug("LLM tag extraction failed, using local extractor: %v", err)
		local.Normalise()
		return local
	}

	merged := mergeTags(llmTags, local)
	merged.Normalise()
	return merged
}

// tagPrompt constrains the model to the JSON schema and the known
// vocabulary so outputs stay machine-readable.
const tagPrompt = `Extract electrical equipment attributes from the text below.

Respond with ONLY a JSON object in this exact shape, no other text:
{"panel": "", "voltage": "", "components": [], "connections": [{"from": "", "to": "", "label": ""}]}

Rules:
- "panel": the panel or switchboard identifier the text is about, or "" if none.
- "voltage": one of [%s], or "" if none applies.
- "components": names from [%s] that appear in the text.
- "connections": directed feed relationships between identified equipment.

Text:
%s`

func (e *TagExtractor) llmExtract(ctx context.Context, content string) (domain.Tags, error) {
	prompt := fmt.Sprintf(tagPrompt,
		strings.Join(e.vocab.Voltages, ", "),
		strings.Join(e.vocab.Components, ", "),
		content)

	raw, err := e.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0,
	})
	if err != nil {
		return domain.Tags{}, fmt.Errorf("generate tags: %w", err)
	}

	var tags domain.Tags
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &tags); err != nil {
		return domain.Tags{}, fmt.Errorf("parse tag response: %w", err)
	}
	return tags, nil
}

// connectionRe matches "MDP-1 feeds LP-2" style feed statements.
var connectionRe = regexp.MustCompile(
	`\b([A-Z]{1,4}-?\d{1,4}[A-Z]?)\s+(?:feeds|supplies|serves)\s+(?:panel\s+)?([A-Z]{1,4}-?\d{1,4}[A-Z]?)\b`)

// localExtract is the deterministic fallback: dictionary matching over
// the vocabulary plus the identifier pattern.
func (e *TagExtractor) localExtract(content string) domain.Tags {
	var tags domain.Tags
	lc := strings.ToLower(content)

	for _, comp := range e.vocab.Components {
		if strings.Contains(lc, strings.ToLower(comp)) {
			tags.Components = append(tags.Components, comp)
		}
	}

	for _, v := range e.vocab.Voltages {
		if strings.Contains(lc, strings.ToLower(v)) {
			tags.Voltage = v
			break
		}
	}

	// The first identifier on a line that starts with a panel-ish
	// section marker names the panel.
	for _, line := range strings.Split(content, "\n") {
		lcLine := strings.ToLower(strings.TrimSpace(line))
		if !strings.HasPrefix(lcLine, "panel") && !strings.HasPrefix(lcLine, "switchboard") &&
			!strings.HasPrefix(lcLine, "panelboard") {
			continue
		}
		if id := vocab.IdentifierPattern.FindString(line); id != "" {
			tags.Panel = id
			break
		}
	}

	for _, m := range connectionRe.FindAllStringSubmatch(content, -1) {
		tags.Connections = append(tags.Connections, domain.Connection{From: m[1], To: m[2]})
	}

	return tags
}

// mergeTags combines the LLM result with the local result. Scalars come
// from the LLM when present; component and connection lists are the
// union of both with first-seen order.
func mergeTags(llm, local domain.Tags) domain.Tags {
	merged := llm

	if merged.Panel == "" {
		merged.Panel = local.Panel
	}
	if merged.Voltage == "" {
		merged.Voltage = local.Voltage
	}

	seen := make(map[string]struct{}, len(merged.Components))
	for _, c := range merged.Components {
		seen[strings.ToLower(c)] = struct{}{}
	}
	for _, c := range local.Components {
		if _, ok := seen[strings.ToLower(c)]; ok {
			continue
		}
		seen[strings.ToLower(c)] = struct{}{}
		merged.Components = append(merged.Components, c)
	}

	seenConn := make(map[string]struct{}, len(merged.Connections))
	for _, c := range merged.Connections {
		seenConn[connKey(c)] = struct{}{}
	}
	for _, c := range local.Connections {
		if _, ok := seenConn[connKey(c)]; ok {
			continue
		}
		seenConn[connKey(c)] = struct{}{}
		merged.Connections = append(merged.Connections, c)
	}

	return merged
}

func connKey(c domain.Connection) string {
	return strings.ToLower(c.From + "\x00" + c.To)
}

// stripCodeFences removes a surrounding markdown code fence, which
// models add despite instructions not to.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
