// Package extract recovers a structured discovery payload from the
// free-form stdout of an agent tool.
//
// Agent CLIs wrap their answer in a JSON envelope and frequently pad it
// with progress chatter, markdown code fences, or prose around the actual
// payload. Extraction is an ordered list of pure strategies evaluated
// until the first success; nothing here ever returns an error, a nil
// outcome tells the orchestrator to try the next tool.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"scout/internal/types"
)

// Pre-compiled patterns. Compiling per parse is an order of magnitude
// slower and extraction runs on every attempt.
var (
	// Matches ```json ... ``` or ``` ... ``` anywhere in the text
	codeFenceRegex = regexp.MustCompile("(?s)`{3}(?:json)?\\s*\\n?([\\s\\S]*?)\\n?`{3}")
)

// markerField is the key a real discovery payload must carry
const markerField = `"candidates"`

// Outcome is the result of one extraction pass
type Outcome struct {
	// Result is the recovered payload; nil for a bare acknowledgment
	Result *types.DiscoveryResult
	// Ack marks a minimal smoke acknowledgment (bare "OK" or
	// {"status":"ok"}), a valid-but-empty outcome distinct from a real
	// discovery payload
	Ack bool
}

// payload is the wire shape of the tool's answer. Any missing field
// defaults to its zero value rather than failing the parse.
type payload struct {
	Status     string            `json:"status"`
	Candidates []types.Candidate `json:"candidates"`
	Summary    types.Summary     `json:"summary"`
	Metadata   types.Metadata    `json:"metadata"`
}

// envelope is the outer JSON the agent CLI prints on stdout
type envelope struct {
	Messages []envelopeMessage `json:"messages"`
}

type envelopeMessage struct {
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
}

// strategy extracts a candidate JSON span from answer text
type strategy func(text string) (string, bool)

// strategies are tried in order until one yields a decodable payload
var strategies = []strategy{
	directSpan,
	fencedSpan,
	markerSpan,
}

// FromRaw extracts a discovery outcome from raw tool stdout. Returns nil
// when no strategy recovers anything usable.
func FromRaw(raw string) *Outcome {
	text := finalText(raw)
	if text == "" {
		return nil
	}

	if strings.EqualFold(strings.TrimSpace(text), "ok") {
		return &Outcome{Ack: true}
	}

	for _, strat := range strategies {
		span, ok := strat(text)
		if !ok {
			continue
		}
		if outcome := decodeSpan(span); outcome != nil {
			return outcome
		}
	}
	return nil
}

// finalText locates the answer text inside the envelope. The tool may
// emit progress chatter before its final answer, so the message list is
// scanned from the last entry backward for the first non-empty text.
// Output that is not an envelope is treated as the answer itself.
func finalText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	var env envelope
	if err := json.Unmarshal([]byte(trimmed), &env); err == nil && len(env.Messages) > 0 {
		for i := len(env.Messages) - 1; i >= 0; i-- {
			if text := strings.TrimSpace(env.Messages[i].Text); text != "" {
				return text
			}
		}
		return ""
	}
	return trimmed
}

// decodeSpan turns a candidate JSON span into an outcome, or nil when the
// span is not a discovery payload
func decodeSpan(span string) *Outcome {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(span), &probe); err != nil {
		return nil
	}

	if _, has := probe["candidates"]; has {
		var p payload
		if err := json.Unmarshal([]byte(span), &p); err != nil {
			return nil
		}
		return &Outcome{Result: &types.DiscoveryResult{
			Candidates: p.Candidates,
			Summary:    p.Summary,
			Metadata:   p.Metadata,
		}}
	}

	// No candidates key: only the smoke acknowledgment shape is valid
	var p payload
	if err := json.Unmarshal([]byte(span), &p); err == nil && strings.EqualFold(p.Status, "ok") {
		return &Outcome{Ack: true}
	}
	return nil
}

// directSpan tries the text as-is
func directSpan(text string) (string, bool) {
	return strings.TrimSpace(text), true
}

// fencedSpan extracts the first fenced code block
func fencedSpan(text string) (string, bool) {
	match := codeFenceRegex.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return strings.TrimSpace(match[1]), true
}

// markerSpan finds the smallest balanced JSON object containing the
// marker field inside otherwise mixed content
func markerSpan(text string) (string, bool) {
	markerIdx := strings.Index(text, markerField)
	if markerIdx < 0 {
		return "", false
	}

	// Walk opening braces from the nearest one before the marker
	// outward; the first balanced object that still covers the marker
	// and parses as JSON is the smallest containing span.
	for open := strings.LastIndex(text[:markerIdx], "{"); open >= 0; open = strings.LastIndex(text[:open], "{") {
		end, ok := matchBrace(text, open)
		if !ok || end <= markerIdx {
			continue
		}
		span := text[open : end+1]
		if json.Valid([]byte(span)) {
			return span, true
		}
	}
	return "", false
}

// matchBrace returns the index of the brace closing the object opened at
// start, tracking string literals and escapes
func matchBrace(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return i, true
				}
			}
		}
	}
	return 0, false
}
