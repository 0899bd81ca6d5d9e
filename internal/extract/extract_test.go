package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePayload = `{
	"candidates": [
		{
			"name": "Ada Park",
			"handle": "@adapark",
			"company": "Parksoft",
			"why_match": ["writes about embedded Go"],
			"evidence_urls": ["https://example.com/a", "https://example.com/b"],
			"suggested_intro": "Hi Ada"
		}
	],
	"summary": {"headline": "1 strong match", "venues_searched": ["github"]},
	"metadata": {"searches_performed": 4, "pages_fetched": 12, "candidates_evaluated": 9, "completed": true}
}`

func envelopeWith(texts ...string) string {
	type msg struct {
		Text string `json:"text"`
	}
	var msgs []msg
	for _, t := range texts {
		msgs = append(msgs, msg{Text: t})
	}
	data, _ := json.Marshal(map[string]any{"messages": msgs})
	return string(data)
}

func TestFromRawDirectJSON(t *testing.T) {
	outcome := FromRaw(samplePayload)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Result)
	assert.False(t, outcome.Ack)
	require.Len(t, outcome.Result.Candidates, 1)
	assert.Equal(t, "Ada Park", outcome.Result.Candidates[0].Name)
	assert.Equal(t, "1 strong match", outcome.Result.Summary.Headline)
	assert.Equal(t, 4, outcome.Result.Metadata.SearchesPerformed)
	assert.True(t, outcome.Result.Metadata.Completed)
}

func TestFromRawFencedBlockMatchesUnwrapped(t *testing.T) {
	fenced := "Here is what I found:\n\n```json\n" + samplePayload + "\n```\n\nLet me know!"

	plain := FromRaw(samplePayload)
	wrapped := FromRaw(fenced)
	require.NotNil(t, plain)
	require.NotNil(t, wrapped)
	assert.Equal(t, plain.Result, wrapped.Result)
}

func TestFromRawMarkerScanInProse(t *testing.T) {
	mixed := `I searched around and my conclusion is ` + samplePayload + ` hope that helps.`
	outcome := FromRaw(mixed)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "Ada Park", outcome.Result.Candidates[0].Name)
}

func TestFromRawEnvelopeScansBackward(t *testing.T) {
	raw := envelopeWith("Searching github...", "Still going...", samplePayload, "", "  ")
	outcome := FromRaw(raw)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "Ada Park", outcome.Result.Candidates[0].Name)
}

func TestFromRawEnvelopeAllEmpty(t *testing.T) {
	assert.Nil(t, FromRaw(envelopeWith("", "  ")))
}

func TestFromRawSmokeAck(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"bare OK", "OK"},
		{"lowercase ok", "ok"},
		{"status shape", `{"status":"ok"}`},
		{"status shape in envelope", envelopeWith("working...", `{"status":"ok"}`)},
		{"fenced status shape", "```json\n{\"status\":\"ok\"}\n```"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := FromRaw(tt.raw)
			require.NotNil(t, outcome)
			assert.True(t, outcome.Ack)
			assert.Nil(t, outcome.Result)
		})
	}
}

func TestFromRawMissingFieldsDefault(t *testing.T) {
	outcome := FromRaw(`{"candidates":[{"name":"Solo"}]}`)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, "", outcome.Result.Summary.Headline)
	assert.Equal(t, 0, outcome.Result.Metadata.PagesFetched)
	assert.False(t, outcome.Result.Metadata.Completed)
	assert.Empty(t, outcome.Result.Candidates[0].EvidenceURLs)
}

func TestFromRawEmptyCandidatesStillValid(t *testing.T) {
	outcome := FromRaw(`{"candidates":[],"summary":{"headline":"nothing new"}}`)
	require.NotNil(t, outcome)
	require.NotNil(t, outcome.Result)
	assert.Empty(t, outcome.Result.Candidates)
	assert.Equal(t, "nothing new", outcome.Result.Summary.Headline)
}

func TestFromRawGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"prose only", "I could not complete the task, sorry."},
		{"json without marker", `{"result": "done", "count": 3}`},
		{"broken json with marker", `{"candidates": [{"name": "Ada"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, FromRaw(tt.raw))
		})
	}
}

func TestMatchBrace(t *testing.T) {
	end, ok := matchBrace(`{"a": {"b": "}"}}`, 0)
	require.True(t, ok)
	assert.Equal(t, 16, end)

	_, ok = matchBrace(`{"a": 1`, 0)
	assert.False(t, ok)
}

func TestMarkerSpanPicksSmallestContainingObject(t *testing.T) {
	text := `prefix {"inner": true} then {"candidates": [], "summary": {"headline": "x"}} suffix`
	span, ok := markerSpan(text)
	require.True(t, ok)
	assert.Equal(t, `{"candidates": [], "summary": {"headline": "x"}}`, span)
}
