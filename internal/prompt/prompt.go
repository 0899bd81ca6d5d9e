// Package prompt composes the discovery job handed to an agent tool.
package prompt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"scout/internal/config"
	"scout/internal/types"
)

const systemPrompt = `You are a connection scout. Given a project profile, find people worth
reaching out to. Search public venues (code forges, forums, conference
speaker lists, blogs) and collect verifiable evidence for every person
you surface.

Respond with a single JSON object:
{
  "candidates": [{"name", "handle", "role", "company", "why_match": [],
                  "evidence_urls": [], "risk_flags": [], "scores": {},
                  "last_activity", "suggested_intro", "suggested_followup"}],
  "summary": {"headline", "key_insights": [], "venues_searched": []},
  "metadata": {"searches_performed", "pages_fetched",
               "candidates_evaluated", "completed"}
}`

const smokePrompt = `This is a pipeline check. Do not search anything. Reply with exactly:
{"status":"ok"}`

// ProfileHash returns the deterministic hash of the profile content,
// used to track profile changes across runs
func ProfileHash(profile string) string {
	sum := sha256.Sum256([]byte(profile))
	return hex.EncodeToString(sum[:])
}

// Build composes an immutable discovery job for one run attempt
func Build(cfg *config.Config, mode types.Mode) types.DiscoveryJob {
	if mode == types.ModeSmoke {
		return types.DiscoveryJob{
			SystemPrompt: systemPrompt,
			UserPrompt:   smokePrompt,
			Mode:         mode,
		}
	}

	var b strings.Builder
	b.WriteString("Project profile:\n")
	b.WriteString(strings.TrimSpace(cfg.Profile))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Every candidate needs at least %d evidence URLs.\n", cfg.MinEvidenceURLs)

	if len(cfg.AvoidList) > 0 {
		b.WriteString("\nAlready surfaced in past runs, do not repeat these people or companies:\n")
		for _, id := range cfg.AvoidList {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return types.DiscoveryJob{
		SystemPrompt: systemPrompt,
		UserPrompt:   b.String(),
		Mode:         mode,
	}
}
