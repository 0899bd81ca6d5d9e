// Package validate is the gate between an assembled connection brief and
// any network upload. Checks are pure: no I/O, no mutation of the brief.
package validate

import (
	"fmt"

	"scout/internal/types"
)

// DefaultMinEvidenceURLs is the evidence floor applied when the config
// does not override it
const DefaultMinEvidenceURLs = 2

// Result collects the outcome of one validation pass
type Result struct {
	Valid  bool
	Errors []string
}

// Brief checks the schema and business rules of a brief before upload.
// A failing result aborts the upload step entirely; local artifacts are
// unaffected.
func Brief(brief *types.ConnectionBrief, minEvidenceURLs int) Result {
	if minEvidenceURLs <= 0 {
		minEvidenceURLs = DefaultMinEvidenceURLs
	}

	var errs []string
	if brief.WorkspaceID == "" {
		errs = append(errs, "workspace_id is empty")
	}
	if brief.RunID == "" {
		errs = append(errs, "run_id is empty")
	}
	if brief.ProjectProfileHash == "" {
		errs = append(errs, "project_profile_hash is empty")
	}

	for i, c := range brief.Candidates {
		if c.Name == "" {
			errs = append(errs, fmt.Sprintf("candidate %d: name is empty", i))
		}
		if len(c.EvidenceURLs) < minEvidenceURLs {
			errs = append(errs, fmt.Sprintf("candidate %d (%s): %d evidence URLs, need at least %d",
				i, c.Name, len(c.EvidenceURLs), minEvidenceURLs))
		}
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}
