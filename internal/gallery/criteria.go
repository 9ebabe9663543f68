package gallery

import "encoding/json"

// SearchCriteria is the opaque search configuration produced by the
// registration flow and consumed by the search-scraping collaborator.
// The pipeline threads it through byte-for-byte.
type SearchCriteria struct {
	Spec json.RawMessage `json:"spec"`
}

// EvaluationCriteria is the opaque evaluation configuration consumed by
// the analysis collaborator. Threaded through unchanged like
// SearchCriteria.
type EvaluationCriteria struct {
	Spec json.RawMessage `json:"spec"`
}

// Clone returns an independent copy of the criteria bytes.
func (c SearchCriteria) Clone() SearchCriteria {
	return SearchCriteria{Spec: cloneRaw(c.Spec)}
}

// Clone returns an independent copy of the criteria bytes.
func (c EvaluationCriteria) Clone() EvaluationCriteria {
	return EvaluationCriteria{Spec: cloneRaw(c.Spec)}
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp
}
