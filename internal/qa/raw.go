// SPDX-License-Identifier: Apache-2.0

package qa

import "fmt"

// RawCandidate is one scored span as emitted by a model runner, before any
// offset conversion. Token indices are inclusive on both ends; (-1,-1) is
// the no-answer prediction.
type RawCandidate struct {
	AnswerType     string  `json:"answer_type"`
	Score          float64 `json:"score"`
	StartToken     int     `json:"start_token"`
	EndToken       int     `json:"end_token"`
	Probability    float64 `json:"probability,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	PassageID      string  `json:"passage_id,omitempty"`
	NPassagesInDoc int     `json:"n_passages_in_doc,omitempty"`
	// OffsetUnit and AggregationLevel default to "token" and "passage" when
	// empty. A non-token unit is not rejected here; it surfaces as a data
	// anomaly during derivation.
	OffsetUnit       string `json:"offset_unit,omitempty"`
	AggregationLevel string `json:"aggregation_level,omitempty"`
	// PredictedClass is an optional yes/no/no_answer signal from a
	// classification head, reconciled with the span after derivation.
	PredictedClass string `json:"predicted_class,omitempty"`
}

// Candidate converts the raw tuple into a passage-level, token-unit
// Candidate.
func (r RawCandidate) Candidate() *Candidate {
	c := NewCandidate(r.AnswerType, r.Score, r.StartToken, r.EndToken)
	c.Probability = r.Probability
	c.Confidence = r.Confidence
	c.PassageID = r.PassageID
	c.NPassagesInDoc = r.NPassagesInDoc
	if r.OffsetUnit != "" {
		c.OffsetUnit = r.OffsetUnit
	}
	if r.AggregationLevel != "" {
		c.AggregationLevel = r.AggregationLevel
	}
	return c
}

// Request is the full raw payload for one (question, passage) pair, as
// produced by the model-runner side and consumed by the formatter.
type Request struct {
	ID                string         `json:"id"`
	Question          string         `json:"question"`
	Context           string         `json:"context"`
	TokenOffsets      []int          `json:"token_offsets"`
	ContextWindowSize int            `json:"context_window_size,omitempty"`
	NoAnswerGap       float64        `json:"no_ans_gap,omitempty"`
	GroundTruth       string         `json:"ground_truth,omitempty"`
	AnswerTypes       []string       `json:"answer_types,omitempty"`
	Candidates        []RawCandidate `json:"candidates"`
}

// Validate checks the request against the runner contract before the core
// slices into the context. Only violations that would make derivation index
// out of bounds are errors here; an inverted span is a data anomaly and
// flows through as a diagnostic instead.
func (r Request) Validate() error {
	if r.Context == "" {
		return fmt.Errorf("context is required")
	}
	if len(r.Candidates) == 0 {
		return fmt.Errorf("at least one candidate is required")
	}
	n := len(r.TokenOffsets)
	for i, c := range r.Candidates {
		if c.StartToken == -1 && c.EndToken == -1 {
			continue
		}
		if c.StartToken < 0 || c.StartToken >= n {
			return fmt.Errorf("candidate %d: start token %d outside offset table of length %d", i, c.StartToken, n)
		}
		if c.EndToken < 0 || c.EndToken >= n {
			return fmt.Errorf("candidate %d: end token %d outside offset table of length %d", i, c.EndToken, n)
		}
	}
	return nil
}

// PredictionSet derives the formatted set for the request, applying any
// per-candidate classification override after span derivation.
func (r Request) PredictionSet(windowSize int, sink DiagnosticSink) *PredictionSet {
	if windowSize <= 0 {
		windowSize = r.ContextWindowSize
	}
	candidates := make([]*Candidate, 0, len(r.Candidates))
	for _, raw := range r.Candidates {
		candidates = append(candidates, raw.Candidate())
	}
	set := NewPredictionSet(SetSpec{
		ID:                r.ID,
		Question:          r.Question,
		Context:           r.Context,
		TokenOffsets:      r.TokenOffsets,
		ContextWindowSize: windowSize,
		NoAnswerGap:       r.NoAnswerGap,
		GroundTruth:       r.GroundTruth,
		AnswerTypes:       r.AnswerTypes,
		Sink:              sink,
	}, candidates)
	for i, raw := range r.Candidates {
		if raw.PredictedClass != "" {
			set.Candidates[i].ApplyClass(raw.PredictedClass)
		}
	}
	return set
}
