// SPDX-License-Identifier: Apache-2.0

package qa

// SetSpec carries everything needed to build a PredictionSet besides the
// candidates themselves.
type SetSpec struct {
	// ID identifies the (question, passage-or-document) pair.
	ID       string
	Question string
	// Context is the text the candidate spans point into.
	Context string
	// TokenOffsets maps each token index to its start character position in
	// Context, ascending. It must be index-aligned with the model's token
	// span predictions; a table shorter than a referenced index is a caller
	// contract violation and panics.
	TokenOffsets      []int
	ContextWindowSize int
	// NoAnswerGap is how much the no-answer score boost would need to shift
	// to flip a no-answer into a positive answer.
	NoAnswerGap float64
	// GroundTruth is optional; "" serializes as null.
	GroundTruth string
	// AnswerTypes lists the answer types the task supports.
	AnswerTypes []string
	// Sink receives anomalies found during derivation, in addition to the
	// Diagnostics collected on the set. Optional.
	Sink DiagnosticSink
}

// PredictionSet is the ordered collection of candidates for one question and
// passage or document. Construction eagerly derives every candidate's answer
// string and context window; afterwards the set is read-only and serialized
// via Document. Candidate order encodes the caller's ranking and is never
// changed here.
type PredictionSet struct {
	ID                string
	Question          string
	Context           string
	TokenOffsets      []int
	ContextWindowSize int
	AggregationLevel  string
	NoAnswerGap       float64
	GroundTruth       string
	AnswerTypes       []string

	// Candidates in ranking order, exclusively owned by this set.
	Candidates []*Candidate

	// NPassages is read from the first candidate; all candidates of one set
	// are assumed consistent.
	NPassages int

	// Diagnostics collected while deriving the candidates.
	Diagnostics []Diagnostic
}

// NewPredictionSet derives answer strings and context windows for all
// candidates, in order. All candidates must share the spec's context and
// token-offset table.
func NewPredictionSet(spec SetSpec, candidates []*Candidate) *PredictionSet {
	p := &PredictionSet{
		ID:                spec.ID,
		Question:          spec.Question,
		Context:           spec.Context,
		TokenOffsets:      spec.TokenOffsets,
		ContextWindowSize: spec.ContextWindowSize,
		AggregationLevel:  LevelPassage,
		NoAnswerGap:       spec.NoAnswerGap,
		GroundTruth:       spec.GroundTruth,
		AnswerTypes:       spec.AnswerTypes,
		Candidates:        candidates,
	}
	if len(candidates) > 0 {
		p.NPassages = candidates[0].NPassagesInDoc
	}
	for _, c := range candidates {
		p.report(c.SetAnswer(spec.TokenOffsets, spec.Context), spec.Sink)
		c.SetContextWindow(spec.ContextWindowSize, spec.Context)
	}
	return p
}

func (p *PredictionSet) report(diags []Diagnostic, sink DiagnosticSink) {
	p.Diagnostics = append(p.Diagnostics, diags...)
	if sink != nil {
		for _, d := range diags {
			sink.Report(d)
		}
	}
}

// Document projects the set onto the output schema. With squad set, the id
// field is emitted as question_id and no-answer candidates serialize with an
// empty answer string, which is what SQuAD scoring tooling expects.
func (p *PredictionSet) Document(squad bool) Document {
	entry := PredictionEntry{
		Question:    p.Question,
		Answers:     p.answers(squad),
		NoAnswerGap: p.NoAnswerGap,
	}
	if p.GroundTruth != "" {
		gt := p.GroundTruth
		entry.GroundTruth = &gt
	}
	if squad {
		entry.QuestionID = p.ID
	} else {
		entry.ID = p.ID
	}
	return Document{
		Task:        TaskQA,
		Predictions: []PredictionEntry{entry},
	}
}

func (p *PredictionSet) answers(squad bool) []AnswerEntry {
	answers := make([]AnswerEntry, 0, len(p.Candidates))
	for _, c := range p.Candidates {
		answer := c.Answer
		if squad && answer == NoAnswer {
			answer = ""
		}
		answers = append(answers, AnswerEntry{
			Score:              c.Score,
			Answer:             answer,
			OffsetAnswerStart:  c.OffsetStart,
			OffsetAnswerEnd:    c.OffsetEnd,
			Context:            c.ContextWindow,
			OffsetContextStart: c.WindowStart,
			OffsetContextEnd:   c.WindowEnd,
			DocumentID:         p.ID,
		})
	}
	return answers
}

// ToJSON implements Serializer.
func (p *PredictionSet) ToJSON(squad bool) ([]byte, error) {
	return MarshalNoEscape(p.Document(squad))
}

// ToSQuADEval is shorthand for the SQuAD-compatible shape.
func (p *PredictionSet) ToSQuADEval() ([]byte, error) {
	return p.ToJSON(true)
}
