// SPDX-License-Identifier: Apache-2.0

package qa

import (
	"fmt"
	"strings"
)

// Answer type tags carried by a Candidate. A span answer is extracted from
// the passage text; yes/no answers come from a separate classification head.
const (
	AnswerTypeSpan = "span"
	AnswerTypeYes  = "yes"
	AnswerTypeNo   = "no"

	// NoAnswer is the sentinel answer string used internally for candidates
	// without an extractable span. SQuAD output replaces it with "".
	NoAnswer = "no_answer"
)

// Offset units for a Candidate's span.
const (
	UnitToken = "token"
	UnitChar  = "char"
)

// Aggregation levels: offsets are passage-relative until a document-level
// rollup relabels them.
const (
	LevelPassage  = "passage"
	LevelDocument = "document"
)

// Candidate is one scored answer hypothesis for a (question, passage) pair.
// It is created with a token-indexed span straight from the model head and
// mutated in place by SetAnswer, SetContextWindow, ApplyClass and ToDocLevel.
// After derivation it is read-only and exclusively owned by its PredictionSet.
type Candidate struct {
	AnswerType  string
	Score       float64
	Probability float64
	Confidence  float64

	// Answer is the derived span text, NoAnswer, or "yes"/"no" after a
	// classification override.
	Answer string

	// OffsetStart/OffsetEnd are indices into the token-offset table while
	// OffsetUnit is UnitToken, and a half-open character range into the
	// passage text once SetAnswer has run. The no-answer sentinel is
	// (-1,-1) in token units and (0,0) in char units.
	OffsetStart int
	OffsetEnd   int
	OffsetUnit  string

	// AnswerSupport holds the demoted span answer after ApplyClass fired.
	AnswerSupport string
	SupportStart  int
	SupportEnd    int

	ContextWindow string
	WindowStart   int
	WindowEnd     int

	AggregationLevel string

	PassageID      string
	NPassagesInDoc int
}

// NewCandidate builds a candidate from raw model output. The span is
// token-indexed, inclusive on both ends, and passage-relative.
func NewCandidate(answerType string, score float64, startToken, endToken int) *Candidate {
	return &Candidate{
		AnswerType:       answerType,
		Score:            score,
		OffsetStart:      startToken,
		OffsetEnd:        endToken,
		OffsetUnit:       UnitToken,
		AggregationLevel: LevelPassage,
	}
}

// SetAnswer converts the stored token span into a half-open character span
// and the answer string. tokenOffsets holds the start character index of
// each token; text is the passage the span points into. Inconsistencies are
// reported as diagnostics rather than errors; the candidate always ends up
// with a best-effort answer.
func (c *Candidate) SetAnswer(tokenOffsets []int, text string) []Diagnostic {
	var diags []Diagnostic

	if c.OffsetUnit != UnitToken {
		diags = append(diags, Diagnostic{
			Code:    CodeOffsetUnit,
			Message: fmt.Sprintf("offset unit must be %q before answer derivation, got %q", UnitToken, c.OffsetUnit),
		})
	}

	answer, startCh, endCh := c.spanToString(tokenOffsets, text)

	c.OffsetStart = startCh
	c.OffsetEnd = endCh
	c.OffsetUnit = UnitChar

	if answer == "" {
		c.Answer = NoAnswer
		if c.OffsetStart != 0 || c.OffsetEnd != 0 {
			diags = append(diags, Diagnostic{
				Code:    CodeNoAnswerOffsets,
				Message: fmt.Sprintf("no-answer candidate with non-zero offsets (%d, %d)", c.OffsetStart, c.OffsetEnd),
			})
		}
		return diags
	}

	c.Answer = answer
	// Kept permissive on purpose: downstream golden outputs contain these
	// spans as-is, so they are surfaced but not corrected.
	if c.OffsetEnd-c.OffsetStart <= 0 {
		diags = append(diags, Diagnostic{
			Code:    CodeInvertedSpan,
			Message: fmt.Sprintf("end offset does not come after start offset (%d, %d) with a span answer", c.OffsetStart, c.OffsetEnd),
		})
	} else if c.OffsetEnd <= 0 {
		diags = append(diags, Diagnostic{
			Code:    CodeInvalidEnd,
			Message: fmt.Sprintf("invalid end offset (%d, %d) with a span answer", c.OffsetStart, c.OffsetEnd),
		})
	}
	return diags
}

// spanToString resolves the token span against the offset table. A (-1,-1)
// span is the no-answer prediction and maps to ("", 0, 0). A span landing on
// the trailing special token of a passage has no offset entry of its own and
// is read as stretching to the end of the text.
func (c *Candidate) spanToString(tokenOffsets []int, text string) (string, int, int) {
	startT := c.OffsetStart
	endT := c.OffsetEnd

	if startT == -1 && endT == -1 {
		return "", 0, 0
	}

	nTokens := len(tokenOffsets)

	// Point at the first token after the span instead of the last token in it.
	endT++
	if endT > nTokens {
		endT = nTokens
	}

	startCh := tokenOffsets[startT]
	var endCh int
	if endT == nTokens {
		endCh = len(text)
	} else {
		endCh = tokenOffsets[endT]
	}

	var answer string
	if endCh > startCh {
		answer = strings.TrimSpace(text[startCh:endCh])
	}
	// Keep the offsets tight around the trimmed text.
	endCh = startCh + len(answer)

	return answer, startCh, endCh
}

// SetContextWindow extracts a display window from text around the answer
// span. The window is at least one character longer than the answer; when it
// would run past either end of the text, the lost characters are given back
// on the opposite side. Recomputing with the same inputs yields the same
// window.
func (c *Candidate) SetContextWindow(size int, text string) {
	window, startCh, endCh := c.contextWindow(size, text)
	c.ContextWindow = window
	c.WindowStart = startCh
	c.WindowEnd = endCh
}

func (c *Candidate) contextWindow(size int, text string) (string, int, int) {
	if c.OffsetStart == 0 && c.OffsetEnd == 0 {
		return "", 0, 0
	}

	ansLen := c.OffsetEnd - c.OffsetStart
	if size < ansLen+1 {
		size = ansLen + 1
	}

	lenText := len(text)
	midpoint := c.OffsetStart + ansLen/2
	half := size / 2
	startCh := midpoint - half
	endCh := midpoint + half

	overhangStart := max(0, -startCh)
	overhangEnd := max(0, endCh-lenText)
	startCh -= overhangEnd
	startCh = max(0, startCh)
	endCh += overhangStart
	endCh = min(lenText, endCh)

	return text[startCh:endCh], startCh, endCh
}

// ApplyClass reconciles the span prediction with the classification head.
// A yes/no class demotes the current span answer to answer support; the span
// answer keeps precedence over a no-answer classification, and a candidate
// that is already no-answer is left alone. One-way, never re-entrant.
func (c *Candidate) ApplyClass(predictedClass string) {
	if (predictedClass == AnswerTypeYes || predictedClass == AnswerTypeNo) && c.Answer != NoAnswer {
		c.AnswerSupport = c.Answer
		c.SupportStart = c.OffsetStart
		c.SupportEnd = c.OffsetEnd
		c.Answer = predictedClass
		c.AnswerType = predictedClass
	}
}

// ToDocLevel overwrites the span offsets with document-relative values and
// relabels the aggregation level. Answer text and context window are left as
// computed at passage level; the caller owns offset-mapping correctness.
func (c *Candidate) ToDocLevel(start, end int) {
	c.OffsetStart = start
	c.OffsetEnd = end
	c.AggregationLevel = LevelDocument
}

// Row is the flat projection of a candidate for tabular consumers.
type Row struct {
	Answer    string
	Start     int
	End       int
	Score     float64
	PassageID string
}

func (c *Candidate) Row() Row {
	return Row{
		Answer:    c.Answer,
		Start:     c.OffsetStart,
		End:       c.OffsetEnd,
		Score:     c.Score,
		PassageID: c.PassageID,
	}
}
