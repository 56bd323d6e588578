// SPDX-License-Identifier: Apache-2.0

package qa

import "fmt"

// AggregateToDocument relabels every candidate with document-relative
// offsets. passageStarts maps each passage id to the character position at
// which that passage begins in the assembled document text. No-answer
// candidates keep their (0,0) sentinel. Candidates whose passage id is
// missing from the table are reported as an anomaly and left untouched, at
// passage level.
//
// Answer text and context windows stay as computed at passage level; this is
// a relabeling step, not a recomputation.
func (p *PredictionSet) AggregateToDocument(passageStarts map[string]int, sink DiagnosticSink) {
	for _, c := range p.Candidates {
		if c.Answer == NoAnswer && c.OffsetStart == 0 && c.OffsetEnd == 0 {
			c.ToDocLevel(0, 0)
			continue
		}
		base, ok := passageStarts[c.PassageID]
		if !ok {
			p.report([]Diagnostic{{
				Code:    CodeUnknownPassage,
				Message: fmt.Sprintf("passage %q has no document start offset; keeping passage-relative span", c.PassageID),
			}}, sink)
			continue
		}
		c.ToDocLevel(c.OffsetStart+base, c.OffsetEnd+base)
	}
	p.AggregationLevel = LevelDocument
}
