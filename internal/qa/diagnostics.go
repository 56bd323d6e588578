// SPDX-License-Identifier: Apache-2.0

package qa

import "go.uber.org/zap"

// Diagnostic codes for data anomalies found while deriving answers. These
// are never fatal: formatting proceeds with best-effort values and the
// anomaly is reported through a DiagnosticSink.
const (
	CodeOffsetUnit      = "offset_unit"
	CodeNoAnswerOffsets = "no_answer_offsets"
	CodeInvertedSpan    = "inverted_span"
	CodeInvalidEnd      = "invalid_end"
	CodeUnknownPassage  = "unknown_passage"
)

// Diagnostic describes one data anomaly.
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiagnosticSink receives anomalies as they are found. Implementations must
// not retain the right to fail the computation; a sink is observe-only.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// Collector is a DiagnosticSink that keeps everything it is given, in order.
// It is the default sink so callers (and tests) can inspect anomalies
// without capturing log output.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// ZapSink forwards diagnostics to a zap logger as structured warnings.
type ZapSink struct {
	log *zap.Logger
}

func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) Report(d Diagnostic) {
	s.log.Warn("prediction anomaly",
		zap.String("code", d.Code),
		zap.String("detail", d.Message),
	)
}

// TeeSink fans a diagnostic out to several sinks.
type TeeSink []DiagnosticSink

func (t TeeSink) Report(d Diagnostic) {
	for _, s := range t {
		s.Report(d)
	}
}
