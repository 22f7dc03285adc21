package metrics

import (
	"fmt"
	"io"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// ParseExposition decodes a Prometheus text exposition from r into samples
// stamped with at. Counter, gauge, and untyped series become one sample each;
// histogram and summary series are skipped (the evaluator compares scalar
// values only). Labels are carried over as tags.
func ParseExposition(r io.Reader, at time.Time) ([]Metric, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	// A non-empty result with a non-nil err is a partial parse (trailing
	// lines, format warnings). Keep what was decoded.

	var out []Metric
	for name, mf := range mfs {
		for _, m := range mf.GetMetric() {
			v, ok := scalarValue(m)
			if !ok {
				continue
			}
			sample := Metric{
				Name:      name,
				Value:     v,
				Timestamp: at,
			}
			if len(m.GetLabel()) > 0 {
				sample.Tags = make(map[string]string, len(m.GetLabel()))
				for _, lp := range m.GetLabel() {
					sample.Tags[lp.GetName()] = lp.GetValue()
				}
			}
			out = append(out, sample)
		}
	}
	return out, nil
}

// scalarValue extracts the counter, gauge, or untyped value of one series.
func scalarValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue(), true
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	default:
		return 0, false
	}
}
