// Package formatter converts a batch of structured log events into the
// JSON payload expected by the Loki push API: events are grouped into
// streams by label-set equality, ordered by timestamp within each
// stream, and encoded incrementally into a single compact document.
package formatter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"github.com/lokiship/lokiship/internal/model"
)

// Options configure a Formatter.
type Options struct {
	// LabelNames are the event property names promoted to stream
	// labels. Including SeverityLabel adds the severity token.
	LabelNames []string
	// StaticLabels are attached to every stream verbatim.
	StaticLabels []Label
	// PreserveTimestamps keeps each event's own timestamp on the
	// wire. When false, every entry of a Format call shares one
	// override instant read from Now.
	PreserveTimestamps bool
	// Now supplies the override instant. Defaults to time.Now.
	Now func() time.Time
}

// Formatter is a pure, stateless transform; one instance is safe for
// concurrent Format calls because all buffers are call-scoped.
type Formatter struct {
	opts       Options
	labelNames map[string]bool
}

// New creates a Formatter from opts.
func New(opts Options) *Formatter {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	names := make(map[string]bool, len(opts.LabelNames))
	for _, n := range opts.LabelNames {
		names[n] = true
	}
	return &Formatter{opts: opts, labelNames: names}
}

var (
	// ErrNilBatch reports a nil event collection.
	ErrNilBatch = errors.New("formatter: nil event batch")
	// ErrNilSink reports a nil output sink.
	ErrNilSink = errors.New("formatter: nil output sink")
)

// Format encodes the batch and writes the complete payload to w in a
// single write. An empty batch is a valid no-op: nothing is written.
// The payload is fully buffered first, so a failure during encoding
// never exposes a truncated document to the sink.
func (f *Formatter) Format(events []model.Event, w io.Writer) error {
	if events == nil {
		return ErrNilBatch
	}
	if w == nil {
		return ErrNilSink
	}
	if len(events) == 0 {
		return nil
	}

	// Single override instant, captured once per call.
	override := strconv.FormatInt(f.opts.Now().UnixNano(), 10)
	streams := f.groupStreams(events)

	var (
		out    bytes.Buffer
		arena  fastjson.Arena
		line   []byte // per-line scratch, reset before each line
		quoted []byte
	)
	out.WriteString(`{"streams":[`)
	for i, st := range streams {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteString(`{"stream":{`)
		quoted = writeStreamLabels(&out, &arena, st.labels, quoted)
		out.WriteString(`},"values":[`)
		for j, e := range st.events {
			if j > 0 {
				out.WriteByte(',')
			}
			ts := override
			if f.opts.PreserveTimestamps {
				ts = strconv.FormatInt(e.Timestamp.UnixNano(), 10)
			}
			line = f.encodeLine(&arena, line[:0], e)
			out.WriteString(`["`)
			out.WriteString(ts)
			out.WriteString(`",`)
			// The line object is embedded as a JSON string
			// (double-encoded).
			quoted = arena.NewStringBytes(line).MarshalTo(quoted[:0])
			out.Write(quoted)
			out.WriteByte(']')
			arena.Reset()
		}
		out.WriteString(`]}`)
	}
	out.WriteString(`]}`)

	if _, err := w.Write(out.Bytes()); err != nil {
		return fmt.Errorf("write payload: %w", err)
	}
	return nil
}

// writeStreamLabels renders the label set as a JSON object. A JSON
// object cannot hold two same-named fields, so for duplicate names the
// first pair in label order wins.
func writeStreamLabels(out *bytes.Buffer, a *fastjson.Arena, ls LabelSet, scratch []byte) []byte {
	written := make(map[string]struct{}, len(ls))
	first := true
	for _, l := range ls {
		if _, ok := written[l.Name]; ok {
			continue
		}
		written[l.Name] = struct{}{}
		if !first {
			out.WriteByte(',')
		}
		first = false
		scratch = a.NewString(l.Name).MarshalTo(scratch[:0])
		out.Write(scratch)
		out.WriteByte(':')
		scratch = a.NewString(l.Value).MarshalTo(scratch[:0])
		out.Write(scratch)
	}
	return scratch
}
