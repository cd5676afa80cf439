// Package decode parses NDJSON-encoded log events into the model used
// by the formatter.
package decode

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/valyala/fastjson"

	"github.com/lokiship/lokiship/internal/model"
)

// Input field names with dedicated meaning; everything else becomes an
// event property.
const (
	fieldTimestamp = "timestamp"
	fieldLevel     = "level"
	fieldMessage   = "message"
	fieldMsg       = "msg"
	fieldException = "exception"
)

const maxLineBytes = 1 << 20

// Decoder turns NDJSON lines into events. The zero value is not
// usable; construct with New.
type Decoder struct {
	pool fastjson.ParserPool
	now  func() time.Time
}

// New creates a Decoder. Events without a usable timestamp are stamped
// with the current time.
func New() *Decoder {
	return &Decoder{now: time.Now}
}

// DecodeLine parses one JSON object into an event.
func (d *Decoder) DecodeLine(line []byte) (model.Event, error) {
	p := d.pool.Get()
	defer d.pool.Put(p)

	v, err := p.ParseBytes(line)
	if err != nil {
		return model.Event{}, fmt.Errorf("parse event: %w", err)
	}
	obj, err := v.Object()
	if err != nil {
		return model.Event{}, fmt.Errorf("parse event: %w", err)
	}

	e := model.Event{
		Timestamp: d.timestamp(v),
		Level:     model.ParseLevel(string(v.GetStringBytes(fieldLevel))),
		Message:   string(v.GetStringBytes(fieldMessage)),
		Exception: parseException(v.Get(fieldException)),
	}
	if e.Message == "" {
		e.Message = string(v.GetStringBytes(fieldMsg))
	}

	obj.Visit(func(key []byte, pv *fastjson.Value) {
		switch string(key) {
		case fieldTimestamp, fieldLevel, fieldMessage, fieldMsg, fieldException:
			return
		}
		e.Properties = append(e.Properties, model.Property{
			Name:  string(key),
			Value: scalar(pv),
		})
	})
	return e, nil
}

// Decode reads all events from r, one JSON object per line. Blank
// lines are skipped; a malformed line fails the whole read.
func (d *Decoder) Decode(r io.Reader) ([]model.Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var events []model.Event
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		e, err := d.DecodeLine(line)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// timestamp extracts the event timestamp: unix nanoseconds as a
// number, or an RFC3339 string, falling back to the current time.
func (d *Decoder) timestamp(v *fastjson.Value) time.Time {
	tv := v.Get(fieldTimestamp)
	if tv == nil {
		return d.now()
	}
	switch tv.Type() {
	case fastjson.TypeNumber:
		if ns, err := tv.Int64(); err == nil && ns > 0 {
			return time.Unix(0, ns)
		}
	case fastjson.TypeString:
		if b, err := tv.StringBytes(); err == nil {
			if t, err := time.Parse(time.RFC3339Nano, string(b)); err == nil {
				return t
			}
		}
	}
	return d.now()
}

// parseException reads a {"message","trace","cause"} object chain.
func parseException(v *fastjson.Value) *model.ExceptionInfo {
	if v == nil || v.Type() != fastjson.TypeObject {
		return nil
	}
	return &model.ExceptionInfo{
		Message: string(v.GetStringBytes("message")),
		Trace:   string(v.GetStringBytes("trace")),
		Cause:   parseException(v.Get("cause")),
	}
}

// scalar converts a fastjson value into the property scalar carried on
// the event. Non-scalar values keep their raw JSON representation.
func scalar(v *fastjson.Value) interface{} {
	switch v.Type() {
	case fastjson.TypeString:
		b, _ := v.StringBytes()
		return string(b)
	case fastjson.TypeNumber:
		if n, err := v.Int64(); err == nil {
			return n
		}
		f, _ := v.Float64()
		return f
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	case fastjson.TypeNull:
		return nil
	default:
		return v.String()
	}
}
