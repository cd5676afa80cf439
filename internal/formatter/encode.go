package formatter

import (
	"strings"
	"time"

	"github.com/valyala/fastjson"

	"github.com/lokiship/lokiship/internal/model"
)

// Reserved line-object field names. A property whose name collides
// with one of these is renamed with a leading underscore instead of
// silently overwriting the synthesized field.
const (
	fieldMessage   = "message"
	fieldTimestamp = "timestamp"
	fieldException = "exception"
)

// maxExceptionDepth bounds cause-chain traversal. The input is
// assumed acyclic, but a corrupted chain must not loop the encoder.
const maxExceptionDepth = 64

// encodeLine renders one event into its compact line-object JSON,
// appending to dst. Values created on the arena are only valid until
// the caller resets it.
func (f *Formatter) encodeLine(a *fastjson.Arena, dst []byte, e model.Event) []byte {
	obj := a.NewObject()
	obj.Set(fieldMessage, a.NewString(Cleanse(e.Message)))
	for _, p := range e.Properties {
		name := p.Name
		switch name {
		case fieldMessage, fieldTimestamp, fieldException:
			name = "_" + name
		}
		obj.Set(name, a.NewString(Cleanse(model.PropertyString(p.Value))))
	}
	if !f.opts.PreserveTimestamps {
		// Informational only; the wire-level timestamp is the
		// batch-wide override.
		obj.Set(fieldTimestamp, a.NewString(e.Timestamp.UTC().Format(time.RFC3339Nano)))
	}
	if e.Exception != nil {
		obj.Set(fieldException, a.NewString(renderException(e.Exception)))
	}
	return obj.MarshalTo(dst)
}

// renderException flattens the cause chain outer-to-innermost, each
// link's message followed by its trace, one per line. A visited set
// and a depth bound guard against cyclic chains.
func renderException(ex *model.ExceptionInfo) string {
	var b strings.Builder
	seen := make(map[*model.ExceptionInfo]struct{})
	for depth := 0; ex != nil && depth < maxExceptionDepth; depth++ {
		if _, ok := seen[ex]; ok {
			break
		}
		seen[ex] = struct{}{}
		b.WriteString(Cleanse(ex.Message))
		b.WriteByte('\n')
		b.WriteString(Cleanse(ex.Trace))
		b.WriteByte('\n')
		ex = ex.Cause
	}
	return b.String()
}
