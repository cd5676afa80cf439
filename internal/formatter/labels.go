package formatter

import (
	"sort"
	"strings"

	"github.com/lokiship/lokiship/internal/model"
)

// SeverityLabel is the reserved label name that, when configured,
// carries the event's severity token.
const SeverityLabel = "level"

// Label is a single (name, value) stream-label pair.
type Label struct {
	Name  string
	Value string
}

// LabelSet is an ordered collection of label pairs with set equality:
// two sets are equal iff they contain the same pairs, regardless of
// the order pairs were added. The set may hold two pairs sharing a
// name with differing values when label sources disagree.
type LabelSet []Label

// groupKey returns a canonical string key consistent with set
// equality: pairs are sorted by (name, value) before joining, so
// label sets holding the same pairs produce identical keys no matter
// the insertion order.
func (ls LabelSet) groupKey() string {
	sorted := make([]Label, len(ls))
	copy(sorted, ls)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return sorted[i].Value < sorted[j].Value
	})
	var b strings.Builder
	for _, l := range sorted {
		b.WriteString(l.Name)
		b.WriteByte(0x00)
		b.WriteString(l.Value)
		b.WriteByte(0x01)
	}
	return b.String()
}

// buildLabelSet derives the label set for one event: configured
// properties first, then the severity label when its reserved name is
// configured, then the static labels. Exact (name, value) duplicates
// collapse; same-named pairs with differing values are both kept.
func (f *Formatter) buildLabelSet(e model.Event) LabelSet {
	ls := make(LabelSet, 0, len(f.labelNames)+len(f.opts.StaticLabels)+1)
	seen := make(map[Label]struct{}, cap(ls))
	add := func(l Label) {
		if _, ok := seen[l]; ok {
			return
		}
		seen[l] = struct{}{}
		ls = append(ls, l)
	}
	for _, p := range e.Properties {
		if !f.labelNames[p.Name] {
			continue
		}
		add(Label{Name: p.Name, Value: Cleanse(model.PropertyString(p.Value))})
	}
	if f.labelNames[SeverityLabel] {
		add(Label{Name: SeverityLabel, Value: e.Level.LabelValue()})
	}
	for _, l := range f.opts.StaticLabels {
		add(l)
	}
	return ls
}
