package formatter

import (
	"sort"

	"github.com/lokiship/lokiship/internal/model"
)

// stream pairs one label set with the events that derived it. Every
// event of a batch belongs to exactly one stream.
type stream struct {
	labels LabelSet
	events []model.Event
}

// groupStreams partitions the batch by label-set equality. Streams
// come out in the order their label set was first encountered while
// scanning the input. Within a stream, events are sorted by timestamp
// with a stable sort, so ties keep their relative input order.
func (f *Formatter) groupStreams(events []model.Event) []*stream {
	index := make(map[string]int)
	var streams []*stream
	for _, e := range events {
		ls := f.buildLabelSet(e)
		key := ls.groupKey()
		i, ok := index[key]
		if !ok {
			i = len(streams)
			index[key] = i
			streams = append(streams, &stream{labels: ls})
		}
		streams[i].events = append(streams[i].events, e)
	}
	for _, st := range streams {
		sort.SliceStable(st.events, func(i, j int) bool {
			return st.events[i].Timestamp.Before(st.events[j].Timestamp)
		})
	}
	return streams
}
