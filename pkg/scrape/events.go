package scrape

import "encoding/json"

// EventType tags a progress event.
type EventType string

const (
	EventATSStart    EventType = "ats_start"
	EventPageFetched EventType = "page_fetched"
	EventATSComplete EventType = "ats_complete"
	EventComplete    EventType = "complete"
	EventError       EventType = "error"
)

// Event is one record in a run's progress log. Only the fields relevant
// to its type are populated; MarshalJSON emits the flat object shape that
// stream consumers expect.
type Event struct {
	Type      EventType
	Origin    string
	Index     int
	Total     int
	Page      int
	Count     int
	TotalJobs int
	File      string
	Origins   map[string]int
	Message   string
}

func ATSStartEvent(origin string, index, total int) Event {
	return Event{Type: EventATSStart, Origin: origin, Index: index, Total: total}
}

func PageFetchedEvent(origin string, page, count int) Event {
	return Event{Type: EventPageFetched, Origin: origin, Page: page, Count: count}
}

func ATSCompleteEvent(origin string, count, index, total int) Event {
	return Event{Type: EventATSComplete, Origin: origin, Count: count, Index: index, Total: total}
}

func CompleteEvent(totalJobs int, file string, origins map[string]int) Event {
	return Event{Type: EventComplete, TotalJobs: totalJobs, File: file, Origins: origins}
}

func ErrorEvent(origin, message string) Event {
	return Event{Type: EventError, Origin: origin, Message: message}
}

// Terminal reports whether the event ends a run's sequence. An Error
// scoped to a platform (Origin set) is progress, not termination: the run
// carries on with the remaining platforms and still reaches Complete.
// Only Complete and the run-level Error (empty Origin) end the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || (e.Type == EventError && e.Origin == "")
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := map[string]any{"event": string(e.Type)}
	switch e.Type {
	case EventATSStart:
		m["origin"] = e.Origin
		m["index"] = e.Index
		m["total"] = e.Total
	case EventPageFetched:
		m["origin"] = e.Origin
		m["page"] = e.Page
		m["count"] = e.Count
	case EventATSComplete:
		m["origin"] = e.Origin
		m["count"] = e.Count
		m["index"] = e.Index
		m["total"] = e.Total
	case EventComplete:
		m["total_jobs"] = e.TotalJobs
		m["file"] = e.File
		if e.Origins != nil {
			m["origins"] = e.Origins
		}
	case EventError:
		if e.Origin != "" {
			m["origin"] = e.Origin
		}
		m["message"] = e.Message
	}
	return json.Marshal(m)
}
