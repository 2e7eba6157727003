package scrape

import (
	"encoding/json"
	"testing"
)

func TestEventJSONShapes(t *testing.T) {
	cases := []struct {
		ev   Event
		want string
	}{
		{
			ATSStartEvent("Green House", 0, 9),
			`{"event":"ats_start","index":0,"origin":"Green House","total":9}`,
		},
		{
			PageFetchedEvent("Lever", 2, 17),
			`{"count":17,"event":"page_fetched","origin":"Lever","page":2}`,
		},
		{
			ATSCompleteEvent("Lever", 34, 1, 9),
			`{"count":34,"event":"ats_complete","index":1,"origin":"Lever","total":9}`,
		},
		{
			CompleteEvent(120, "output/jobs_go_any_2026-08-23.csv", map[string]int{"Lever": 120}),
			`{"event":"complete","file":"output/jobs_go_any_2026-08-23.csv","origins":{"Lever":120},"total_jobs":120}`,
		},
		{
			ErrorEvent("", "stream timeout"),
			`{"event":"error","message":"stream timeout"}`,
		},
		{
			ErrorEvent("ICIMS", "search failed"),
			`{"event":"error","message":"search failed","origin":"ICIMS"}`,
		},
	}

	for _, c := range cases {
		b, err := json.Marshal(c.ev)
		if err != nil {
			t.Fatalf("marshal %q: %v", c.ev.Type, err)
		}
		if string(b) != c.want {
			t.Fatalf("event %q:\nwant %s\ngot  %s", c.ev.Type, c.want, b)
		}
	}
}

func TestTerminalEvents(t *testing.T) {
	if !CompleteEvent(0, "", nil).Terminal() {
		t.Fatal("complete must be terminal")
	}
	if !ErrorEvent("", "x").Terminal() {
		t.Fatal("run-level error must be terminal")
	}
	if ErrorEvent("Workable", "search failed").Terminal() {
		t.Fatal("a platform-scoped error must not end the run's sequence")
	}
	if ATSStartEvent("Lever", 0, 9).Terminal() || PageFetchedEvent("Lever", 1, 1).Terminal() {
		t.Fatal("progress events must not be terminal")
	}
}
