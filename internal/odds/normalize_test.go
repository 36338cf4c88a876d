package odds

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"
	"time"
)

func makeEvent(id string, bookmakers int) Event {
	ev := Event{
		ID:           id,
		SportKey:     "soccer_epl",
		CommenceTime: time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC),
		HomeTeam:     "Arsenal",
		AwayTeam:     "Chelsea",
	}
	for i := 0; i < bookmakers; i++ {
		ev.Bookmakers = append(ev.Bookmakers, Bookmaker{
			Key:   fmt.Sprintf("book%d", i),
			Title: fmt.Sprintf("Book %d", i),
			Markets: []Market{{
				Key: "h2h",
				Outcomes: []Outcome{
					{Name: "Arsenal", Price: 1.8},
					{Name: "Chelsea", Price: 4.2},
					{Name: "Draw", Price: 3.5},
				},
			}},
		})
	}
	return ev
}

func TestNormalizeCapsMatchesAndQuotes(t *testing.T) {
	var events []Event
	for i := 0; i < 9; i++ {
		events = append(events, makeEvent(fmt.Sprintf("m%d", i), 6))
	}

	snaps := Normalize(events)
	if len(snaps) != maxMatches {
		t.Fatalf("expected %d snapshots, got %d", maxMatches, len(snaps))
	}
	for _, s := range snaps {
		if len(s.Quotes) != maxQuotes {
			t.Errorf("expected %d quotes for %s, got %d", maxQuotes, s.MatchID, len(s.Quotes))
		}
	}
	// Provider order preserved.
	if snaps[0].MatchID != "m0" || snaps[4].MatchID != "m4" {
		t.Errorf("expected provider order preserved, got %s..%s", snaps[0].MatchID, snaps[4].MatchID)
	}
	if snaps[0].Quotes[0].Bookmaker != "Book 0" {
		t.Errorf("expected first bookmaker 'Book 0', got %q", snaps[0].Quotes[0].Bookmaker)
	}
}

func TestNormalizeMissingOutcomeIsNA(t *testing.T) {
	ev := makeEvent("m1", 1)
	// Drop the draw outcome.
	ev.Bookmakers[0].Markets[0].Outcomes = []Outcome{
		{Name: "Arsenal", Price: 1.8},
		{Name: "Chelsea", Price: 4.2},
	}

	snaps := Normalize([]Event{ev})
	q := snaps[0].Quotes[0]
	if !q.Home.Known || q.Home.Value != 1.8 {
		t.Errorf("expected known home price 1.8, got %+v", q.Home)
	}
	if q.Draw.Known {
		t.Errorf("expected unknown draw price, got %+v", q.Draw)
	}

	data, err := json.Marshal(q)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["draw"] != "N/A" {
		t.Errorf(`expected draw "N/A", got %v`, raw["draw"])
	}
	if raw["home"] != 1.8 {
		t.Errorf("expected home 1.8, got %v", raw["home"])
	}
	if _, ok := raw["away"]; !ok {
		t.Error("away field must always be present")
	}
}

func TestPriceRoundTrip(t *testing.T) {
	for _, p := range []Price{KnownPrice(2.35), {}} {
		data, err := json.Marshal(p)
		if err != nil {
			t.Fatal(err)
		}
		var back Price
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatal(err)
		}
		if back != p {
			t.Errorf("round trip changed price: %+v != %+v", back, p)
		}
	}
}

func TestShapeIdempotent(t *testing.T) {
	var events []Event
	for i := 0; i < 8; i++ {
		events = append(events, makeEvent(fmt.Sprintf("m%d", i), 5))
	}

	once := Normalize(events)
	twice := Shape(once)
	if !reflect.DeepEqual(once, twice) {
		t.Error("shaping an already-normalized sequence must be a no-op")
	}
}

func TestNormalizeNonH2HMarketIgnored(t *testing.T) {
	ev := makeEvent("m1", 1)
	ev.Bookmakers[0].Markets = append(ev.Bookmakers[0].Markets, Market{
		Key:      "totals",
		Outcomes: []Outcome{{Name: "Over", Price: 1.9}},
	})

	snaps := Normalize([]Event{ev})
	q := snaps[0].Quotes[0]
	if !q.Home.Known || !q.Draw.Known || !q.Away.Known {
		t.Errorf("h2h prices should survive extra markets: %+v", q)
	}
}
