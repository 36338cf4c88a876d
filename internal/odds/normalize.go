package odds

import (
	"encoding/json"
	"time"
)

// Output bounds. The normalized payload goes straight into model context,
// so it stays small no matter how much the provider returns.
const (
	maxMatches = 5
	maxQuotes  = 3
)

// Price is an outcome price that may be absent. It marshals to a JSON
// number when known and to the string "N/A" when the provider omitted the
// outcome, so consumers always see the field.
type Price struct {
	Value float64
	Known bool
}

func KnownPrice(v float64) Price { return Price{Value: v, Known: true} }

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return []byte(`"N/A"`), nil
	}
	return json.Marshal(p.Value)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	if string(data) == `"N/A"` {
		*p = Price{}
		return nil
	}
	p.Known = true
	return json.Unmarshal(data, &p.Value)
}

// Quote is one bookmaker's head-to-head prices for a match.
type Quote struct {
	Bookmaker string `json:"bookmaker"`
	Home      Price  `json:"home"`
	Draw      Price  `json:"draw"`
	Away      Price  `json:"away"`
}

// Snapshot is the compact, fixed-shape summary of one match that is fed to
// the model.
type Snapshot struct {
	MatchID      string    `json:"matchId"`
	HomeTeam     string    `json:"homeTeam"`
	AwayTeam     string    `json:"awayTeam"`
	CommenceTime time.Time `json:"commenceTime"`
	Quotes       []Quote   `json:"bookmakerQuotes"`
}

// Normalize shapes a raw provider payload into bounded snapshots: at most
// maxMatches matches with at most maxQuotes bookmaker quotes each, in
// provider order. It is pure and allocates its output.
func Normalize(events []Event) []Snapshot {
	snapshots := make([]Snapshot, 0, min(len(events), maxMatches))
	for _, ev := range events {
		snapshots = append(snapshots, Snapshot{
			MatchID:      ev.ID,
			HomeTeam:     ev.HomeTeam,
			AwayTeam:     ev.AwayTeam,
			CommenceTime: ev.CommenceTime,
			Quotes:       quotesFor(ev),
		})
	}
	return Shape(snapshots)
}

// Shape enforces the output bounds on a snapshot sequence. Applying it to
// already-shaped data is a no-op, which keeps Normalize stable under
// re-application.
func Shape(snapshots []Snapshot) []Snapshot {
	if len(snapshots) > maxMatches {
		snapshots = snapshots[:maxMatches]
	}
	shaped := make([]Snapshot, len(snapshots))
	for i, s := range snapshots {
		if len(s.Quotes) > maxQuotes {
			s.Quotes = s.Quotes[:maxQuotes]
		}
		shaped[i] = s
	}
	return shaped
}

func quotesFor(ev Event) []Quote {
	quotes := make([]Quote, 0, min(len(ev.Bookmakers), maxQuotes))
	for _, bk := range ev.Bookmakers {
		if len(quotes) == maxQuotes {
			break
		}
		q := Quote{Bookmaker: bk.Title}
		if q.Bookmaker == "" {
			q.Bookmaker = bk.Key
		}
		for _, m := range bk.Markets {
			if m.Key != "h2h" {
				continue
			}
			for _, o := range m.Outcomes {
				switch o.Name {
				case ev.HomeTeam:
					q.Home = KnownPrice(o.Price)
				case ev.AwayTeam:
					q.Away = KnownPrice(o.Price)
				case "Draw":
					q.Draw = KnownPrice(o.Price)
				}
			}
		}
		quotes = append(quotes, q)
	}
	return quotes
}
