package flights

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/skybot/internal/domain"
)

type Leg struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Duration      int    `json:"duration"`
	Aircraft      string `json:"aircraft,omitempty"`
	Mileage       int    `json:"mileage,omitempty"`
}

type FlightNumber struct {
	Carrier string `json:"carrier"`
	Number  string `json:"number"`
}

type Segment struct {
	Cabin              string       `json:"cabin"`
	Duration           int          `json:"duration"`
	BookingCode        string       `json:"bookingCode"`
	BookingCodeCount   int          `json:"bookingCodeCount"`
	Flight             FlightNumber `json:"flight"`
	ConnectionDuration int          `json:"connectionDuration"`
	Legs               []Leg        `json:"legs"`
}

type Slice struct {
	Duration int       `json:"duration"`
	Segments []Segment `json:"segments"`
}

// Flight is one trip option. The fields after Slices are derived from the
// slices so that dialogue fields can address them with flat keys.
type Flight struct {
	Price         string  `json:"price"`
	TotalDuration int     `json:"totalDuration"`
	Slices        []Slice `json:"slices"`

	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	DepartureDate string   `json:"departureDate"`
	ArrivalDate   string   `json:"arrivalDate"`
	Carriers      []string `json:"carriers"`
	Cabins        []string `json:"cabins"`
	Stops         int      `json:"stops"`
	NonStop       string   `json:"nonstop"`
	Legs          int      `json:"legs"`
}

const dateLen = len("YYYY-MM-DD")

// Derive fills the flat summary fields from the slices.
func (f *Flight) Derive() {
	f.TotalDuration = 0
	for _, s := range f.Slices {
		f.TotalDuration += s.Duration
	}
	if len(f.Slices) == 0 {
		return
	}

	f.Origin = firstLeg(f.Slices[0]).Origin
	f.Destination = f.tripDestination()
	f.DepartureDate = datePart(firstLeg(f.Slices[0]).DepartureTime)
	f.ArrivalDate = datePart(lastLeg(f.Slices[len(f.Slices)-1]).ArrivalTime)
	f.Carriers = f.carriers()
	f.Cabins = f.cabins()
	f.Stops = len(f.intermediateStops())

	f.Legs = 0
	nonstop := true
	for _, s := range f.Slices {
		n := 0
		for _, seg := range s.Segments {
			n += len(seg.Legs)
		}
		f.Legs += n
		if n != 1 {
			nonstop = false
		}
	}
	f.NonStop = "no"
	if nonstop {
		f.NonStop = "yes"
	}
}

// tripDestination is the far end of the trip: for a return trip that is the
// end of the outbound slice.
func (f *Flight) tripDestination() string {
	origin := firstLeg(f.Slices[0]).Origin
	if len(f.Slices) == 2 {
		d := lastLeg(f.Slices[1]).Destination
		if d != origin {
			return d
		}
	}
	return lastLeg(f.Slices[0]).Destination
}

func (f *Flight) intermediateStops() []string {
	set := make(map[string]bool)
	for _, s := range f.Slices {
		for _, seg := range s.Segments {
			for _, l := range seg.Legs {
				if l.Origin != f.Origin && l.Origin != f.Destination {
					set[l.Origin] = true
				}
				if l.Destination != f.Destination && l.Destination != f.Origin {
					set[l.Destination] = true
				}
			}
		}
	}
	return sortedKeys(set)
}

func (f *Flight) carriers() []string {
	set := make(map[string]bool)
	for _, s := range f.Slices {
		for _, seg := range s.Segments {
			if seg.Flight.Carrier != "" {
				set[seg.Flight.Carrier] = true
			}
		}
	}
	return sortedKeys(set)
}

func (f *Flight) cabins() []string {
	set := make(map[string]bool)
	for _, s := range f.Slices {
		for _, seg := range s.Segments {
			if seg.Cabin != "" {
				set[seg.Cabin] = true
			}
		}
	}
	return sortedKeys(set)
}

// Record encodes the flight as a dialogue record.
func (f Flight) Record() (domain.Record, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("encode flight: %w", err)
	}
	return domain.Record(b), nil
}

// FromRecord decodes a record produced by Record.
func FromRecord(r domain.Record) (Flight, error) {
	var f Flight
	if err := json.Unmarshal(r, &f); err != nil {
		return Flight{}, fmt.Errorf("decode flight: %w", err)
	}
	return f, nil
}

func firstLeg(s Slice) Leg {
	if len(s.Segments) == 0 || len(s.Segments[0].Legs) == 0 {
		return Leg{}
	}
	return s.Segments[0].Legs[0]
}

func lastLeg(s Slice) Leg {
	if len(s.Segments) == 0 {
		return Leg{}
	}
	legs := s.Segments[len(s.Segments)-1].Legs
	if len(legs) == 0 {
		return Leg{}
	}
	return legs[len(legs)-1]
}

func datePart(ts string) string {
	if len(ts) < dateLen {
		return ts
	}
	return ts[:dateLen]
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stringify renders a one-line summary of a flight.
func Stringify(f Flight) string {
	if len(f.Slices) == 0 {
		return "Unknown trip for " + formatPrice(f.Price)
	}

	var b strings.Builder
	if len(f.Slices) == 2 {
		fmt.Fprintf(&b, "Return Trip from %s to %s", f.Origin, f.Destination)
	} else {
		fmt.Fprintf(&b, "%d-Way Trip from %s to %s", len(f.Slices), f.Origin, f.Destination)
	}

	if stops := f.intermediateStops(); len(stops) > 0 {
		b.WriteString(" over " + joinList(stops))
	}

	departure := strings.Replace(firstLeg(f.Slices[0]).DepartureTime, "T", " ", 1)
	arrival := strings.Replace(lastLeg(f.Slices[len(f.Slices)-1]).ArrivalTime, "T", " ", 1)
	if len(departure) > dateLen && len(arrival) > dateLen && departure[:dateLen] == arrival[:dateLen] {
		arrival = "the same day at " + arrival[dateLen+1:]
	}
	fmt.Fprintf(&b, " departing on %s and arriving on %s", departure, arrival)

	if carriers := f.carriers(); len(carriers) > 0 {
		b.WriteString(" with " + joinList(carriers))
	}
	b.WriteString(" for " + formatPrice(f.Price))
	return b.String()
}

func formatPrice(p string) string {
	return strings.Replace(p, "USD", "$ ", 1)
}

// joinList joins words as "a, b and c".
func joinList(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}
