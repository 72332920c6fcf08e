package sources

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// errNoSchema means the page carries no decodable event schema block;
// callers fall back to heuristic DOM extraction.
var errNoSchema = errors.New("sources: no event schema block")

// schemaEvent is the typed shape of a schema.org Event JSON-LD block.
// Decoding is strict-into-typed rather than ad-hoc field probing: either
// the block decodes into this record, or the caller takes the heuristic
// path.
type schemaEvent struct {
	Type        string    `json:"@type"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   string    `json:"startDate"`
	EndDate     string    `json:"endDate"`
	URL         string    `json:"url"`
	Image       jsonImage `json:"image"`
	Location    struct {
		Name    string      `json:"name"`
		Address jsonAddress `json:"address"`
	} `json:"location"`
	Offers jsonOffers `json:"offers"`
}

// jsonImage tolerates both a bare URL string and an ImageObject.
type jsonImage struct {
	URL string
}

func (i *jsonImage) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.URL = s
		return nil
	}
	var obj struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		i.URL = obj.URL
		return nil
	}
	var list []json.RawMessage
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return i.UnmarshalJSON(list[0])
	}
	return nil // unknown image shape is not fatal
}

// jsonAddress tolerates both a plain string and a PostalAddress object.
type jsonAddress struct {
	Street string
	Suburb string
}

func (a *jsonAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		a.Street = s
		return nil
	}
	var obj struct {
		StreetAddress   string `json:"streetAddress"`
		AddressLocality string `json:"addressLocality"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		a.Street = obj.StreetAddress
		a.Suburb = obj.AddressLocality
		return nil
	}
	return nil
}

// jsonOffers tolerates a single offer object or a list of them.
type jsonOffers struct {
	LowPrice  *float64
	HighPrice *float64
	Free      bool
}

func (o *jsonOffers) UnmarshalJSON(data []byte) error {
	type offer struct {
		Price     json.RawMessage `json:"price"`
		LowPrice  json.RawMessage `json:"lowPrice"`
		HighPrice json.RawMessage `json:"highPrice"`
	}

	var offers []offer
	var single offer
	if err := json.Unmarshal(data, &single); err == nil {
		offers = []offer{single}
	} else if err := json.Unmarshal(data, &offers); err != nil {
		return nil
	}

	for _, of := range offers {
		for _, raw := range []struct {
			data json.RawMessage
			dst  **float64
		}{
			{of.LowPrice, &o.LowPrice},
			{of.Price, &o.LowPrice},
			{of.HighPrice, &o.HighPrice},
		} {
			if v, ok := parsePriceValue(raw.data); ok {
				if *raw.dst == nil {
					*raw.dst = &v
				}
			}
		}
	}

	if o.LowPrice != nil && *o.LowPrice == 0 && (o.HighPrice == nil || *o.HighPrice == 0) {
		o.Free = true
		o.LowPrice = nil
		o.HighPrice = nil
	}
	return nil
}

// parsePriceValue accepts a JSON number or a numeric string.
func parsePriceValue(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// parseEventSchema finds the first ld+json block on the page that
// decodes to a schema.org Event with a name and parseable start date.
func parseEventSchema(doc *html.Node) (*schemaEvent, error) {
	blocks := findAll(doc, func(n *html.Node) bool {
		return isElement(n, "script") && attr(n, "type") == "application/ld+json"
	})

	for _, block := range blocks {
		if block.FirstChild == nil {
			continue
		}
		raw := block.FirstChild.Data

		var ev schemaEvent
		if err := json.Unmarshal([]byte(raw), &ev); err != nil {
			continue
		}
		if !isEventType(ev.Type) {
			// Some pages wrap the event in a @graph list; the top-level
			// decode succeeds on those but yields no event type.
			var graph struct {
				Graph []json.RawMessage `json:"@graph"`
			}
			if err := json.Unmarshal([]byte(raw), &graph); err != nil {
				continue
			}
			for _, item := range graph.Graph {
				var gev schemaEvent
				if err := json.Unmarshal(item, &gev); err == nil && isEventType(gev.Type) {
					ev = gev
					break
				}
			}
		}

		if !isEventType(ev.Type) || ev.Name == "" {
			continue
		}
		if _, err := parseSchemaDate(ev.StartDate); err != nil {
			continue
		}
		return &ev, nil
	}

	return nil, errNoSchema
}

func isEventType(t string) bool {
	switch t {
	case "Event", "MusicEvent", "TheaterEvent", "SportsEvent", "Festival", "ComedyEvent", "DanceEvent", "ChildrensEvent":
		return true
	}
	return false
}

// parseSchemaDate accepts the date layouts seen in the wild in ld+json.
func parseSchemaDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized date: " + s)
}
