// Package gpx encodes and decodes GPX 1.1 track files.
//
// The encoder writes a fixed document shape: one metadata block, standalone
// wpt entries, then a single trk with one trkseg. The decoder is deliberately
// forgiving and accepts anything vaguely GPX-shaped: unknown elements are
// skipped, malformed coordinates fall back to 0.0, and timestamps are parsed
// against several common layouts.
package gpx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"rutago/pkg/model"
)

// Creator is the creator attribute stamped on every exported document.
const Creator = "rutago"

const timeLayout = "2006-01-02T15:04:05Z"

// Timestamp layouts accepted on decode, tried in order. The first two are
// plain UTC (with and without milliseconds), the last two carry an explicit
// numeric offset.
var decodeLayouts = []string{
	timeLayout,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05.000Z07:00",
}

// Encode renders a route with its points and waypoints as a GPX 1.1 document.
// A blank route name falls back to "Ruta". The metadata time element is only
// present when the route has at least one point.
func Encode(route *model.Route, points []model.TrackPoint, waypoints []model.Waypoint) string {
	name := route.Name
	if strings.TrimSpace(name) == "" {
		name = "Ruta"
	}
	name = escapeXML(name)

	var sb strings.Builder
	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&sb, "<gpx version=\"1.1\" creator=%q xmlns=\"http://www.topografix.com/GPX/1/1\">\n", Creator)

	if len(points) > 0 {
		fmt.Fprintf(&sb, "<metadata><name>%s</name><time>%s</time></metadata>\n",
			name, formatTime(points[0].Timestamp))
	} else {
		fmt.Fprintf(&sb, "<metadata><name>%s</name></metadata>\n", name)
	}

	for i, wp := range waypoints {
		wpName := wp.Description
		if strings.TrimSpace(wpName) == "" {
			wpName = fmt.Sprintf("Waypoint %d", i+1)
		}
		fmt.Fprintf(&sb, "<wpt lat=%q lon=%q><name>%s</name>",
			formatCoord(wp.Lat), formatCoord(wp.Lng), escapeXML(wpName))
		if strings.TrimSpace(wp.Description) != "" {
			fmt.Fprintf(&sb, "<desc>%s</desc>", escapeXML(wp.Description))
		}
		sb.WriteString("</wpt>\n")
	}

	fmt.Fprintf(&sb, "<trk><name>%s</name><trkseg>\n", name)
	for _, p := range points {
		fmt.Fprintf(&sb, "<trkpt lat=%q lon=%q><time>%s</time></trkpt>\n",
			formatCoord(p.Lat), formatCoord(p.Lng), formatTime(p.Timestamp))
	}
	sb.WriteString("</trkseg></trk>\n</gpx>")
	return sb.String()
}

// Decode parses a GPX document into its route name, track points and
// waypoints. Track points whose lat and lon are both exactly 0.0 are
// discarded as degenerate. Waypoint descriptions fall back to the waypoint
// name, then to "Waypoint". The route name is taken from the first non-blank
// metadata or trk name element.
func Decode(r io.Reader) (*model.ParsedGpx, error) {
	dec := xml.NewDecoder(r)

	var parsed model.ParsedGpx

	var inMetadata, inTrk, inTrkpt, inWpt bool
	var curLat, curLng float64
	var curTS *int64
	var curWptName, curWptDesc *string

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gpx: malformed document: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "metadata":
				inMetadata = true
			case "trk":
				inTrk = true
			case "trkpt":
				inTrkpt = true
				curLat = attrFloat(el, "lat")
				curLng = attrFloat(el, "lon")
				curTS = nil
			case "wpt":
				inWpt = true
				curLat = attrFloat(el, "lat")
				curLng = attrFloat(el, "lon")
				curWptName = nil
				curWptDesc = nil
			case "name":
				text, err := elementText(dec, el)
				if err != nil {
					return nil, err
				}
				if inWpt {
					curWptName = &text
				} else if parsed.Name == "" && (inMetadata || inTrk) {
					parsed.Name = text
				}
			case "desc":
				text, err := elementText(dec, el)
				if err != nil {
					return nil, err
				}
				if inWpt {
					curWptDesc = &text
				}
			case "time":
				text, err := elementText(dec, el)
				if err != nil {
					return nil, err
				}
				if inTrkpt {
					curTS = parseTimestamp(text)
				}
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "metadata":
				inMetadata = false
			case "trk":
				inTrk = false
			case "trkpt":
				if curLat != 0.0 || curLng != 0.0 {
					parsed.Points = append(parsed.Points, model.ParsedPoint{
						Lat:         curLat,
						Lng:         curLng,
						TimestampMs: curTS,
					})
				}
				inTrkpt = false
			case "wpt":
				desc := "Waypoint"
				if curWptDesc != nil {
					desc = *curWptDesc
				} else if curWptName != nil {
					desc = *curWptName
				}
				parsed.Waypoints = append(parsed.Waypoints, model.ParsedWaypoint{
					Lat:         curLat,
					Lng:         curLng,
					Description: desc,
				})
				inWpt = false
			}
		}
	}

	return &parsed, nil
}

func formatTime(epochMs int64) string {
	return time.UnixMilli(epochMs).UTC().Format(timeLayout)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func attrFloat(el xml.StartElement, name string) float64 {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
			if err != nil {
				return 0.0
			}
			return v
		}
	}
	return 0.0
}

// elementText consumes the element's character data up to its end tag.
func elementText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var s string
	if err := dec.DecodeElement(&s, &start); err != nil {
		return "", fmt.Errorf("gpx: reading <%s>: %w", start.Name.Local, err)
	}
	return strings.TrimSpace(s), nil
}

// parseTimestamp converts a GPX time string to epoch milliseconds, trying
// each accepted layout in turn. Returns nil when no layout matches.
func parseTimestamp(raw string) *int64 {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	for _, layout := range decodeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			ms := t.UnixMilli()
			return &ms
		}
	}
	return nil
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
