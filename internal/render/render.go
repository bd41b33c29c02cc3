// Package render turns command payloads into presentation-neutral cards that
// chat adapters and the CLI can display.
package render

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yegors/hamsearch/internal/callook"
	"github.com/yegors/hamsearch/internal/lbstat"
	"github.com/yegors/hamsearch/internal/lookup"
)

// Colors used for card accents
const (
	ColorStation    = 0xFF4000
	ColorStats      = 0x2E86C1
	ColorDistance   = 0x28B463
	ColorConditions = 0xF1C40F
)

var printer = message.NewPrinter(language.English)

// Field is one labelled value on a card
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Card is a rendered command result
type Card struct {
	Title    string  `json:"title"`
	Color    int     `json:"color"`
	Fields   []Field `json:"fields,omitempty"`
	ImageURL string  `json:"image_url,omitempty"`
}

// FormatCount groups digits in threes from the right: 1234567 -> "1,234,567"
func FormatCount(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatCoordinate prints a decimal degree value without trailing zeros
func FormatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MapsURL links a coordinate pair to Google Maps
func MapsURL(lat, lon string) string {
	return fmt.Sprintf("http://maps.google.com/maps?q=%s,%s", lat, lon)
}

// Station renders a registry record. Coordinates are echoed as the registry
// wrote them when available.
func Station(r *callook.StationRecord) Card {
	coordinates := "Not available"
	if r.HasLocation {
		lat, lon := r.LatitudeText, r.LongitudeText
		if lat == "" || lon == "" {
			lat, lon = FormatCoordinate(r.Latitude), FormatCoordinate(r.Longitude)
		}
		coordinates = fmt.Sprintf("[%s, %s](%s)", lat, lon, MapsURL(lat, lon))
	}

	return Card{
		Title: "🎙️ Callsign Information 🎙️",
		Color: ColorStation,
		Fields: []Field{
			{Name: "Callsign", Value: r.Callsign},
			{Name: "Operator Class", Value: r.OperatorClass},
			{Name: "Name", Value: r.Name},
			{Name: "Address", Value: r.Address()},
			{Name: "Grant Date", Value: r.GrantDate},
			{Name: "Expiration Date", Value: r.ExpiryDate},
			{Name: "Gridsquare", Value: r.Gridsquare},
			{Name: "Coordinates", Value: coordinates},
			{Name: "FCC Registration Number (FRN)", Value: r.FRN},
			{Name: "FCC URL", Value: r.ULSURL},
		},
	}
}

// Stats renders logbook statistics
func Stats(s *lbstat.LogbookStats) Card {
	return Card{
		Title: fmt.Sprintf("📒 Logbook Statistics for %s 📒", s.Callsign),
		Color: ColorStats,
		Fields: []Field{
			{Name: "QSOs", Value: FormatCount(s.QSOs), Inline: true},
			{Name: "Confirmed", Value: FormatCount(s.Confirmed), Inline: true},
		},
	}
}

// Distance renders a great-circle distance between two stations
func Distance(d *lookup.DistanceResult) Card {
	return Card{
		Title: fmt.Sprintf("📏 Distance from %s to %s 📏", d.From.Callsign, d.To.Callsign),
		Color: ColorDistance,
		Fields: []Field{
			{Name: "Kilometers", Value: printer.Sprintf("%.2f", d.Kilometers), Inline: true},
			{Name: "Miles", Value: printer.Sprintf("%.2f", d.Miles), Inline: true},
			{Name: d.From.Callsign, Value: fmt.Sprintf("%s (%s, %s)", d.From.Gridsquare,
				FormatCoordinate(d.From.Point.Lat), FormatCoordinate(d.From.Point.Lon))},
			{Name: d.To.Callsign, Value: fmt.Sprintf("%s (%s, %s)", d.To.Gridsquare,
				FormatCoordinate(d.To.Point.Lat), FormatCoordinate(d.To.Point.Lon))},
		},
	}
}

// Conditions renders the band conditions image
func Conditions(c *lookup.Conditions) Card {
	return Card{
		Title:    "☀️ Current Band Conditions ☀️",
		Color:    ColorConditions,
		ImageURL: c.ImageURL,
	}
}

// Payload renders any command payload. The second result is false for unknown payloads.
func Payload(payload any) (Card, bool) {
	switch p := payload.(type) {
	case *callook.StationRecord:
		return Station(p), true
	case *lbstat.LogbookStats:
		return Stats(p), true
	case *lookup.DistanceResult:
		return Distance(p), true
	case *lookup.Conditions:
		return Conditions(p), true
	}
	return Card{}, false
}

// Text renders a card for a terminal
func Text(c Card) string {
	var b strings.Builder
	b.WriteString(c.Title)
	b.WriteByte('\n')

	width := 0
	for _, f := range c.Fields {
		if len(f.Name) > width {
			width = len(f.Name)
		}
	}
	for _, f := range c.Fields {
		fmt.Fprintf(&b, "  %-*s  %s\n", width, f.Name, f.Value)
	}
	if c.ImageURL != "" {
		fmt.Fprintf(&b, "  %s\n", c.ImageURL)
	}
	return b.String()
}
