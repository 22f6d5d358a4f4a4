package prayer

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

// Named status-line styles accepted by the next command.
const (
	FormatTimeRemaining      = "time-remaining"
	FormatNextPrayerTime     = "next-prayer-time"
	FormatNameAndTime        = "name-and-time"
	FormatNameAndRemaining   = "name-and-remaining"
	FormatShortNameAndTime   = "short-name-and-time"
	FormatShortNameAndRemain = "short-name-and-remaining"
	FormatFull               = "full"
)

// ErrUnknownFormat is returned for a style that is neither named nor a
// template.
var ErrUnknownFormat = errors.New("unknown format")

var namedFormats = map[string]string{
	FormatTimeRemaining:      "{{.Remaining}}",
	FormatNextPrayerTime:     "{{.Time}}",
	FormatNameAndTime:        "{{.Name}} {{.Time}}",
	FormatNameAndRemaining:   "{{.Name}} {{.Remaining}}",
	FormatShortNameAndTime:   "{{.ShortName}} {{.Time}}",
	FormatShortNameAndRemain: "{{.ShortName}} {{.Remaining}}",
	FormatFull:               "{{.Name}} {{.Time}} ({{.Remaining}})",
}

// FormatNames lists the named styles, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(namedFormats))
	for n := range namedFormats {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// FormatData is what a status template sees. Once the prayer is reached
// Remaining reads NowLabel and Arrived is true.
type FormatData struct {
	Name      string // "Asr"
	ShortName string // "A"
	Time      string // "15:02" or "3:02 PM"
	Remaining string // "2h 15m"
	Hours     int
	Minutes   int
	Tomorrow  bool
	Arrived   bool
}

// Formatter renders countdown readings in one style.
type Formatter struct {
	tmpl   *template.Template
	layout string
}

// NewFormatter compiles style, a named format or any Go template containing
// "{{". layout is the clock layout for .Time ("15:04" or "3:04 PM").
func NewFormatter(style, layout string) (*Formatter, error) {
	text, ok := namedFormats[style]
	if !ok {
		if !strings.Contains(style, "{{") {
			return nil, fmt.Errorf("%w %q: use one of %s or a Go template", ErrUnknownFormat, style, strings.Join(FormatNames(), ", "))
		}
		text = style
	}
	tmpl, err := template.New("status").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("invalid format template: %w", err)
	}
	return &Formatter{tmpl: tmpl, layout: layout}, nil
}

// Data builds the template input for a reading.
func (f *Formatter) Data(st State) FormatData {
	name := string(st.Next.Prayer)
	d := FormatData{
		Name:      name,
		ShortName: ShortNames[name],
		Time:      st.Target.Format(f.layout),
		Tomorrow:  st.Next.Tomorrow,
		Arrived:   st.Arrived,
	}
	if st.Arrived {
		d.Remaining = NowLabel
		return d
	}
	d.Remaining = FormatRemaining(st.Remaining)
	d.Hours = int(st.Remaining.Hours())
	d.Minutes = int(st.Remaining.Minutes()) % 60
	return d
}

// Format renders st. Template execution errors are rendered inline so a
// status bar never goes blank.
func (f *Formatter) Format(st State) string {
	var b strings.Builder
	if err := f.tmpl.Execute(&b, f.Data(st)); err != nil {
		return "template-err: " + err.Error()
	}
	return b.String()
}
