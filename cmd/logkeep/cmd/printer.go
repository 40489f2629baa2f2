package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/GoPolymarket/logkeep/internal/model"
	"github.com/segmentio/encoding/json"
	"gopkg.in/yaml.v3"
)

// Printer renders entries as a table, JSON or YAML.
type Printer struct {
	format string
	writer io.Writer
}

func NewPrinter(w io.Writer, format string) *Printer {
	if format == "" {
		format = "table"
	}
	return &Printer{format: strings.ToLower(format), writer: w}
}

func (p *Printer) PrintEntries(entries []*model.LogEntry) error {
	switch p.format {
	case "json":
		return p.printJSON(model.NewLogEntryViews(entries))
	case "yaml":
		return p.printYAML(yamlViews(entries))
	default:
		return p.printTable(entries)
	}
}

func (p *Printer) PrintEntry(entry *model.LogEntry) error {
	switch p.format {
	case "json":
		return p.printJSON(model.NewLogEntryView(entry))
	case "yaml":
		return p.printYAML(yamlView(entry))
	default:
		return p.printDetail(entry)
	}
}

func (p *Printer) printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.writer, string(data))
	return err
}

func (p *Printer) printYAML(v interface{}) error {
	enc := yaml.NewEncoder(p.writer)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

func (p *Printer) printTable(entries []*model.LogEntry) error {
	if len(entries) == 0 {
		fmt.Fprintln(p.writer, "No log entries")
		return nil
	}
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tLEVEL\tTAG\tHTTP\tMESSAGE")
	for _, e := range entries {
		httpCol := "-"
		if e.HasHTTP() {
			httpCol = fmt.Sprintf("%s %d", e.HTTP.Method, e.HTTP.Status)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(e.ID),
			e.Timestamp.Local().Format(time.DateTime),
			e.Level.Display().Label,
			e.Tag,
			httpCol,
			oneLine(e.Message, 80),
		)
	}
	return w.Flush()
}

func (p *Printer) printDetail(e *model.LogEntry) error {
	w := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
	d := e.Level.Display()
	fmt.Fprintf(w, "ID:\t%s\n", e.ID)
	fmt.Fprintf(w, "Time:\t%s\n", e.Timestamp.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "Level:\t%s (%s, %s)\n", d.Label, d.Icon, d.Color)
	fmt.Fprintf(w, "Tag:\t%s\n", e.Tag)
	fmt.Fprintf(w, "Message:\t%s\n", e.Message)
	if len(e.Metadata) > 0 {
		fmt.Fprintf(w, "Metadata:\t%s\n", string(e.Metadata))
	}
	if e.HasHTTP() {
		fmt.Fprintf(w, "HTTP:\t%s %s\n", e.HTTP.Method, e.HTTP.URL)
		if e.HTTP.Status != 0 || e.HTTP.StatusText != "" {
			fmt.Fprintf(w, "Status:\t%d %s\n", e.HTTP.Status, e.HTTP.StatusText)
		}
		if e.HTTP.Body != "" {
			fmt.Fprintf(w, "Body:\t%s\n", oneLine(e.HTTP.Body, 200))
		}
	}
	return w.Flush()
}

// yamlEntry carries decoded metadata; LogEntry hides the raw bytes from yaml.
type yamlEntry struct {
	model.LogEntry `yaml:",inline"`
	Metadata       interface{}   `yaml:"metadata,omitempty"`
	Display        model.Display `yaml:"display"`
}

func yamlView(e *model.LogEntry) yamlEntry {
	return yamlEntry{LogEntry: *e, Metadata: e.MetadataValue(), Display: e.Level.Display()}
}

func yamlViews(entries []*model.LogEntry) []yamlEntry {
	out := make([]yamlEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, yamlView(e))
	}
	return out
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func oneLine(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	cut := max - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
