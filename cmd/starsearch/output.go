package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/dm/starsearch/internal/tui"
)

// printJSON writes v indented, without HTML escaping.
func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

// printTable writes rows as a styled table.
func (a *app) printTable(headers []string, rows [][]string, rowStyle func(int) lipgloss.Style) {
	fmt.Fprintln(a.out, tui.RenderTable(headers, rows, rowStyle))
}

// printMessage writes a one-line success message in table mode.
func (a *app) printMessage(msg string) {
	fmt.Fprintln(a.out, tui.StyleSuccess.Render(msg))
}

// output renders v as JSON, or calls table in table mode.
func (a *app) output(v any, table func()) error {
	if a.format == formatJSON || table == nil {
		return a.printJSON(v)
	}
	table()
	return nil
}

// renderError prints {"error": msg} on stdout.
func (a *app) renderError(err error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(map[string]string{"error": err.Error()})
	_, _ = a.out.Write(buf.Bytes())
}

// prettyJSON indents body when it is JSON and returns it unchanged otherwise.
func prettyJSON(body []byte) []byte {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return body
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}
