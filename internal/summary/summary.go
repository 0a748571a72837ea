// Package summary aggregates a batch of check results into the partitions
// consumed by reporting: expired, expiring soon and invalid certificates.
package summary

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/certwatch-app/cw-certcheck/internal/classify"
	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/ui"
)

// Counts are the headline numbers of a batch.
type Counts struct {
	ByCategory   map[classify.Category]int `json:"by_category"`
	Total        int                       `json:"total"`
	OK           int                       `json:"ok"`
	Expired      int                       `json:"expired"`
	ExpiringSoon int                       `json:"expiring_soon"`
	Invalid      int                       `json:"invalid"`
	Alerts       int                       `json:"alerts"`
}

// Report is a batch split into its reporting partitions. A failed check
// lands in Invalid only; a fetched certificate lands in at most one of
// Expired or ExpiringSoon.
type Report struct {
	Expired      []scanner.Record `json:"expired"`
	ExpiringSoon []scanner.Record `json:"expiring_soon"`
	Invalid      []scanner.Record `json:"invalid"`
	Records      []scanner.Record `json:"results"`
	Counts       Counts           `json:"summary"`
}

// Build partitions results. Records are ordered by hostname then port.
func Build(results []scanner.Result) Report {
	records := make([]scanner.Record, 0, len(results))
	for _, r := range results {
		records = append(records, r.Record())
	}
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Hostname != records[j].Hostname {
			return records[i].Hostname < records[j].Hostname
		}
		return records[i].Port < records[j].Port
	})

	rep := Report{
		Records:      records,
		Expired:      []scanner.Record{},
		ExpiringSoon: []scanner.Record{},
		Invalid:      []scanner.Record{},
		Counts: Counts{
			Total:      len(records),
			ByCategory: make(map[classify.Category]int),
		},
	}

	for _, rec := range records {
		rep.Counts.ByCategory[classify.Category(rec.IssueCategory)]++

		if rec.AlertType != string(scanner.AlertNone) {
			rep.Counts.Alerts++
		}

		switch {
		case rec.IssueCategory != string(classify.CategoryOK):
			rep.Invalid = append(rep.Invalid, rec)
		case rec.CertStatus == string(scanner.StatusExpired):
			rep.Expired = append(rep.Expired, rec)
		case strings.HasPrefix(rec.CertStatus, "expiring"):
			rep.ExpiringSoon = append(rep.ExpiringSoon, rec)
		}
	}

	rep.Counts.Invalid = len(rep.Invalid)
	rep.Counts.Expired = len(rep.Expired)
	rep.Counts.ExpiringSoon = len(rep.ExpiringSoon)
	rep.Counts.OK = rep.Counts.ByCategory[classify.CategoryOK]

	return rep
}

// HasAlerts reports whether any record carries an alert.
func (r Report) HasAlerts() bool {
	return r.Counts.Alerts > 0
}

// WriteJSON writes the report as indented JSON.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Render writes a styled table of every record followed by the counts.
func (r Report) Render(w io.Writer) error {
	var b strings.Builder

	b.WriteString(ui.RenderSection("Certificates"))
	b.WriteString("\n")

	if len(r.Records) == 0 {
		b.WriteString(ui.RenderInfo("No results"))
		b.WriteString("\n")
	} else {
		b.WriteString(r.table())
		b.WriteString("\n")
	}

	b.WriteString(ui.BoxStyle.Render(r.countsBlock()))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func (r Report) table() string {
	rows := make([][]string, 0, len(r.Records))
	for _, rec := range r.Records {
		days := "-"
		if rec.DaysToExpiry != nil {
			days = strconv.Itoa(*rec.DaysToExpiry)
		}
		detail := rec.CertIssuer
		if !rec.IsValid {
			detail = truncate(rec.ErrorMessage, 60)
		}
		rows = append(rows, []string{
			rec.Hostname + ":" + strconv.Itoa(rec.Port),
			statusStyle(rec).Render(rec.CertStatus),
			days,
			rec.ValidTo,
			rec.IssueCategory,
			detail,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(ui.MutedStyle).
		Headers("TARGET", "STATUS", "DAYS", "EXPIRES", "CATEGORY", "ISSUER / ERROR").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return ui.TitleStyle.MarginBottom(0).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	return t.String()
}

func (r Report) countsBlock() string {
	lines := []string{
		fmt.Sprintf("Checked:        %d", r.Counts.Total),
		ui.SuccessStyle.Render(fmt.Sprintf("OK:             %d", r.Counts.OK)),
		ui.WarningStyle.Render(fmt.Sprintf("Expiring soon:  %d", r.Counts.ExpiringSoon)),
		ui.ErrorStyle.Render(fmt.Sprintf("Expired:        %d", r.Counts.Expired)),
		ui.ErrorStyle.Render(fmt.Sprintf("Invalid:        %d", r.Counts.Invalid)),
	}

	categories := make([]string, 0, len(r.Counts.ByCategory))
	for c := range r.Counts.ByCategory {
		if c != classify.CategoryOK {
			categories = append(categories, string(c))
		}
	}
	sort.Strings(categories)
	for _, c := range categories {
		lines = append(lines, ui.MutedStyle.Render(
			fmt.Sprintf("  %-18s %d", c, r.Counts.ByCategory[classify.Category(c)])))
	}

	return strings.Join(lines, "\n")
}

func statusStyle(rec scanner.Record) lipgloss.Style {
	switch {
	case !rec.IsValid, rec.CertStatus == string(scanner.StatusExpired):
		return ui.ErrorStyle
	case rec.CertStatus == string(scanner.StatusExpiringSoon):
		return ui.WarningStyle
	default:
		return ui.SuccessStyle
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
