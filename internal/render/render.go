// Package render formats portal data for plain terminal output.
package render

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tn-portal/tnscribe/internal/api"
	"github.com/tn-portal/tnscribe/internal/archive"
	"github.com/tn-portal/tnscribe/internal/session"
)

var (
	styleIndex = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	styleDim   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleAdmin = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// ChunkLine formats one transcript segment as it arrives.
func ChunkLine(index int, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		text = styleDim.Render("(no speech detected)")
	}
	return fmt.Sprintf("%s %s", styleIndex.Render(fmt.Sprintf("[%d]", index)), text)
}

// Duration renders seconds as "45s" or "3m 12s"; nil renders as "-".
func Duration(seconds *float64) string {
	if seconds == nil {
		return "-"
	}
	total := int(*seconds + 0.5)
	minutes := total / 60
	remaining := total % 60
	if minutes == 0 {
		return fmt.Sprintf("%ds", remaining)
	}
	return fmt.Sprintf("%dm %ds", minutes, remaining)
}

// Date renders a server timestamp in local time, "-" when absent or
// unparsable. The portal stores naive ISO-8601 UTC strings.
func Date(value string) string {
	if value == "" {
		return "-"
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return value
}

// UsersTable renders the admin user list.
func UsersTable(users []session.Profile) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOGIN\tNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range users {
		role := "user"
		if u.IsAdmin {
			role = styleAdmin.Render("admin")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			u.Login, u.DisplayName(), u.Email, role, Date(u.CreatedAt))
	}
	w.Flush()
	return b.String()
}

// RecordsTable renders the server-side transcription history.
func RecordsTable(records []api.TranscriptionRecord) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tFILE\tDURATION\tDATE\tTEXT")
	for _, r := range records {
		hasText := "-"
		if r.HasText {
			hasText = "yes"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.UserLogin, r.FileName, Duration(r.DurationSeconds), Date(r.TranscribedAt), hasText)
	}
	w.Flush()
	return b.String()
}

// RunsTable renders the local archive.
func RunsTable(runs []archive.Run) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFILE\tLANG\tCHUNKS\tDATE")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			shortID(r.ID), r.FileName, r.Language, r.ChunkCount,
			r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
