package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/example/teamboard/internal/application"
)

const (
	defaultWidth = 80
	minWidth     = 20
)

// Renderer turns derived views into terminal text.
type Renderer struct {
	lg            *lipgloss.Renderer
	width         int
	markdownStyle string

	mu       sync.Mutex
	markdown *glamour.TermRenderer
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithWidth sets the wrap width for notes.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width < minWidth {
			width = minWidth
		}
		r.width = width
	}
}

// WithColorProfile forces a colour profile. termenv.Ascii strips all styling.
func WithColorProfile(profile termenv.Profile) Option {
	return func(r *Renderer) {
		r.lg.SetColorProfile(profile)
	}
}

// WithMarkdownStyle selects a glamour standard style such as "dark", "light"
// or "notty".
func WithMarkdownStyle(style string) Option {
	return func(r *Renderer) {
		r.markdownStyle = style
	}
}

// New returns a renderer whose colour profile is detected from w.
func New(w io.Writer, opts ...Option) *Renderer {
	r := &Renderer{
		lg:            lipgloss.NewRenderer(w),
		width:         defaultWidth,
		markdownStyle: styles.DarkStyle,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.lg.ColorProfile() == termenv.Ascii && r.markdownStyle == styles.DarkStyle {
		r.markdownStyle = styles.NoTTYStyle
	}
	return r
}

// Style resolves v against this renderer's colour profile.
func (r *Renderer) Style(v Variant) lipgloss.Style {
	return VariantStyle(r.lg, v)
}

// Badge renders the availability label in its tone colour.
func (r *Renderer) Badge(status application.AvailabilityStatus) string {
	return r.lg.NewStyle().
		Foreground(toneColor(AvailabilityTone(status))).
		Bold(true).
		Render(status.Label())
}

func (r *Renderer) heading(text string) string {
	return r.lg.NewStyle().Bold(true).Foreground(colorAccent).Render(text)
}

func (r *Renderer) muted(text string) string {
	return r.lg.NewStyle().Foreground(colorMuted).Render(text)
}

// Agenda renders the today list. Meetings show their start and length; tasks
// show a completion box.
func (r *Renderer) Agenda(agenda application.Agenda) string {
	var b strings.Builder
	b.WriteString(r.heading("Today " + agenda.Date))
	b.WriteString("\n")
	if len(agenda.Items) == 0 {
		b.WriteString(r.muted("Nothing scheduled for today."))
		b.WriteString("\n")
		return b.String()
	}

	kind := r.Style(VariantSecondary)
	for _, item := range agenda.Items {
		switch item.Kind {
		case application.AgendaItemMeeting:
			fmt.Fprintf(&b, "%-5s %s %s %s\n",
				item.Time,
				kind.Render("meeting"),
				item.Title,
				r.muted(fmt.Sprintf("(%d min)", item.Meeting.DurationMinutes)),
			)
		default:
			check := "[ ]"
			if item.Task != nil && item.Task.Completed {
				check = "[x]"
			}
			fmt.Fprintf(&b, "%-5s %s %s %s\n", "", kind.Render("task"), check, item.Title)
		}
	}
	return b.String()
}

var weekdayHeader = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// Calendar renders the month grid followed by the selected day's meetings.
// Every cell is five columns wide. Days with meetings carry a trailing '*'
// and the selected day is bracketed.
func (r *Renderer) Calendar(view application.CalendarView) string {
	var b strings.Builder
	title := fmt.Sprintf("%s %d", view.Grid.Month, view.Grid.Year)
	b.WriteString(r.heading(title))
	b.WriteString("\n")
	var header strings.Builder
	for _, day := range weekdayHeader {
		fmt.Fprintf(&header, "%3s  ", day)
	}
	b.WriteString(r.muted(strings.TrimRight(header.String(), " ")))
	b.WriteString("\n")

	selected := r.Style(VariantPrimary)
	today := r.Style(VariantText)
	cells := make([]string, 0, 7)
	flush := func() {
		b.WriteString(strings.TrimRight(strings.Join(cells, ""), " "))
		b.WriteString("\n")
		cells = cells[:0]
	}
	for _, cell := range view.Grid.Cells {
		cells = append(cells, r.calendarCell(cell, selected, today))
		if len(cells) == 7 {
			flush()
		}
	}
	if len(cells) > 0 {
		flush()
	}

	b.WriteString("\n")
	if view.Selected == "" {
		return b.String()
	}
	b.WriteString(r.heading("Meetings on " + view.Selected))
	b.WriteString("\n")
	if len(view.SelectedMeetings) == 0 {
		b.WriteString(r.muted("No meetings."))
		b.WriteString("\n")
		return b.String()
	}
	for _, m := range view.SelectedMeetings {
		fmt.Fprintf(&b, "%-5s %s %s\n", m.Time, m.Title, r.muted(fmt.Sprintf("(%d min)", m.DurationMinutes)))
	}
	return b.String()
}

func (r *Renderer) calendarCell(cell application.CalendarCell, selected, today lipgloss.Style) string {
	if cell.Placeholder {
		return "     "
	}
	mark := " "
	if cell.MeetingCount > 0 {
		mark = "*"
	}
	text := fmt.Sprintf("%2d%s", cell.Day, mark)
	switch {
	case cell.Selected:
		return "[" + selected.UnsetPadding().Render(text) + "]"
	case cell.Today:
		return " " + today.Render(text) + " "
	}
	return " " + text + " "
}

// Heatmap renders the member by slot grid as a table of status initials.
func (r *Renderer) Heatmap(heatmap application.Heatmap) string {
	headers := append([]string{"Member"}, heatmap.Slots...)
	rows := make([][]string, 0, len(heatmap.Rows))
	for _, row := range heatmap.Rows {
		cells := make([]string, 0, len(row.Cells)+1)
		cells = append(cells, row.Label)
		for _, status := range row.Cells {
			cells = append(cells, statusInitial(status))
		}
		rows = append(rows, cells)
	}

	base := r.lg.NewStyle().Padding(0, 1)
	header := base.Bold(true).Foreground(colorAccent)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.lg.NewStyle().Foreground(colorMuted)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == 0 || row < 0 || row >= len(heatmap.Rows) {
				return base
			}
			cells := heatmap.Rows[row].Cells
			if col-1 >= len(cells) {
				return base
			}
			return base.Foreground(toneColor(AvailabilityTone(cells[col-1])))
		})

	var b strings.Builder
	b.WriteString(r.heading("Availability " + heatmap.Date))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(r.muted("A available  B busy  T tentative  ? unknown"))
	b.WriteString("\n")
	return b.String()
}

func statusInitial(status application.AvailabilityStatus) string {
	switch status.Normalize() {
	case application.AvailabilityAvailable:
		return "A"
	case application.AvailabilityBusy:
		return "B"
	case application.AvailabilityTentative:
		return "T"
	}
	return "?"
}

// MeetingNotes renders a meeting and its notes as markdown. participants maps
// member ids to display names; unknown ids are shown as is.
func (r *Renderer) MeetingNotes(meeting application.Meeting, participants map[string]string) (string, error) {
	md, err := r.markdownRenderer()
	if err != nil {
		return "", err
	}
	out, err := md.Render(NotesMarkdown(meeting, participants))
	if err != nil {
		return "", fmt.Errorf("render notes: %w", err)
	}
	return strings.TrimRight(out, "\n") + "\n", nil
}

func (r *Renderer) markdownRenderer() (*glamour.TermRenderer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markdown != nil {
		return r.markdown, nil
	}
	md, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.markdownStyle),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		return nil, fmt.Errorf("create markdown renderer: %w", err)
	}
	r.markdown = md
	return md, nil
}

// NotesMarkdown builds the markdown document for a meeting.
func NotesMarkdown(meeting application.Meeting, participants map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", meeting.Title)
	fmt.Fprintf(&b, "**When:** %s %s (%d min)\n\n", meeting.Date, meeting.Time, meeting.DurationMinutes)
	if len(meeting.ParticipantIDs) > 0 {
		b.WriteString("**Participants:**\n\n")
		for _, id := range meeting.ParticipantIDs {
			name := participants[id]
			if name == "" {
				name = id
			}
			fmt.Fprintf(&b, "- %s\n", name)
		}
		b.WriteString("\n")
	}
	notes := strings.TrimSpace(meeting.Notes)
	if notes == "" {
		notes = "_No notes._"
	}
	b.WriteString("## Notes\n\n")
	b.WriteString(notes)
	b.WriteString("\n")
	return b.String()
}
