package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/teamboard/internal/application"
)

func plainRenderer(opts ...Option) *Renderer {
	return New(&bytes.Buffer{}, append([]Option{WithColorProfile(termenv.Ascii)}, opts...)...)
}

func colourRenderer() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(&bytes.Buffer{})
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)
	return r
}

func TestParseVariant(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"primary", "secondary", "outline", "text", "danger", "ghost"} {
		v, ok := ParseVariant(name)
		require.True(t, ok, name)
		assert.Equal(t, name, v.String())
	}

	v, ok := ParseVariant("neon")
	assert.False(t, ok)
	assert.Equal(t, VariantPrimary, v)

	var zero Variant
	assert.Equal(t, "primary", zero.String())
	assert.Equal(t, "primary", Variant(42).String())
}

func TestVariantStyle(t *testing.T) {
	t.Parallel()
	r := colourRenderer()

	primary := VariantStyle(r, VariantPrimary).Render("Save")
	assert.Equal(t, primary, VariantStyle(r, Variant(-1)).Render("Save"), "out of range resolves to primary")
	assert.Equal(t, primary, VariantStyle(r, Variant(99)).Render("Save"))

	seen := map[string]Variant{}
	for v := VariantPrimary; v <= VariantGhost; v++ {
		out := VariantStyle(r, v).Render("Save")
		assert.Equal(t, "Save", ansi.Strip(out), "%s keeps its label once escapes are removed", v)
		if prev, dup := seen[out]; dup {
			t.Fatalf("%s renders like %s", v, prev)
		}
		seen[out] = v
	}

	outline := VariantStyle(plainRenderer().lg, VariantOutline).Render("Save")
	assert.Contains(t, outline, "╭")
	assert.Equal(t, "Save", VariantStyle(plainRenderer().lg, VariantText).Render("Save"))
}

func TestAvailabilityTone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status application.AvailabilityStatus
		tone   Tone
		label  string
	}{
		{application.AvailabilityAvailable, ToneSuccess, "Available"},
		{application.AvailabilityBusy, ToneError, "Busy"},
		{application.AvailabilityTentative, ToneWarning, "Tentative"},
		{application.AvailabilityUnknown, ToneNeutral, "Unknown"},
		{application.AvailabilityStatus("on-leave"), ToneNeutral, "Unknown"},
	}
	r := plainRenderer()
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			assert.Equal(t, tc.tone, AvailabilityTone(tc.status))
			assert.Equal(t, tc.label, r.Badge(tc.status))
		})
	}
	assert.Equal(t, "success", ToneSuccess.String())
	assert.Equal(t, "neutral", Tone(9).String())
}

func TestRenderer_Agenda(t *testing.T) {
	t.Parallel()
	r := plainRenderer()

	tasks := []application.Task{
		{ID: "t1", Title: "Write report", DueDate: "2024-01-02"},
		{ID: "t2", Title: "File expenses", DueDate: "2024-01-02", Completed: true},
	}
	meetings := []application.Meeting{
		{ID: "m1", Title: "Standup", Date: "2024-01-02", Time: "09:00", DurationMinutes: 15},
	}
	out := r.Agenda(application.Agenda{
		Date:  "2024-01-02",
		Items: application.BuildAgenda(tasks, meetings, "2024-01-02"),
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Today 2024-01-02", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "09:00"))
	assert.Contains(t, lines[1], "meeting")
	assert.Contains(t, lines[1], "Standup (15 min)")
	assert.Contains(t, lines[2], "[ ] Write report")
	assert.Contains(t, lines[3], "[x] File expenses")

	empty := r.Agenda(application.Agenda{Date: "2024-01-03"})
	assert.Contains(t, empty, "Nothing scheduled for today.")
}

func TestRenderer_Calendar(t *testing.T) {
	t.Parallel()
	r := plainRenderer()

	meetings := []application.Meeting{
		{ID: "m1", Title: "Kickoff", Date: "2024-02-02", Time: "10:00", DurationMinutes: 30},
		{ID: "m2", Title: "Retro", Date: "2024-02-14", Time: "15:00", DurationMinutes: 60},
	}
	month := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	view := application.CalendarView{
		Grid:             application.BuildCalendarMonth(month, meetings, "2024-02-14", ""),
		Selected:         "2024-02-14",
		SelectedMeetings: application.MeetingsOn(meetings, "2024-02-14"),
	}

	out := r.Calendar(view)
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 8)
	assert.Equal(t, "February 2024", lines[0])
	assert.Equal(t, " Su   Mo   Tu   We   Th   Fr   Sa", lines[1])
	assert.Equal(t, strings.Repeat(" ", 20)+"  1    2*   3", lines[2], "Thursday start leaves four blank cells")
	assert.Contains(t, out, "[14*]")
	assert.Contains(t, out, "Meetings on 2024-02-14")
	assert.Contains(t, out, "15:00 Retro (60 min)")
	assert.NotContains(t, out, "Kickoff")

	view.SelectedMeetings = nil
	view.Selected = "2024-02-20"
	assert.Contains(t, r.Calendar(view), "No meetings.")
}

func TestRenderer_Heatmap(t *testing.T) {
	t.Parallel()
	r := plainRenderer()

	members := []application.TeamMember{
		{ID: "1", Name: "Alice Johnson"},
		{ID: "2", Name: "Bob Smith"},
	}
	heatmap := application.BuildHeatmap(members, application.DemoAvailability{}, "2024-01-02")
	out := r.Heatmap(heatmap)

	assert.Contains(t, out, "Availability 2024-01-02")
	assert.Contains(t, out, "09:00")
	assert.Contains(t, out, "17:00")
	assert.Contains(t, out, "A available  B busy  T tentative  ? unknown")

	var aliceRow []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Alice") {
			for _, field := range strings.Split(line, "│") {
				if f := strings.TrimSpace(field); f != "" {
					aliceRow = append(aliceRow, f)
				}
			}
		}
	}
	require.Len(t, aliceRow, 1+len(application.HeatmapSlots))
	assert.Equal(t, []string{"Alice", "A", "B", "T"}, aliceRow[:4])
	assert.NotContains(t, out, "Johnson", "rows use first names")
}

func TestNotesMarkdown(t *testing.T) {
	t.Parallel()

	meeting := application.Meeting{
		Title:           "Sprint Review",
		Date:            "2024-01-05",
		Time:            "14:00",
		DurationMinutes: 60,
		ParticipantIDs:  []string{"1", "9"},
		Notes:           "  Demo the **calendar**.  ",
	}
	want := "# Sprint Review\n\n" +
		"**When:** 2024-01-05 14:00 (60 min)\n\n" +
		"**Participants:**\n\n- Alice Johnson\n- 9\n\n" +
		"## Notes\n\nDemo the **calendar**.\n"
	assert.Equal(t, want, NotesMarkdown(meeting, map[string]string{"1": "Alice Johnson"}))

	meeting.ParticipantIDs = nil
	meeting.Notes = ""
	got := NotesMarkdown(meeting, nil)
	assert.NotContains(t, got, "Participants")
	assert.Contains(t, got, "_No notes._")
}

func TestRenderer_MeetingNotes(t *testing.T) {
	t.Parallel()
	r := plainRenderer(WithMarkdownStyle("notty"), WithWidth(60))

	out, err := r.MeetingNotes(application.Meeting{
		Title:           "Sprint Review",
		Date:            "2024-01-05",
		Time:            "14:00",
		DurationMinutes: 60,
		ParticipantIDs:  []string{"1"},
		Notes:           "Demo the calendar.",
	}, map[string]string{"1": "Alice Johnson"})
	require.NoError(t, err)
	assert.Contains(t, out, "Sprint Review")
	assert.Contains(t, out, "Alice Johnson")
	assert.Contains(t, out, "Demo the calendar.")
	assert.True(t, strings.HasSuffix(out, "\n"))

	again, err := r.MeetingNotes(application.Meeting{Title: "Other"}, nil)
	require.NoError(t, err)
	assert.Contains(t, again, "Other")
}

func TestOptions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, minWidth, plainRenderer(WithWidth(5)).width)
	assert.Equal(t, 100, plainRenderer(WithWidth(100)).width)
	assert.Equal(t, "notty", plainRenderer().markdownStyle, "plain output drops the dark style")
	assert.Equal(t, "light", plainRenderer(WithMarkdownStyle("light")).markdownStyle)
}
