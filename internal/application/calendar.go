package application

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MonthLayout is the format used to name a calendar month.
const MonthLayout = "2006-01"

// CalendarCell is one square of the month grid. Placeholders pad the first
// week so day 1 lands under its weekday column.
type CalendarCell struct {
	Placeholder  bool
	Day          int
	Date         string
	MeetingCount int
	Selected     bool
	Today        bool
}

// CalendarMonth is a seven column month grid, weeks starting on Sunday.
type CalendarMonth struct {
	Year          int
	Month         time.Month
	LeadingBlanks int
	Cells         []CalendarCell
}

// Label returns the month formatted with MonthLayout.
func (m CalendarMonth) Label() string {
	return firstOfMonth(m.Year, m.Month).Format(MonthLayout)
}

func firstOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// ParseMonth parses a MonthLayout string into the first day of that month.
func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, NewValidationError("month", "Month must use the YYYY-MM format")
	}
	return firstOfMonth(t.Year(), t.Month()), nil
}

// BuildCalendarMonth lays out the month containing month. selected and today
// are DateLayout strings; either may be empty.
func BuildCalendarMonth(month time.Time, meetings []Meeting, selected, today string) CalendarMonth {
	first := firstOfMonth(month.Year(), month.Month())
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	counts := make(map[string]int)
	for _, m := range meetings {
		counts[m.Date]++
	}

	cells := make([]CalendarCell, 0, leading+daysInMonth)
	for i := 0; i < leading; i++ {
		cells = append(cells, CalendarCell{Placeholder: true})
	}
	for day := 1; day <= daysInMonth; day++ {
		date := first.AddDate(0, 0, day-1).Format(DateLayout)
		cells = append(cells, CalendarCell{
			Day:          day,
			Date:         date,
			MeetingCount: counts[date],
			Selected:     selected != "" && date == selected,
			Today:        today != "" && date == today,
		})
	}

	return CalendarMonth{
		Year:          first.Year(),
		Month:         first.Month(),
		LeadingBlanks: leading,
		Cells:         cells,
	}
}

// CalendarCursor tracks the displayed month and the selected day. It is a
// value type; navigation returns a new cursor.
type CalendarCursor struct {
	month    time.Time
	selected string
}

// NewCalendarCursor starts on the month of now with today selected.
func NewCalendarCursor(now time.Time) CalendarCursor {
	return CalendarCursor{
		month:    firstOfMonth(now.Year(), now.Month()),
		selected: now.Format(DateLayout),
	}
}

// CursorAt starts on month with the given selection.
func CursorAt(month time.Time, selected string) CalendarCursor {
	return CalendarCursor{month: firstOfMonth(month.Year(), month.Month()), selected: selected}
}

// Month returns the first day of the displayed month.
func (c CalendarCursor) Month() time.Time { return c.month }

// Selected returns the selected date, possibly outside the displayed month.
func (c CalendarCursor) Selected() string { return c.selected }

// Next moves one month forward.
func (c CalendarCursor) Next() CalendarCursor {
	c.month = c.month.AddDate(0, 1, 0)
	return c
}

// Prev moves one month back.
func (c CalendarCursor) Prev() CalendarCursor {
	c.month = c.month.AddDate(0, -1, 0)
	return c
}

// Today jumps back to the month of now and selects today.
func (c CalendarCursor) Today(now time.Time) CalendarCursor {
	return NewCalendarCursor(now)
}

// Select marks date as the selected day.
func (c CalendarCursor) Select(date string) (CalendarCursor, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(DateLayout, date); err != nil {
		return c, NewValidationError("selected", "Selected date must be a valid date (YYYY-MM-DD)")
	}
	c.selected = date
	return c, nil
}

// CalendarView is the month grid plus the meetings of the selected day.
type CalendarView struct {
	Grid             CalendarMonth
	Selected         string
	SelectedMeetings []Meeting
	Previous         string
	Next             string
	Today            string
}

// CalendarService builds the meetings calendar panel.
type CalendarService struct {
	meetings MeetingLister
	opts     ServiceOptions
}

// NewCalendarService constructs a calendar service.
func NewCalendarService(meetings MeetingLister, opts ServiceOptions) *CalendarService {
	return &CalendarService{meetings: meetings, opts: opts.withDefaults()}
}

// Now returns the current time in the service location.
func (s *CalendarService) Now() time.Time {
	return s.opts.Now().In(s.opts.Location)
}

// View renders the month the cursor points at.
func (s *CalendarService) View(ctx context.Context, cursor CalendarCursor) (view CalendarView, err error) {
	if s == nil || s.meetings == nil {
		err = fmt.Errorf("CalendarService is not configured")
		return
	}

	logger := serviceLogger(ctx, s.opts.Logger, "CalendarService", "View",
		"month", cursor.Month().Format(MonthLayout),
		"selected", cursor.Selected(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build calendar", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "calendar built", "selected_meetings", len(view.SelectedMeetings))
	}()

	var meetings []Meeting
	meetings, err = s.meetings.List(ctx, "")
	if err != nil {
		return
	}

	todayDate := today(s.opts.Now, s.opts.Location)
	view = CalendarView{
		Grid:             BuildCalendarMonth(cursor.Month(), meetings, cursor.Selected(), todayDate),
		Selected:         cursor.Selected(),
		SelectedMeetings: MeetingsOn(meetings, cursor.Selected()),
		Previous:         cursor.Prev().Month().Format(MonthLayout),
		Next:             cursor.Next().Month().Format(MonthLayout),
		Today:            todayDate,
	}
	return
}
