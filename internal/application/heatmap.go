package application

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// HeatmapSlots are the hourly columns of the availability heatmap.
var HeatmapSlots = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00"}

// AvailabilitySource decides a member's availability for one heatmap slot.
type AvailabilitySource interface {
	SlotAvailability(member TeamMember, memberIndex int, slot string, slotIndex int) AvailabilityStatus
}

// DemoAvailability cycles available, busy, tentative over
// memberIndex*100+slotIndex. It is a placeholder with no scheduling meaning.
type DemoAvailability struct{}

var demoCycle = [...]AvailabilityStatus{AvailabilityAvailable, AvailabilityBusy, AvailabilityTentative}

// SlotAvailability implements AvailabilitySource.
func (DemoAvailability) SlotAvailability(_ TeamMember, memberIndex int, _ string, slotIndex int) AvailabilityStatus {
	seed := memberIndex*100 + slotIndex
	return demoCycle[seed%len(demoCycle)]
}

// MeetingAvailability derives availability from the meetings a member attends
// on Date: busy when a meeting spans the whole hour, tentative when one
// overlaps part of it, available otherwise.
type MeetingAvailability struct {
	Date     string
	Meetings []Meeting
}

// SlotAvailability implements AvailabilitySource.
func (a MeetingAvailability) SlotAvailability(member TeamMember, _ int, slot string, _ int) AvailabilityStatus {
	slotStart, err := time.Parse(ClockLayout, slot)
	if err != nil {
		return AvailabilityUnknown
	}
	slotEnd := slotStart.Add(time.Hour)

	status := AvailabilityAvailable
	for _, m := range a.Meetings {
		if m.Date != a.Date || !attends(m, member.ID) {
			continue
		}
		start, err := time.Parse(ClockLayout, m.Time)
		if err != nil {
			continue
		}
		end := start.Add(time.Duration(m.DurationMinutes) * time.Minute)
		if !start.Before(slotEnd) || !end.After(slotStart) {
			continue
		}
		if !start.After(slotStart) && !end.Before(slotEnd) {
			return AvailabilityBusy
		}
		status = AvailabilityTentative
	}
	return status
}

func attends(m Meeting, memberID string) bool {
	for _, id := range m.ParticipantIDs {
		if id == memberID {
			return true
		}
	}
	return false
}

// HeatmapRow is one member's availability across HeatmapSlots.
type HeatmapRow struct {
	MemberID string
	Label    string
	Cells    []AvailabilityStatus
}

// Heatmap is the member by slot availability grid.
type Heatmap struct {
	Date  string
	Slots []string
	Rows  []HeatmapRow
}

// BuildHeatmap evaluates source for every member and slot. Rows are labelled
// with the member's first name.
func BuildHeatmap(members []TeamMember, source AvailabilitySource, date string) Heatmap {
	rows := make([]HeatmapRow, 0, len(members))
	for mi, member := range members {
		cells := make([]AvailabilityStatus, len(HeatmapSlots))
		for si, slot := range HeatmapSlots {
			cells[si] = source.SlotAvailability(member, mi, slot, si).Normalize()
		}
		rows = append(rows, HeatmapRow{MemberID: member.ID, Label: firstName(member.Name), Cells: cells})
	}
	return Heatmap{Date: date, Slots: cloneStrings(HeatmapSlots), Rows: rows}
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[0]
}

// HeatmapMode selects the availability source used by HeatmapService.
type HeatmapMode string

const (
	HeatmapModeMeetings HeatmapMode = "meetings"
	HeatmapModeDemo     HeatmapMode = "demo"
)

// MemberLister is the slice of TeamMemberService used by the heatmap.
type MemberLister interface {
	List(ctx context.Context) ([]TeamMember, error)
}

// HeatmapService builds availability heatmaps for the team page.
type HeatmapService struct {
	members  MemberLister
	meetings MeetingLister
	mode     HeatmapMode
	opts     ServiceOptions
}

// NewHeatmapService constructs a heatmap service. Unknown modes fall back to meetings.
func NewHeatmapService(members MemberLister, meetings MeetingLister, mode HeatmapMode, opts ServiceOptions) *HeatmapService {
	if mode != HeatmapModeDemo {
		mode = HeatmapModeMeetings
	}
	return &HeatmapService{members: members, meetings: meetings, mode: mode, opts: opts.withDefaults()}
}

// Build returns the heatmap for date, or for today when date is empty.
func (s *HeatmapService) Build(ctx context.Context, date string) (heatmap Heatmap, err error) {
	if s == nil || s.members == nil {
		err = fmt.Errorf("HeatmapService is not configured")
		return
	}

	date = strings.TrimSpace(date)
	if date == "" {
		date = today(s.opts.Now, s.opts.Location)
	}
	logger := serviceLogger(ctx, s.opts.Logger, "HeatmapService", "Build", "date", date, "mode", string(s.mode))
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build heatmap", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "heatmap built", "rows", len(heatmap.Rows))
	}()

	if _, parseErr := time.Parse(DateLayout, date); parseErr != nil {
		err = NewValidationError("date", "Date must be a valid date (YYYY-MM-DD)")
		return
	}

	var members []TeamMember
	if members, err = s.members.List(ctx); err != nil {
		return
	}

	var source AvailabilitySource = DemoAvailability{}
	if s.mode == HeatmapModeMeetings {
		if s.meetings == nil {
			err = fmt.Errorf("meeting lister not configured")
			return
		}
		var meetings []Meeting
		if meetings, err = s.meetings.List(ctx, date); err != nil {
			return
		}
		source = MeetingAvailability{Date: date, Meetings: meetings}
	}

	heatmap = BuildHeatmap(members, source, date)
	return
}
