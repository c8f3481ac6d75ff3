package application

import (
	"context"
	"time"
)

// Operation names a service call that may be delayed by a Latency profile.
type Operation string

const (
	OpRegister           Operation = "auth.register"
	OpLogin              Operation = "auth.login"
	OpLogout             Operation = "auth.logout"
	OpCurrentUser        Operation = "auth.current_user"
	OpVerifyEmail        Operation = "auth.verify_email"
	OpResendVerification Operation = "auth.resend_verification"

	OpTaskList   Operation = "tasks.list"
	OpTaskGet    Operation = "tasks.get"
	OpTaskCreate Operation = "tasks.create"
	OpTaskUpdate Operation = "tasks.update"
	OpTaskDelete Operation = "tasks.delete"

	OpMeetingList   Operation = "meetings.list"
	OpMeetingGet    Operation = "meetings.get"
	OpMeetingCreate Operation = "meetings.create"
	OpMeetingUpdate Operation = "meetings.update"
	OpMeetingDelete Operation = "meetings.delete"

	OpMemberList   Operation = "members.list"
	OpMemberGet    Operation = "members.get"
	OpMemberCreate Operation = "members.create"
	OpMemberUpdate Operation = "members.update"
	OpMemberDelete Operation = "members.delete"
)

// Latency inserts an artificial delay before service calls complete. A nil
// *Latency adds no delay.
type Latency struct {
	delays map[Operation]time.Duration
}

// NewLatency builds a profile from explicit per-operation delays.
func NewLatency(delays map[Operation]time.Duration) *Latency {
	copied := make(map[Operation]time.Duration, len(delays))
	for op, d := range delays {
		if d > 0 {
			copied[op] = d
		}
	}
	return &Latency{delays: copied}
}

// NoLatency returns a profile that never waits.
func NoLatency() *Latency {
	return NewLatency(nil)
}

// DemoLatency reproduces the response times of the mock backend the UI was built against.
func DemoLatency() *Latency {
	ms := time.Millisecond
	return NewLatency(map[Operation]time.Duration{
		OpRegister:           400 * ms,
		OpLogin:              300 * ms,
		OpLogout:             100 * ms,
		OpCurrentUser:        200 * ms,
		OpVerifyEmail:        300 * ms,
		OpResendVerification: 300 * ms,

		OpTaskList:   300 * ms,
		OpTaskGet:    200 * ms,
		OpTaskCreate: 300 * ms,
		OpTaskUpdate: 250 * ms,
		OpTaskDelete: 200 * ms,

		OpMeetingList:   350 * ms,
		OpMeetingGet:    200 * ms,
		OpMeetingCreate: 400 * ms,
		OpMeetingUpdate: 300 * ms,
		OpMeetingDelete: 250 * ms,

		OpMemberList:   250 * ms,
		OpMemberGet:    200 * ms,
		OpMemberCreate: 300 * ms,
		OpMemberUpdate: 250 * ms,
		OpMemberDelete: 200 * ms,
	})
}

// Delay reports the configured delay for op.
func (l *Latency) Delay(op Operation) time.Duration {
	if l == nil {
		return 0
	}
	return l.delays[op]
}

// Wait blocks for the configured delay or until ctx is done, whichever comes first.
func (l *Latency) Wait(ctx context.Context, op Operation) error {
	d := l.Delay(op)
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
