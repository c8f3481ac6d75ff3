package application

import (
	"context"
	"testing"
	"time"
)

func TestLatency(t *testing.T) {
	t.Parallel()

	var none *Latency
	if none.Delay(OpLogin) != 0 {
		t.Fatal("nil profile must not delay")
	}
	if err := none.Wait(context.Background(), OpLogin); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	profile := NewLatency(map[Operation]time.Duration{OpLogin: time.Millisecond, OpLogout: -time.Second})
	if profile.Delay(OpLogout) != 0 {
		t.Fatal("negative delays must be dropped")
	}
	if err := profile.Wait(context.Background(), OpLogin); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	if DemoLatency().Delay(OpRegister) != 400*time.Millisecond {
		t.Fatalf("unexpected demo register delay %s", DemoLatency().Delay(OpRegister))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := DemoLatency().Wait(ctx, OpMeetingCreate); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := NoLatency().Wait(ctx, OpMeetingCreate); err != context.Canceled {
		t.Fatalf("zero delay must still honour cancellation, got %v", err)
	}
}
