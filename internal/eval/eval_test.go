package eval

import (
	"testing"

	"github.com/SoarinFerret/TimeoutWarden/internal/timeout"
	"github.com/SoarinFerret/TimeoutWarden/internal/warning"
)

const now = int64(1_700_000_000)

func emptySnapshot() warning.Snapshot {
	return warning.Snapshot{
		Visible:   map[warning.Kind]bool{},
		LastShown: map[warning.Kind]int64{},
		Inert:     map[warning.Kind]bool{},
	}
}

func TestEvaluate_LogoutRegardlessOfVisibility(t *testing.T) {
	schedules := []timeout.Schedule{
		{InactivityWarning: now - 100, InactivityTimeout: now, TotalWarning: now + 10, TotalTimeout: now + 100},
		{InactivityWarning: now - 100, InactivityTimeout: now - 1, TotalWarning: now + 10, TotalTimeout: now + 100},
		{InactivityWarning: now + 10, InactivityTimeout: now + 100, TotalWarning: now - 10, TotalTimeout: now},
		{InactivityWarning: now + 10, InactivityTimeout: now + 100, TotalWarning: now - 10, TotalTimeout: now - 5},
	}
	snapshots := []warning.Snapshot{emptySnapshot(), emptySnapshot(), emptySnapshot()}
	snapshots[1].Visible[warning.Inactivity] = true
	snapshots[2].Visible[warning.TotalLength] = true
	snapshots[2].Inert[warning.Inactivity] = true

	for i, s := range schedules {
		for j, snap := range snapshots {
			d := Evaluate(s, snap, now)
			if d.Action != Logout {
				t.Errorf("schedule %d snapshot %d: expected logout, got %s", i, j, d.Action)
			}
		}
	}
}

func TestEvaluate_NoStackingWhileVisible(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now - 1, InactivityTimeout: now + 100, TotalWarning: now - 1, TotalTimeout: now + 1000}
	snap := emptySnapshot()
	snap.Visible[warning.TotalLength] = true

	if d := Evaluate(s, snap, now); d.Action != Noop {
		t.Errorf("expected noop while a warning is visible, got %s", d.Action)
	}
}

func TestEvaluate_InactivityWarning(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now - 1, InactivityTimeout: now + 100, TotalWarning: now + 900, TotalTimeout: now + 1000}

	d := Evaluate(s, emptySnapshot(), now)
	if d.Action != ShowWarning || d.Kind != warning.Inactivity {
		t.Fatalf("expected inactivity warning, got %+v", d)
	}
	if d.Timestamp != now-1 {
		t.Errorf("Timestamp = %d, want %d", d.Timestamp, now-1)
	}
}

func TestEvaluate_InactivitySuppressedWhenTotalEndsFirst(t *testing.T) {
	for _, inactivityTimeout := range []int64{now + 1000, now + 2000} {
		s := timeout.Schedule{InactivityWarning: now - 50, InactivityTimeout: inactivityTimeout, TotalWarning: now + 500, TotalTimeout: now + 1000}
		d := Evaluate(s, emptySnapshot(), now)
		if d.Action != Noop {
			t.Errorf("inactivityTimeout=%d: expected noop, got %+v", inactivityTimeout, d)
		}

		// once the total warning is due only the total warning shows
		s.TotalWarning = now - 1
		d = Evaluate(s, emptySnapshot(), now)
		if d.Action != ShowWarning || d.Kind != warning.TotalLength {
			t.Errorf("inactivityTimeout=%d: expected total warning, got %+v", inactivityTimeout, d)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now - 60, InactivityTimeout: now + 60, TotalWarning: now + 3600, TotalTimeout: now + 7200}
	snap := emptySnapshot()
	snap.LastShown[warning.Inactivity] = now - 60

	for i := 0; i < 5; i++ {
		if d := Evaluate(s, snap, now+int64(i)); d.Action != Noop {
			t.Fatalf("poll %d: expected noop for already shown warning, got %+v", i, d)
		}
	}
}

func TestEvaluate_NewTimestampReshows(t *testing.T) {
	snap := emptySnapshot()
	snap.LastShown[warning.Inactivity] = now - 60

	later := now + 300
	s := timeout.Schedule{InactivityWarning: now + 240, InactivityTimeout: later + 60, TotalWarning: later + 3600, TotalTimeout: later + 7200}
	d := Evaluate(s, snap, later)
	if d.Action != ShowWarning || d.Kind != warning.Inactivity || d.Timestamp != now+240 {
		t.Errorf("expected inactivity warning for new timestamp, got %+v", d)
	}
}

func TestEvaluate_TotalWarning(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now + 3600, InactivityTimeout: now + 7200, TotalWarning: now - 60, TotalTimeout: now + 60}

	d := Evaluate(s, emptySnapshot(), now)
	if d.Action != ShowWarning || d.Kind != warning.TotalLength {
		t.Fatalf("expected total warning, got %+v", d)
	}

	snap := emptySnapshot()
	snap.LastShown[warning.TotalLength] = now - 60
	if d := Evaluate(s, snap, now); d.Action != Noop {
		t.Errorf("expected noop after total warning shown, got %+v", d)
	}
}

func TestEvaluate_InertKindFallsThrough(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now - 1, InactivityTimeout: now + 100, TotalWarning: now - 1, TotalTimeout: now + 1000}
	snap := emptySnapshot()
	snap.Inert[warning.Inactivity] = true

	d := Evaluate(s, snap, now)
	if d.Action != ShowWarning || d.Kind != warning.TotalLength {
		t.Errorf("expected total warning when inactivity modal is missing, got %+v", d)
	}

	snap.Inert[warning.TotalLength] = true
	if d := Evaluate(s, snap, now); d.Action != Noop {
		t.Errorf("expected noop when both modals are missing, got %+v", d)
	}
}

func TestEvaluate_BeforeAnyWarning(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now + 10, InactivityTimeout: now + 100, TotalWarning: now + 500, TotalTimeout: now + 1000}
	if d := Evaluate(s, emptySnapshot(), now); d.Action != Noop {
		t.Errorf("expected noop, got %+v", d)
	}
}

func TestNextEvent(t *testing.T) {
	s := timeout.Schedule{InactivityWarning: now - 10, InactivityTimeout: now + 100, TotalWarning: now + 50, TotalTimeout: now + 1000}
	if got := NextEvent(s, now); got != now+50 {
		t.Errorf("NextEvent = %d, want %d", got, now+50)
	}
	if got := NextEvent(s, now+5000); got != 0 {
		t.Errorf("NextEvent = %d, want 0", got)
	}
}

func TestActionString(t *testing.T) {
	if Logout.String() != "logout" || ShowWarning.String() != "show_warning" || Noop.String() != "noop" {
		t.Errorf("unexpected action names")
	}
}
