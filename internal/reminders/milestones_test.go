package reminders

import (
	"strings"
	"testing"
)

func TestMilestoneForWeek20(t *testing.T) {
	m, ok := MilestoneForWeek(20)
	if !ok {
		t.Fatal("expected a milestone for week 20")
	}
	if m.Category != "halfway" {
		t.Errorf("week 20 category = %q, want %q", m.Category, "halfway")
	}
	if !strings.Contains(strings.ToLower(m.Message), "anatomy scan") {
		t.Errorf("week 20 message %q should mention the anatomy scan", m.Message)
	}
}

func TestMilestoneForWeekWithoutEntry(t *testing.T) {
	for _, week := range []int{0, 21, 33, 43} {
		if m, ok := MilestoneForWeek(week); ok {
			t.Errorf("week %d unexpectedly has milestone %+v", week, m)
		}
	}
}

func TestMilestoneTableWeeksMatchKeys(t *testing.T) {
	for week, m := range milestoneTable {
		if m.Week != week {
			t.Errorf("table key %d has mismatched Week field %d", week, m.Week)
		}
	}
}
