package rules

import (
	"testing"
	"time"
)

func sample(name string) AlertRule {
	return AlertRule{
		Name:      name,
		Metric:    "queue_depth",
		Condition: ConditionGreaterThan,
		Threshold: 100.0,
		Severity:  SeverityHigh,
		Enabled:   true,
	}
}

func TestAdd_AssignsID(t *testing.T) {
	r := NewRegistry()
	got := r.Add(sample("depth-high"))
	if got.ID == "" {
		t.Fatal("Add: expected generated id")
	}
	if _, ok := r.Get(got.ID); !ok {
		t.Fatal("Get: stored rule not found")
	}
}

func TestUpdate_UnknownIsSoftFalse(t *testing.T) {
	r := NewRegistry()
	rule := sample("x")
	rule.ID = "nope"
	if r.Update(rule) {
		t.Fatal("Update on unknown id: got true, want false")
	}
}

func TestUpdate_PreservesLastTriggeredAt(t *testing.T) {
	r := NewRegistry()
	stored := r.Add(sample("depth-high"))
	fired := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !r.MarkTriggered(stored.ID, fired) {
		t.Fatal("MarkTriggered: got false")
	}

	edit := stored
	edit.Description = "edited"
	edit.LastTriggeredAt = nil
	if !r.Update(edit) {
		t.Fatal("Update: got false")
	}

	got, _ := r.Get(stored.ID)
	if got.LastTriggeredAt == nil || !got.LastTriggeredAt.Equal(fired) {
		t.Errorf("LastTriggeredAt after update: got %v, want %v", got.LastTriggeredAt, fired)
	}
}

func TestRemove(t *testing.T) {
	r := NewRegistry()
	stored := r.Add(sample("a"))
	if !r.Remove(stored.ID) {
		t.Fatal("Remove: got false for known id")
	}
	if r.Remove(stored.ID) {
		t.Fatal("Remove twice: got true, want false")
	}
	if r.Len() != 0 {
		t.Errorf("Len: got %d, want 0", r.Len())
	}
}

func TestList_InsertionOrder(t *testing.T) {
	r := NewRegistry()
	r.Add(sample("first"))
	r.Add(sample("second"))
	r.Add(sample("third"))

	got := r.List()
	if len(got) != 3 {
		t.Fatalf("List: got %d rules, want 3", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Name != want {
			t.Errorf("List[%d]: got %q, want %q", i, got[i].Name, want)
		}
	}
}

func TestEnabled_FiltersDisabled(t *testing.T) {
	r := NewRegistry()
	r.Add(sample("on"))
	off := sample("off")
	off.Enabled = false
	r.Add(off)

	got := r.Enabled()
	if len(got) != 1 || got[0].Name != "on" {
		t.Errorf("Enabled: got %v, want only %q", got, "on")
	}
}

func TestSeverity_Escalated(t *testing.T) {
	if SeverityLow.Escalated() != SeverityMedium {
		t.Error("low should escalate to medium")
	}
	if SeverityCritical.Escalated() != SeverityCritical {
		t.Error("critical should stay critical")
	}
	if SeverityHigh.Rank() <= SeverityMedium.Rank() {
		t.Error("high should rank above medium")
	}
}
