package eval

import "testing"

func TestFilter_Empty(t *testing.T) {
	t.Parallel()

	f, err := NewFilter("")
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Matches(TestCase{ID: "a", Prompt: "p"}) {
		t.Fatalf("Matches: empty filter should match everything")
	}

	var nilFilter *Filter
	if !nilFilter.Matches(TestCase{ID: "a"}) {
		t.Fatalf("Matches: nil filter should match everything")
	}
}

func TestFilter_ByType(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(`type == "adversarial"`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Matches(TestCase{ID: "a", Type: "adversarial"}) {
		t.Fatalf("Matches: adversarial case should match")
	}
	if f.Matches(TestCase{ID: "b", Type: "direct"}) {
		t.Fatalf("Matches: direct case should not match")
	}
}

func TestFilter_DefaultType(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(`type == "unknown"`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Matches(TestCase{ID: "a"}) {
		t.Fatalf("Matches: untyped case should see type %q", DefaultCaseType)
	}
}

func TestFilter_ByID(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(`id startsWith "direct-"`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if !f.Matches(TestCase{ID: "direct-3"}) {
		t.Fatalf("Matches: direct-3 should match")
	}
	if f.Matches(TestCase{ID: "adv-1"}) {
		t.Fatalf("Matches: adv-1 should not match")
	}
}

func TestNewFilter_CompileError(t *testing.T) {
	t.Parallel()

	if _, err := NewFilter(`type ==`); err == nil {
		t.Fatalf("NewFilter: expected compile error")
	}
}

func TestFilter_NonBool(t *testing.T) {
	t.Parallel()

	f, err := NewFilter(`prompt`)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.Matches(TestCase{ID: "a", Prompt: "text"}) {
		t.Fatalf("Matches: non-boolean result should not match")
	}
}
