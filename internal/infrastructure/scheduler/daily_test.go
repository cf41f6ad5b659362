package scheduler

import "testing"

func TestCronSpec(t *testing.T) {
	t.Parallel()

	spec, err := cronSpec("10:00")
	if err != nil {
		t.Fatalf("cronSpec error: %v", err)
	}
	if spec != "0 0 10 * * *" {
		t.Fatalf("unexpected spec: %q", spec)
	}

	spec, err = cronSpec("23:45")
	if err != nil {
		t.Fatalf("cronSpec error: %v", err)
	}
	if spec != "0 45 23 * * *" {
		t.Fatalf("unexpected spec: %q", spec)
	}
}

func TestCronSpecInvalid(t *testing.T) {
	t.Parallel()

	for _, at := range []string{"", "25:00", "10", "ten o'clock"} {
		if _, err := cronSpec(at); err == nil {
			t.Fatalf("expected error for %q", at)
		}
	}
}
