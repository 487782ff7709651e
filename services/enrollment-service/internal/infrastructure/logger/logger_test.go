package logger

import "testing"

func TestSanitizeKVs(t *testing.T) {
	out := sanitizeKVs([]interface{}{"session_id", "cs_1", "stripe_signature", "t=1,v1=abc", "student_email", "a@b.c", "dangling"})
	want := []interface{}{"session_id", "cs_1", "stripe_signature", "[REDACTED]", "student_email", "[REDACTED]", "dangling"}
	if len(out) != len(want) {
		t.Fatalf("len=%d want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out[%d]=%v want %v", i, out[i], want[i])
		}
	}
}
