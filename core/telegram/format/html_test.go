package format

import "testing"

func TestEscapeHTML(t *testing.T) {
	got := EscapeHTML(`<lora:x> & "quotes" stay`)
	want := `&lt;lora:x&gt; &amp; "quotes" stay`
	if got != want {
		t.Fatalf("EscapeHTML = %q, want %q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly-5", 9, "exactly-5..."},
		{"abcdefgh", 5, "abcde..."},
		{"一二三四五六", 3, "一二三..."},
		{"一二", 3, "一二"},
		{"anything", 0, "anything"},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.limit); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.limit, got, tc.want)
		}
	}
}
