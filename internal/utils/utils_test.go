package utils

import "testing"

func TestSanitizeFilename(t *testing.T) {
	type Entry struct {
		in     string
		expect string
	}
	entries := []Entry{
		{
			in:     "a.jpg",
			expect: "a.jpg",
		},
		{
			in:     "beach photo.png",
			expect: "beach_photo.png",
		},
		{
			in:     "../../etc/passwd",
			expect: "passwd",
		},
		{
			in:     "..\\..\\windows\\shot.png",
			expect: "shot.png",
		},
		{
			in:     "/var/tmp/spill.jpeg",
			expect: "spill.jpeg",
		},
		{
			in:     "oil;spill&(2).jpg",
			expect: "oilspill2.jpg",
		},
		{
			in:     ".hidden",
			expect: "hidden",
		},
		{
			in:     "...",
			expect: "",
		},
		{
			in:     "",
			expect: "",
		},
	}
	for _, e := range entries {
		if got := SanitizeFilename(e.in); got != e.expect {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", e.in, got, e.expect)
		}
	}
}

func TestGenToken(t *testing.T) {
	a := GenToken(32)
	b := GenToken(32)
	if len(a) != 64 {
		t.Errorf("GenToken(32) produced %d chars, want 64", len(a))
	}
	if a == b {
		t.Errorf("GenToken produced the same token twice: %s", a)
	}
}
