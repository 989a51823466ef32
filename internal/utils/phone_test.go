package utils

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+251912345678", "912345678"},
		{"251912345678", "912345678"},
		{"0912345678", "912345678"},
		{"912345678", "912345678"},
		{"  0912345678", "912345678"},
	}
	for _, tc := range cases {
		if got := NormalizePhone(tc.in); got != tc.want {
			t.Fatalf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPhoneForms(t *testing.T) {
	if got := InternationalPhone("0912345678"); got != "+251912345678" {
		t.Fatalf("InternationalPhone = %q", got)
	}
	if got := LocalPhone("+251912345678"); got != "0912345678" {
		t.Fatalf("LocalPhone = %q", got)
	}
}

func TestValidPhone(t *testing.T) {
	valid := []string{"+251912345678", "0912345678", "912345678", "251712345678"}
	for _, p := range valid {
		if !ValidPhone(p) {
			t.Fatalf("expected %q to be valid", p)
		}
	}
	invalid := []string{"", "12345", "91234567890", "91234567a", "+2519123"}
	for _, p := range invalid {
		if ValidPhone(p) {
			t.Fatalf("expected %q to be invalid", p)
		}
	}
}
