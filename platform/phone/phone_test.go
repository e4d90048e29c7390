package phone

import "testing"

func TestIsUKMobileAcceptsSharedPlanRanges(t *testing.T) {
	// 7911 belongs to a Crown dependency in the numbering metadata, yet it
	// is a mobile range inside the +44 plan and must be accepted.
	cases := []string{
		"+447911123456",
		"07911 123 456",
		"0044 7911 123456",
	}
	for _, in := range cases {
		if !IsUKMobile(in) {
			t.Errorf("IsUKMobile(%q) = false, want true", in)
		}
	}
}

func TestIsUKMobileRejectsNonUKAndNonMobile(t *testing.T) {
	cases := []string{
		"",
		"not a number",
		"020 7946 0000",  // London landline
		"+33612345678",   // French mobile, wrong plan
		"+4915112345678", // German mobile, wrong plan
		"0791112345",     // too short
	}
	for _, in := range cases {
		if IsUKMobile(in) {
			t.Errorf("IsUKMobile(%q) = true, want false", in)
		}
	}
}

func TestNormalizeUK(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"07911 123 456", "+447911123456"},
		{"0044 7911 123456", "+447911123456"},
		{"+44 7911-123-456", "+447911123456"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeUK(tc.in); got != tc.want {
			t.Errorf("NormalizeUK(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatE164FallsBackToNormalizedInput(t *testing.T) {
	if got := FormatE164("07911 123 456"); got != "+447911123456" {
		t.Errorf("FormatE164 = %q, want +447911123456", got)
	}
	if got := FormatE164("12"); got != "12" {
		t.Errorf("FormatE164 on unparseable input = %q, want normalized input back", got)
	}
}
