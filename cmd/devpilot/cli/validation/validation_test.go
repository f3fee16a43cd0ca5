package validation

import "testing"

func TestValidateIssueKey(t *testing.T) {
	tests := []struct {
		key     string
		wantErr bool
	}{
		{"ABC-1", false},
		{"PROJ-1234", false},
		{"X9-42", false},
		{"", true},
		{"abc-1", true},
		{"ABC", true},
		{"ABC-", true},
		{"-123", true},
		{"ABC-12x", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateIssueKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateIssueKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestBranchSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Fix login redirect", "fix-login-redirect"},
		{"  Weird--chars!! (here) ", "weird-chars-here"},
		{"UPPER case", "upper-case"},
		{"", ""},
		{"a very long summary that just keeps going and going and going", "a-very-long-summary-that-just-keeps-goin"},
	}
	for _, tt := range tests {
		if got := BranchSlug(tt.in); got != tt.want {
			t.Errorf("BranchSlug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
