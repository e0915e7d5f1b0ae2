package status_test

import (
	"testing"

	"github.com/dalemusser/workhub/internal/app/system/status"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		in         string
		user, proj bool
	}{
		{"active", true, true},
		{" Active ", true, true},
		{"disabled", true, false},
		{"archived", false, true},
		{"", false, false},
		{"deleted", false, false},
	}
	for _, tt := range tests {
		if got := status.IsValid(tt.in); got != tt.user {
			t.Errorf("IsValid(%q) = %v, want %v", tt.in, got, tt.user)
		}
		if got := status.IsValidProject(tt.in); got != tt.proj {
			t.Errorf("IsValidProject(%q) = %v, want %v", tt.in, got, tt.proj)
		}
	}
}
