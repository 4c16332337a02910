package ofx

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Time
		wantErr  bool
	}{
		{
			name:     "full stamp",
			input:    "20240315120000",
			expected: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			input:    "20240315",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "timezone suffix discarded",
			input:    "20240315120000[-5:EST]",
			expected: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "fractional seconds discarded",
			input:    "20240315120000.000[-5:EST]",
			expected: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			name:     "surrounding whitespace",
			input:    "  20240315  ",
			expected: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "March 15 2024",
			wantErr: true,
		},
		{
			name:    "truncated stamp",
			input:   "202403",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDate(%q) expected error, got %s", tt.input, got)
				}
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Errorf("ParseDate(%q) error type = %T, want *ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDate(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}
