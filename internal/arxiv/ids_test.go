// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package arxiv

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare", "2504.13946", "2504.13946"},
		{"prefixed", "arXiv:2504.13946", "2504.13946"},
		{"versioned", "2504.13946v3", "2504.13946"},
		{"prefixed versioned", "arXiv:2504.13946v2", "2504.13946"},
		{"whitespace", "  2504.13946  ", "2504.13946"},
		{"category prefix", "math.GT.2504.13946", "math.GT.2504.13946"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"five digit", "2504.13946", true},
		{"four digit", "2504.1394", true},
		{"versioned", "2504.13946v2", true},
		{"prefixed", "arXiv:2504.13946", true},
		{"month 13", "2513.13946", false},
		{"month 00", "2500.13946", false},
		{"too few digits", "2504.123", false},
		{"word", "not-an-id", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.input); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDirID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"dotted", "2504.13946", "2504-13946"},
		{"versioned input", "2504.13946v2", "2504-13946"},
		{"prefixed", "arXiv:2504.13946", "2504-13946"},
		{"no dot passthrough", "9901001", "9901001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DirID(tt.input); got != tt.want {
				t.Errorf("DirID(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionID(t *testing.T) {
	if got := VersionID("2504.13946", 2); got != "2504.13946v2" {
		t.Errorf("VersionID = %q, want %q", got, "2504.13946v2")
	}
}

func TestRange(t *testing.T) {
	ids, err := Range("2504.13946", "2504.13950")
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	want := []string{"2504.13946", "2504.13947", "2504.13948", "2504.13949", "2504.13950"}
	if len(ids) != len(want) {
		t.Fatalf("Range returned %d ids, want %d", len(ids), len(want))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestRange_ZeroPadding(t *testing.T) {
	ids, err := Range("2504.00008", "2504.00010")
	if err != nil {
		t.Fatalf("Range returned error: %v", err)
	}
	want := []string{"2504.00008", "2504.00009", "2504.00010"}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %q, want %q", i, ids[i], want[i])
		}
	}
}

func TestRange_Errors(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"prefix mismatch", "2504.13946", "2505.13950"},
		{"end before start", "2504.13950", "2504.13946"},
		{"no dot", "250413946", "2504.13950"},
		{"garbage number", "2504.abc", "2504.13950"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Range(tt.start, tt.end); err == nil {
				t.Errorf("Range(%q, %q) expected error", tt.start, tt.end)
			}
		})
	}
}
