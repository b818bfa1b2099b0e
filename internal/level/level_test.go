// SPDX-License-Identifier: MPL-2.0

package level

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token   string
		want    Level
		wantErr bool
	}{
		{token: "baseline", want: Baseline},
		{token: "v1", want: Baseline},
		{token: "v2", want: V2},
		{token: "v3", want: V3},
		{token: "v4", want: V4},
		{token: " V3 ", want: V3},
		{token: "x86-64-v4", want: V4},
		{token: "x86-64-v1", want: Baseline},
		{token: "", wantErr: true},
		{token: "v5", wantErr: true},
		{token: "bogus", wantErr: true},
		{token: "x86-64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			t.Parallel()

			got, err := Parse(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLevel) {
					t.Fatalf("Parse(%q) error = %v, want ErrInvalidLevel", tt.token, err)
				}
				if got != Baseline {
					t.Errorf("Parse(%q) = %v on error, want baseline", tt.token, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.token, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestInvalidLevelError(t *testing.T) {
	t.Parallel()

	_, err := Parse("bogus")
	var lvlErr *InvalidLevelError
	if !errors.As(err, &lvlErr) {
		t.Fatalf("expected *InvalidLevelError, got %T", err)
	}
	if lvlErr.Token != "bogus" {
		t.Errorf("Token = %q, want %q", lvlErr.Token, "bogus")
	}
	want := `invalid micro-architecture level "bogus" (valid: baseline, v2, v3, v4)`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestFromInt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n    int
		want Level
	}{
		{-1, Baseline},
		{0, Baseline},
		{1, Baseline},
		{2, V2},
		{3, V3},
		{4, V4},
		{9, V4},
	}
	for _, tt := range tests {
		if got := FromInt(tt.n); got != tt.want {
			t.Errorf("FromInt(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDescending(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		lvl  Level
		want []Level
	}{
		{"baseline", Baseline, []Level{}},
		{"v2", V2, []Level{V2}},
		{"v3", V3, []Level{V3, V2}},
		{"v4", V4, []Level{V4, V3, V2}},
		{"out of range", Level(42), []Level{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if diff := cmp.Diff(tt.want, tt.lvl.Descending()); diff != "" {
				t.Errorf("Descending() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLevel_StringAndClamp(t *testing.T) {
	t.Parallel()

	if got := V3.String(); got != "v3" {
		t.Errorf("V3.String() = %q", got)
	}
	if got := Level(-2).String(); got != "Level(-2)" {
		t.Errorf("Level(-2).String() = %q", got)
	}
	if got := Level(7).Clamp(); got != Baseline {
		t.Errorf("Level(7).Clamp() = %v, want baseline", got)
	}
	if got := V4.Clamp(); got != V4 {
		t.Errorf("V4.Clamp() = %v, want v4", got)
	}
	if diff := cmp.Diff([]string{"baseline", "v2", "v3", "v4"}, Tokens()); diff != "" {
		t.Errorf("Tokens() mismatch (-want +got):\n%s", diff)
	}
}
