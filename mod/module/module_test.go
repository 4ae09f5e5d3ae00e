package module

import (
	"path/filepath"
	"runtime"
	"testing"
)

func TestEscapePath(t *testing.T) {
	tests := []struct {
		name        string
		modId       string
		wantEscaped string
		wantErr     bool
	}{
		{
			name:        "simple path",
			modId:       "opencv/4.5.5",
			wantEscaped: filepath.Join("opencv", "4.5.5"),
			wantErr:     false,
		},
		{
			name:        "empty string",
			modId:       "",
			wantEscaped: "",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			escaped, err := EscapePath(tt.modId)
			if (err != nil) != tt.wantErr {
				t.Errorf("EscapePath() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if escaped != tt.wantEscaped {
				t.Errorf("EscapePath() = %v, want %v", escaped, tt.wantEscaped)
			}
		})
	}
}

func TestEscapePath_Invalid(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("absolute path test only applies to windows")
	}

	_, err := EscapePath("C:\\absolute\\path")
	if err == nil {
		t.Error("EscapePath() expected error for absolute path on windows")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		ref     string
		want    Version
		wantErr bool
	}{
		{ref: "opencv/4.5.5", want: Version{Path: "opencv", Version: "4.5.5"}},
		{ref: "cli11/2.2.0", want: Version{Path: "cli11", Version: "2.2.0"}},
		{ref: "ISPProject/1.0", want: Version{Path: "ISPProject", Version: "1.0"}},
		{ref: "zlib/v1.3.1", want: Version{Path: "zlib", Version: "v1.3.1"}},
		{ref: "opencv", wantErr: true},
		{ref: "opencv/", wantErr: true},
		{ref: "/4.5.5", wantErr: true},
		{ref: "open cv/4.5.5", wantErr: true},
		{ref: "opencv/four", wantErr: true},
		{ref: "opencv/1.2.3.4", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := Parse(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.ref, got, tt.want)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	v := Version{Path: "opencv", Version: "4.5.5"}
	if got := v.String(); got != "opencv/4.5.5" {
		t.Errorf("String() = %q, want %q", got, "opencv/4.5.5")
	}
	if got := (Version{Path: "opencv"}).String(); got != "opencv" {
		t.Errorf("String() = %q, want %q", got, "opencv")
	}
}

func TestCompare(t *testing.T) {
	a := Version{Path: "opencv", Version: "4.5.5"}
	b := Version{Path: "opencv", Version: "4.10.0"}
	if Compare(a, b) >= 0 {
		t.Errorf("Compare(%v, %v) >= 0, want < 0", a, b)
	}
	if Compare(b, a) <= 0 {
		t.Errorf("Compare(%v, %v) <= 0, want > 0", b, a)
	}
	if Compare(a, Version{Path: "opencv", Version: "v4.5.5"}) != 0 {
		t.Error("leading v should not affect ordering")
	}
	if Compare(Version{Path: "cli11", Version: "9.0.0"}, a) >= 0 {
		t.Error("paths should order before versions")
	}
}
