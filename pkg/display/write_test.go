package display

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		spec     string
		wantMode *Mode
		wantRest string
	}{
		{"LCD Status", nil, "LCD Status"},
		{"[5]LCD Log", &Mode{Lines: 5}, "LCD Log"},
		{"[12+]LCD Log*", &Mode{Lines: 12, Append: true}, "LCD Log*"},
		{"[ 3 + ]A,B", &Mode{Lines: 3, Append: true}, "A,B"},
		{"[x]LCD", nil, "LCD"},
		{"[0]LCD", nil, "LCD"},
		{"[5LCD", nil, "[5LCD"},
		{"[]LCD", nil, "LCD"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			mode, rest := ParseMode(tt.spec)
			if diff := cmp.Diff(tt.wantMode, mode); diff != "" {
				t.Errorf("mode mismatch (-want +got):\n%s", diff)
			}
			if rest != tt.wantRest {
				t.Errorf("rest = %q, want %q", rest, tt.wantRest)
			}
		})
	}
}

func TestModeString(t *testing.T) {
	if got := (Mode{Lines: 4, Append: true}).String(); got != "[4+]" {
		t.Errorf("String() = %q", got)
	}
	if got := (Mode{Lines: 4}).String(); got != "[4]" {
		t.Errorf("String() = %q", got)
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name    string
		current string
		result  string
		mode    *Mode
		want    string
	}{
		{"replace drops blank lines", "old", "a\n\nb\n", nil, "a\nb"},
		{"append keeps tail", "1\n2\n3", "4\n5", &Mode{Lines: 3, Append: true}, "3\n4\n5"},
		{"append under limit", "1", "2", &Mode{Lines: 5, Append: true}, "1\n2"},
		{"prepend keeps head", "1\n2\n3", "4\n5", &Mode{Lines: 3}, "4\n5\n1"},
		{"prepend on empty", "", "x", &Mode{Lines: 2}, "x"},
		{"crlf", "", "a\r\nb\r\n", nil, "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.current, tt.result, tt.mode); got != tt.want {
				t.Errorf("Merge() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteCopiesChangedStyle(t *testing.T) {
	initial := Style{Color: "#FFFFFF", Background: "#000000", FontSize: 10}
	dev := NewMemoryDevice("log 1", Style{Color: "#00FF00", Background: "#000000", FontSize: 8})

	final := initial
	final.Color = "#FF0000"
	final.FontSize = 14

	Write(dev, "log 2", &Mode{Lines: 10, Append: true}, initial, final)

	want := Style{Color: "#FF0000", Background: "#000000", FontSize: 14}
	if diff := cmp.Diff(want, StyleOf(dev)); diff != "" {
		t.Errorf("style mismatch (-want +got):\n%s", diff)
	}
	if dev.Text() != "log 1\nlog 2" {
		t.Errorf("text = %q", dev.Text())
	}
	if dev.Writes() != 1 {
		t.Errorf("writes = %d, want 1", dev.Writes())
	}
}

func TestWriteLeavesUnchangedStyle(t *testing.T) {
	style := Style{Color: "#FFFFFF", Background: "#000000", FontSize: 10}
	dev := NewMemoryDevice("", Style{Color: "#123456", Background: "#654321", FontSize: 6})

	Write(dev, "hello", nil, style, style)

	if diff := cmp.Diff(Style{Color: "#123456", Background: "#654321", FontSize: 6}, StyleOf(dev)); diff != "" {
		t.Errorf("style changed (-want +got):\n%s", diff)
	}
}
