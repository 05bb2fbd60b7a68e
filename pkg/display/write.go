package display

import (
	"strconv"
	"strings"
)

// Mode selects how a render result is merged with the text already on a device.
type Mode struct {
	// Lines is the size of the visible window.
	Lines int

	// Append adds new lines after the existing ones and keeps the last Lines.
	// Otherwise new lines go first and the first Lines are kept.
	Append bool
}

func (m Mode) String() string {
	if m.Append {
		return "[" + strconv.Itoa(m.Lines) + "+]"
	}
	return "[" + strconv.Itoa(m.Lines) + "]"
}

// ParseMode splits a leading "[N]" or "[N+]" off spec. Without a well formed
// prefix mode is nil. A bracket whose count is not a positive integer is
// stripped and ignored.
func ParseMode(spec string) (mode *Mode, rest string) {
	if !strings.HasPrefix(spec, "[") {
		return nil, spec
	}
	end := strings.IndexByte(spec, ']')
	if end <= 0 {
		return nil, spec
	}

	inner := strings.TrimSpace(spec[1:end])
	rest = spec[end+1:]

	appendAtEnd := strings.HasSuffix(inner, "+")
	inner = strings.TrimSuffix(inner, "+")
	n, err := strconv.Atoi(strings.TrimSpace(inner))
	if err != nil || n <= 0 {
		return nil, rest
	}
	return &Mode{Lines: n, Append: appendAtEnd}, rest
}

// Lines splits text on newlines and drops empty lines.
func Lines(text string) []string {
	parts := strings.Split(text, "\n")
	out := parts[:0]
	for _, p := range parts {
		p = strings.TrimRight(p, "\r")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Merge combines a render result with the current device text according to mode.
func Merge(current, result string, mode *Mode) string {
	added := Lines(result)
	if mode == nil {
		return strings.Join(added, "\n")
	}

	existing := Lines(current)
	var merged []string
	if mode.Append {
		merged = append(existing, added...)
		if len(merged) > mode.Lines {
			merged = merged[len(merged)-mode.Lines:]
		}
	} else {
		merged = append(added, existing...)
		if len(merged) > mode.Lines {
			merged = merged[:mode.Lines]
		}
	}
	return strings.Join(merged, "\n")
}

// Write puts result on dev and copies every style attribute that differs
// between initial (before rendering) and final (after rendering).
func Write(dev Device, result string, mode *Mode, initial, final Style) {
	dev.SetText(Merge(dev.Text(), result, mode))

	if final.Color != initial.Color {
		dev.SetColor(final.Color)
	}
	if final.Background != initial.Background {
		dev.SetBackground(final.Background)
	}
	if final.FontSize != initial.FontSize {
		dev.SetFontSize(final.FontSize)
	}
}
