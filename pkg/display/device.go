package display

import "sync"

// Device is a text panel. Implementations must be safe for concurrent use.
type Device interface {
	Text() string
	SetText(text string)

	Color() string
	SetColor(color string)

	Background() string
	SetBackground(color string)

	FontSize() int
	SetFontSize(size int)
}

// Style is the visual state a script may change while rendering.
type Style struct {
	Color      string
	Background string
	FontSize   int
}

// StyleOf reads the current style of d.
func StyleOf(d Device) Style {
	return Style{Color: d.Color(), Background: d.Background(), FontSize: d.FontSize()}
}

// MemoryDevice is an in-memory Device.
type MemoryDevice struct {
	mu         sync.RWMutex
	text       string
	color      string
	background string
	fontSize   int
	writes     int
}

// NewMemoryDevice creates a device showing text in the given style.
func NewMemoryDevice(text string, style Style) *MemoryDevice {
	return &MemoryDevice{
		text:       text,
		color:      style.Color,
		background: style.Background,
		fontSize:   style.FontSize,
	}
}

func (d *MemoryDevice) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

func (d *MemoryDevice) SetText(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.text = text
	d.writes++
}

func (d *MemoryDevice) Color() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.color
}

func (d *MemoryDevice) SetColor(color string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.color = color
}

func (d *MemoryDevice) Background() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.background
}

func (d *MemoryDevice) SetBackground(color string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.background = color
}

func (d *MemoryDevice) FontSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.fontSize
}

func (d *MemoryDevice) SetFontSize(size int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fontSize = size
}

// Writes returns how many times SetText was called.
func (d *MemoryDevice) Writes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes
}
