package script

import (
	"sync"

	"github.com/vnykmshr/scriptflow/pkg/display"
)

// EntityType classifies an entity in the world.
type EntityType string

const (
	Base          EntityType = "BA"
	CapitalVessel EntityType = "CV"
	SmallVessel   EntityType = "SV"
	HoverVessel   EntityType = "HV"
	Asteroid      EntityType = "AST"
	Player        EntityType = "PLY"
)

// Scriptable reports whether entities of this type run scripts.
func (t EntityType) Scriptable() bool {
	switch t {
	case Base, CapitalVessel, SmallVessel, HoverVessel:
		return true
	}
	return false
}

// Entity is a structure carrying devices.
type Entity interface {
	ID() int64
	Name() string
	Type() EntityType

	// IsProxy reports a stand-in for an entity whose devices are not loaded.
	IsProxy() bool

	// DeviceNames returns custom device names in a stable order.
	DeviceNames() []string

	// Device returns the named device or nil.
	Device(name string) display.Device
}

// MemoryEntity is an in-memory Entity.
type MemoryEntity struct {
	id    int64
	name  string
	typ   EntityType
	proxy bool

	mu      sync.RWMutex
	order   []string
	devices map[string]*display.MemoryDevice
}

// NewMemoryEntity creates an entity without devices.
func NewMemoryEntity(id int64, name string, typ EntityType) *MemoryEntity {
	return &MemoryEntity{id: id, name: name, typ: typ, devices: make(map[string]*display.MemoryDevice)}
}

// NewProxyEntity creates a placeholder entity.
func NewProxyEntity(id int64, name string, typ EntityType) *MemoryEntity {
	e := NewMemoryEntity(id, name, typ)
	e.proxy = true
	return e
}

// AddDevice adds or replaces a device and returns it.
func (e *MemoryEntity) AddDevice(name, text string) *display.MemoryDevice {
	return e.AddStyledDevice(name, text, display.Style{})
}

// AddStyledDevice adds or replaces a device with an initial style.
func (e *MemoryEntity) AddStyledDevice(name, text string, style display.Style) *display.MemoryDevice {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.devices[name]; !ok {
		e.order = append(e.order, name)
	}
	d := display.NewMemoryDevice(text, style)
	e.devices[name] = d
	return d
}

// RemoveDevice deletes a device.
func (e *MemoryEntity) RemoveDevice(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.devices[name]; !ok {
		return
	}
	delete(e.devices, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}

// MemoryDevice returns the concrete device for name, or nil.
func (e *MemoryEntity) MemoryDevice(name string) *display.MemoryDevice {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.devices[name]
}

func (e *MemoryEntity) ID() int64        { return e.id }
func (e *MemoryEntity) Name() string     { return e.name }
func (e *MemoryEntity) Type() EntityType { return e.typ }
func (e *MemoryEntity) IsProxy() bool    { return e.proxy }

func (e *MemoryEntity) DeviceNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.order...)
}

func (e *MemoryEntity) Device(name string) display.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()
	d, ok := e.devices[name]
	if !ok {
		return nil
	}
	return d
}
