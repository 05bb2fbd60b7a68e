package script

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/vnykmshr/scriptflow/pkg/display"
)

// ErrNotScriptDevice is returned by Build for a device without the script prefix.
var ErrNotScriptDevice = errors.New("not a script device")

// ErrDeviceNotFound is returned by Build when the entity lacks the device.
var ErrDeviceNotFound = errors.New("device not found")

// Identity returns the stable key of a script device: "<entityID>/<deviceName>".
func Identity(entityID int64, deviceName string) string {
	return strconv.FormatInt(entityID, 10) + "/" + deviceName
}

// Job is one script execution request.
type Job struct {
	ID         string
	Entity     Entity
	DeviceName string

	// Script is the template text with any Targets: line removed.
	Script string

	Targets    []string
	Unresolved []string
	Mode       *display.Mode

	// Debug names the ScriptDebug: device of this script, or is empty.
	Debug string

	// Data holds values scripts store with set during this run.
	Data *Vars
}

// IsPlaceholder reports a job for a proxy entity, which must not run.
func (j *Job) IsPlaceholder() bool {
	return j.Entity == nil || j.Entity.IsProxy()
}

// Devices returns the target devices that still exist.
func (j *Job) Devices() []display.Device {
	out := make([]display.Device, 0, len(j.Targets))
	for _, name := range j.Targets {
		if d := j.Entity.Device(name); d != nil {
			out = append(out, d)
		}
	}
	return out
}

// DebugDevice returns the debug device when it exists.
func (j *Job) DebugDevice() display.Device {
	if j.Debug == "" || j.Entity == nil {
		return nil
	}
	return j.Entity.Device(j.Debug)
}

// Build reads the script device deviceName on entity and resolves its targets.
func Build(entity Entity, deviceName string) (*Job, error) {
	if !IsScriptDevice(deviceName) {
		return nil, fmt.Errorf("%w: %q", ErrNotScriptDevice, deviceName)
	}

	job := &Job{
		ID:         Identity(entity.ID(), deviceName),
		Entity:     entity,
		DeviceName: deviceName,
		Data:       NewVars(),
	}
	if entity.IsProxy() {
		return job, nil
	}

	dev := entity.Device(deviceName)
	if dev == nil {
		return nil, fmt.Errorf("%w: %s on entity %d", ErrDeviceNotFound, deviceName, entity.ID())
	}

	mode, spec := display.ParseMode(strings.TrimPrefix(deviceName, ScriptPrefix))
	patterns := SplitTargets(spec)

	body := dev.Text()
	if strings.HasPrefix(body, TargetsPrefix) {
		line, rest, _ := strings.Cut(body, "\n")
		lineMode, lineSpec := display.ParseMode(strings.TrimSpace(strings.TrimPrefix(line, TargetsPrefix)))
		if lineMode != nil {
			mode = lineMode
		}
		patterns = append(patterns, SplitTargets(lineSpec)...)
		body = rest
	}

	res := Resolve(entity.DeviceNames(), patterns)
	job.Script = body
	job.Targets = res.Targets
	job.Unresolved = res.Unresolved
	job.Mode = mode
	if name := DebugName(deviceName); entity.Device(name) != nil {
		job.Debug = name
	}
	return job, nil
}

// Discover builds a job for every script device on entity. Entities whose
// type does not run scripts yield nothing. Devices that fail to build are
// reported together in the returned error.
func Discover(entity Entity) ([]*Job, error) {
	if !entity.Type().Scriptable() {
		return nil, nil
	}

	var (
		jobs []*Job
		errs []error
	)
	for _, name := range entity.DeviceNames() {
		if !IsScriptDevice(name) {
			continue
		}
		job, err := Build(entity, name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, errors.Join(errs...)
}

// Vars is a concurrency-safe string keyed map.
type Vars struct {
	mu   sync.RWMutex
	vals map[string]any
}

func NewVars() *Vars {
	return &Vars{vals: make(map[string]any)}
}

func (v *Vars) Set(key string, val any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.vals[key] = val
}

func (v *Vars) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.vals[key]
	return val, ok
}

func (v *Vars) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.vals)
}
