package script

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/vnykmshr/scriptflow/pkg/display"
)

func testBase() *MemoryEntity {
	e := NewMemoryEntity(1042, "Akua Base", Base)
	e.AddDevice("LCD Status", "")
	e.AddDevice("LCD Cargo 1", "")
	e.AddDevice("LCD Cargo 2", "")
	e.AddDevice("LCD Log", "old line")
	e.AddDevice("Script:LCD Status", "Fuel {{.Fuel}}")
	e.AddDevice("Script:LCD Cargo*", "cargo")
	e.AddDevice("Script:[5+]LCD Log", "log entry")
	e.AddDevice("Script:", "Targets:[3]LCD Status, LCD Sttus\nhello")
	return e
}

func TestIdentity(t *testing.T) {
	if got := Identity(1042, "Script:LCD Status"); got != "1042/Script:LCD Status" {
		t.Errorf("Identity() = %q", got)
	}
}

func TestBuild(t *testing.T) {
	e := testBase()

	tests := []struct {
		device     string
		script     string
		targets    []string
		unresolved []string
		mode       *display.Mode
	}{
		{"Script:LCD Status", "Fuel {{.Fuel}}", []string{"LCD Status"}, nil, nil},
		{"Script:LCD Cargo*", "cargo", []string{"LCD Cargo 1", "LCD Cargo 2"}, nil, nil},
		{"Script:[5+]LCD Log", "log entry", []string{"LCD Log"}, nil, &display.Mode{Lines: 5, Append: true}},
		{"Script:", "hello", []string{"LCD Status"}, []string{"LCD Sttus"}, &display.Mode{Lines: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.device, func(t *testing.T) {
			job, err := Build(e, tt.device)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if job.ID != Identity(1042, tt.device) {
				t.Errorf("ID = %q", job.ID)
			}
			if job.Script != tt.script {
				t.Errorf("Script = %q, want %q", job.Script, tt.script)
			}
			if diff := cmp.Diff(tt.targets, job.Targets, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Targets (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.unresolved, job.Unresolved, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Unresolved (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.mode, job.Mode); diff != "" {
				t.Errorf("Mode (-want +got):\n%s", diff)
			}
			if job.IsPlaceholder() {
				t.Error("job on a loaded entity reported as placeholder")
			}
		})
	}
}

func TestBuildFindsDebugDevice(t *testing.T) {
	e := NewMemoryEntity(5, "Outpost", Base)
	e.AddDevice("LCD", "")
	dbg := e.AddDevice("ScriptDebug:LCD", "")
	e.AddDevice("Script:LCD", "x")
	e.AddDevice("Script:LCD 2", "y")

	job, err := Build(e, "Script:LCD")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if job.Debug != "ScriptDebug:LCD" || job.DebugDevice() != dbg {
		t.Errorf("Debug = %q, device %v", job.Debug, job.DebugDevice())
	}

	other, err := Build(e, "Script:LCD 2")
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if other.Debug != "" || other.DebugDevice() != nil {
		t.Errorf("job without a debug device got %q", other.Debug)
	}
}

func TestBuildErrors(t *testing.T) {
	e := testBase()

	if _, err := Build(e, "LCD Status"); !errors.Is(err, ErrNotScriptDevice) {
		t.Errorf("Build(non-script) = %v", err)
	}
	if _, err := Build(e, "Script:Missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Build(missing) = %v", err)
	}
}

func TestTargetsLineWithoutBody(t *testing.T) {
	e := NewMemoryEntity(7, "Scout", SmallVessel)
	e.AddDevice("LCD A", "")
	e.AddDevice("Script:", "Targets:LCD A")

	job, err := Build(e, "Script:")
	if err != nil {
		t.Fatal(err)
	}
	if job.Script != "" {
		t.Errorf("Script = %q, want empty", job.Script)
	}
	if diff := cmp.Diff([]string{"LCD A"}, job.Targets); diff != "" {
		t.Errorf("Targets (-want +got):\n%s", diff)
	}
}

func TestProxyEntityYieldsPlaceholders(t *testing.T) {
	e := NewProxyEntity(9, "Far Away", CapitalVessel)
	e.AddDevice("Script:LCD", "ignored")

	jobs, err := Discover(e)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("got %d jobs, want 1", len(jobs))
	}
	if !jobs[0].IsPlaceholder() {
		t.Error("proxy job should be a placeholder")
	}
	if jobs[0].Script != "" {
		t.Error("proxy device text should not be read")
	}
}

func TestDiscover(t *testing.T) {
	e := testBase()
	e.AddDevice("Script:Gone", "x")
	e.RemoveDevice("Script:Gone")

	jobs, err := Discover(e)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	var ids []string
	for _, j := range jobs {
		ids = append(ids, j.DeviceName)
	}
	want := []string{"Script:LCD Status", "Script:LCD Cargo*", "Script:[5+]LCD Log", "Script:"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("discovered (-want +got):\n%s", diff)
	}

	asteroid := NewMemoryEntity(3, "Rock", Asteroid)
	asteroid.AddDevice("Script:LCD", "x")
	jobs, err = Discover(asteroid)
	if err != nil || len(jobs) != 0 {
		t.Errorf("non-scriptable entity gave %d jobs, err %v", len(jobs), err)
	}
}

func TestJobDevices(t *testing.T) {
	e := testBase()
	job, err := Build(e, "Script:LCD Cargo*")
	if err != nil {
		t.Fatal(err)
	}
	e.RemoveDevice("LCD Cargo 2")

	if got := len(job.Devices()); got != 1 {
		t.Errorf("Devices() = %d, want 1 after removal", got)
	}
}

func TestVars(t *testing.T) {
	v := NewVars()
	v.Set("total", 12)
	if got, ok := v.Get("total"); !ok || got != 12 {
		t.Errorf("Get = %v, %v", got, ok)
	}
	if _, ok := v.Get("missing"); ok {
		t.Error("missing key found")
	}
	if v.Len() != 1 {
		t.Errorf("Len = %d", v.Len())
	}
}
