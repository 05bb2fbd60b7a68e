package render

import (
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/vnykmshr/scriptflow/pkg/cachestore"
	gferrors "github.com/vnykmshr/scriptflow/pkg/common/errors"
	"github.com/vnykmshr/scriptflow/pkg/display"
	"github.com/vnykmshr/scriptflow/pkg/logx"
	"github.com/vnykmshr/scriptflow/pkg/metrics"
	"github.com/vnykmshr/scriptflow/pkg/script"
)

// DefaultMaxTemplates bounds the compile cache when Config.MaxTemplates is zero.
const DefaultMaxTemplates = 1000

// ErrorTimeLayout formats the time shown next to a render error.
const ErrorTimeLayout = "15:04:05"

// Config configures a Renderer.
type Config struct {
	// Name labels metrics and log lines.
	Name string

	// Cache backs setcache and getcache. Those helpers fail when it is nil.
	Cache cachestore.Store

	// MaxTemplates bounds the compile cache.
	MaxTemplates int

	// Location is used by datetime without an offset. Defaults to time.Local.
	Location *time.Location

	// Now defaults to time.Now.
	Now func() time.Time

	Logger  logx.Logger
	Metrics *metrics.Registry
}

// Data is the root value of a script template.
type Data struct {
	ID         string
	EntityID   int64
	Entity     string
	EntityType string
	Device     string
	Targets    []string
	Now        time.Time
}

// Renderer compiles and executes scripts.
type Renderer struct {
	name     string
	store    cachestore.Store
	location *time.Location
	now      func() time.Time
	log      logx.Logger
	metrics  *metrics.Registry
	cache    *compileCache
}

// New creates a Renderer.
func New(cfg Config) (*Renderer, error) {
	if cfg.MaxTemplates < 0 {
		return nil, gferrors.NewValidationError("render", "MaxTemplates", cfg.MaxTemplates, "must not be negative")
	}
	if cfg.MaxTemplates == 0 {
		cfg.MaxTemplates = DefaultMaxTemplates
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Renderer{
		name:     cfg.Name,
		store:    cfg.Cache,
		location: cfg.Location,
		now:      cfg.Now,
		log:      cfg.Logger.With(logx.String("comp", "render"), logx.String("renderer", cfg.Name)),
		metrics:  cfg.Metrics,
		cache:    newCompileCache(cfg.MaxTemplates),
	}, nil
}

// Compile returns the template for text, from the cache when possible.
func (r *Renderer) Compile(text string) (*template.Template, error) {
	t, hit, err := r.cache.get(text, r.compile)
	if r.metrics != nil {
		if hit {
			r.metrics.RenderCacheHits.WithLabelValues(r.name).Inc()
		} else {
			r.metrics.RenderCacheMisses.WithLabelValues(r.name).Inc()
		}
	}
	return t, err
}

func (r *Renderer) compile(text string) (*template.Template, error) {
	return template.New("script").Funcs(r.funcs(nil)).Parse(text)
}

// CachedTemplates returns the number of compiled templates held.
func (r *Renderer) CachedTemplates() int { return r.cache.len() }

// ResetCache drops every compiled template.
func (r *Renderer) ResetCache() { r.cache.reset() }

// Render executes the script of job and returns the output together with
// the style as the script left it, starting from initial.
func (r *Renderer) Render(ctx context.Context, job *script.Job, initial display.Style) (string, display.Style, error) {
	t, err := r.Compile(job.Script)
	if err != nil {
		return "", initial, err
	}

	t, err = t.Clone()
	if err != nil {
		return "", initial, err
	}
	run := &runState{ctx: ctx, job: job, tmpl: t, style: initial, now: r.now()}
	t.Funcs(r.funcs(run))

	var out strings.Builder
	if err := t.Execute(&out, r.data(job, run.now)); err != nil {
		return "", initial, err
	}
	return out.String(), run.style, nil
}

func (r *Renderer) data(job *script.Job, now time.Time) Data {
	d := Data{
		ID:      job.ID,
		Device:  job.DeviceName,
		Targets: job.Targets,
		Now:     now,
	}
	if job.Entity != nil {
		d.EntityID = job.Entity.ID()
		d.Entity = job.Entity.Name()
		d.EntityType = string(job.Entity.Type())
	}
	return d
}

// Execute renders job and writes the result to its target devices. On
// failure every target shows the error and the time, and the error is
// returned. A debug device, when the job has one, lists the targets and
// the error.
func (r *Renderer) Execute(ctx context.Context, job *script.Job) error {
	devices := job.Devices()

	var initial display.Style
	if len(devices) > 0 {
		initial = display.StyleOf(devices[0])
	}

	debug := job.DebugDevice()
	if debug != nil {
		debug.SetText(debugText(job))
	}

	out, final, err := r.Render(ctx, job, initial)
	if err != nil {
		msg := fmt.Sprintf("%v %s", err, r.now().In(r.location).Format(ErrorTimeLayout))
		for _, dev := range devices {
			dev.SetText(msg)
		}
		if debug != nil {
			debug.SetText(debug.Text() + "\n" + msg)
		}
		return gferrors.NewOperationError("render", "execute", err).WithContext(job.ID)
	}

	for _, dev := range devices {
		display.Write(dev, out, job.Mode, initial, final)
	}
	r.log.Trace("script rendered", logx.String("id", job.ID), logx.Int("targets", len(devices)))
	return nil
}

func debugText(job *script.Job) string {
	text := "Targets:" + strings.Join(job.Targets, ";")
	if len(job.Unresolved) > 0 {
		text += "\nUnresolved:" + strings.Join(job.Unresolved, ";")
	}
	return text
}
