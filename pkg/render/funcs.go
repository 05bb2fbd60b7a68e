package render

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mitchellh/go-wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vnykmshr/scriptflow/pkg/display"
	"github.com/vnykmshr/scriptflow/pkg/script"
)

// DefaultTimeLayout is used by datetime without a layout argument.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// ErrNoCache is returned by setcache and getcache when no store is configured.
var ErrNoCache = errors.New("no cache store configured")

// maxIncludeDepth bounds nested include, setblock and setcacheblock calls.
const maxIncludeDepth = 16

// runState is what helpers see of the run executing them.
type runState struct {
	ctx   context.Context
	job   *script.Job
	tmpl  *template.Template
	style display.Style
	now   time.Time
	depth int
}

// include renders the defined template name with data.
func (run *runState) include(name string, data ...any) (string, error) {
	if len(data) > 1 {
		return "", errors.New("include: expects a template name and an optional value")
	}
	if run.depth >= maxIncludeDepth {
		return "", fmt.Errorf("include %q: nested more than %d deep", name, maxIncludeDepth)
	}
	var dot any
	if len(data) == 1 {
		dot = data[0]
	}
	run.depth++
	defer func() { run.depth-- }()

	var b strings.Builder
	if err := run.tmpl.ExecuteTemplate(&b, name, dot); err != nil {
		return "", err
	}
	return b.String(), nil
}

// funcs returns the helper set bound to run. At compile time run is nil;
// the helpers are only called on a clone bound to a real run.
func (r *Renderer) funcs(run *runState) template.FuncMap {
	return template.FuncMap{
		"datetime": func(args ...any) (string, error) {
			return r.datetime(run.now, args...)
		},
		"random":    random,
		"split":     split,
		"concat":    concat,
		"substring": substring,
		"chararray": chararray,
		"lookup":    lookup,

		"set": func(key, val any) string {
			run.job.Data.Set(fmt.Sprint(key), val)
			return ""
		},
		"get": func(key any) any {
			v, ok := run.job.Data.Get(fmt.Sprint(key))
			if !ok {
				return ""
			}
			return v
		},
		"setcache": func(key, val any) (string, error) {
			if r.store == nil {
				return "", ErrNoCache
			}
			return "", r.store.Set(run.ctx, fmt.Sprint(key), val)
		},

		// Blocks are captured from {{define}}d templates.
		"include": func(name string, data ...any) (string, error) {
			return run.include(name, data...)
		},
		"setblock": func(key any, name string, data ...any) (string, error) {
			out, err := run.include(name, data...)
			if err != nil {
				return "", fmt.Errorf("setblock: %w", err)
			}
			run.job.Data.Set(fmt.Sprint(key), out)
			return "", nil
		},
		"setcacheblock": func(key any, name string, data ...any) (string, error) {
			if r.store == nil {
				return "", ErrNoCache
			}
			out, err := run.include(name, data...)
			if err != nil {
				return "", fmt.Errorf("setcacheblock: %w", err)
			}
			return "", r.store.Set(run.ctx, fmt.Sprint(key), out)
		},
		"getcache": func(key any) (any, error) {
			if r.store == nil {
				return nil, ErrNoCache
			}
			v, ok, err := r.store.Get(run.ctx, fmt.Sprint(key))
			if err != nil || !ok {
				return "", err
			}
			return v, nil
		},

		"color": func(c string) string {
			run.style.Color = c
			return ""
		},
		"background": func(c string) string {
			run.style.Background = c
			return ""
		},
		"fontsize": func(size any) (string, error) {
			n, err := toInt(size)
			if err != nil {
				return "", fmt.Errorf("fontsize: %w", err)
			}
			run.style.FontSize = n
			return "", nil
		},

		"wrap":  wrap,
		"bytes": bytes,
		"comma": comma,
		"ago": func(t time.Time) string {
			return humanize.RelTime(t, run.now, "ago", "from now")
		},
		"title": func(s any) string {
			return cases.Title(language.Und).String(fmt.Sprint(s))
		},
	}
}

func (r *Renderer) datetime(now time.Time, args ...any) (string, error) {
	if len(args) > 2 {
		return "", errors.New("datetime: expects at most a layout and a UTC offset")
	}
	layout := DefaultTimeLayout
	if len(args) > 0 {
		if s := fmt.Sprint(args[0]); s != "" {
			layout = s
		}
	}
	t := now.In(r.location)
	if len(args) > 1 {
		hours, err := toInt(args[1])
		if err != nil {
			return "", fmt.Errorf("datetime: offset: %w", err)
		}
		t = now.UTC().Add(time.Duration(hours) * time.Hour)
	}
	return t.Format(layout), nil
}

func random(start, end any) (int, error) {
	lo, err := toInt(start)
	if err != nil {
		return 0, fmt.Errorf("random: start: %w", err)
	}
	hi, err := toInt(end)
	if err != nil {
		return 0, fmt.Errorf("random: end: %w", err)
	}
	switch {
	case hi < lo:
		return 0, fmt.Errorf("random: end %d is before start %d", hi, lo)
	case hi == lo:
		return lo, nil
	}
	return lo + rand.IntN(hi-lo), nil
}

func split(text, sep any, removeEmpty ...any) ([]string, error) {
	if len(removeEmpty) > 1 {
		return nil, errors.New("split: expects text, separator and an optional removeEmpty flag")
	}
	drop := false
	if len(removeEmpty) == 1 {
		b, err := toBool(removeEmpty[0])
		if err != nil {
			return nil, fmt.Errorf("split: removeEmpty: %w", err)
		}
		drop = b
	}

	parts := strings.Split(fmt.Sprint(text), unescape(fmt.Sprint(sep)))
	if !drop {
		return parts, nil
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func concat(args ...any) (string, error) {
	if len(args) < 2 {
		return "", errors.New("concat: expects at least two arguments")
	}
	var b strings.Builder
	for i := 0; i < len(args); i++ {
		switch v := args[i].(type) {
		case string:
			b.WriteString(v)
		case []string:
			if i+1 >= len(args) {
				return "", errors.New("concat: a list must be followed by its separator")
			}
			i++
			b.WriteString(strings.Join(v, unescape(fmt.Sprint(args[i]))))
		case nil:
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String(), nil
}

func substring(text, start any, length ...any) (string, error) {
	runes := []rune(fmt.Sprint(text))
	from, err := toInt(start)
	if err != nil {
		return "", fmt.Errorf("substring: start: %w", err)
	}
	if from < 0 || from > len(runes) {
		return "", fmt.Errorf("substring: start %d out of range for length %d", from, len(runes))
	}
	switch len(length) {
	case 0:
		return string(runes[from:]), nil
	case 1:
		n, err := toInt(length[0])
		if err != nil {
			return "", fmt.Errorf("substring: length: %w", err)
		}
		if n < 0 {
			return "", fmt.Errorf("substring: negative length %d", n)
		}
		return string(runes[from:min(from+n, len(runes))]), nil
	default:
		return "", errors.New("substring: expects text, start and an optional length")
	}
}

func chararray(text any) []string {
	runes := []rune(fmt.Sprint(text))
	out := make([]string, len(runes))
	for i, c := range runes {
		out[i] = string(c)
	}
	return out
}

func lookup(list, index any) (any, error) {
	i, err := toInt(index)
	if err != nil {
		return nil, fmt.Errorf("lookup: index: %w", err)
	}
	v := reflect.ValueOf(list)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("lookup: %T is not a list", list)
	}
	if i < 0 || i >= v.Len() {
		return "", nil
	}
	return v.Index(i).Interface(), nil
}

func wrap(width, text any) (string, error) {
	n, err := toInt(width)
	if err != nil || n < 0 {
		return "", fmt.Errorf("wrap: invalid width %v", width)
	}
	return wordwrap.WrapString(fmt.Sprint(text), uint(n)), nil
}

func bytes(n any) (string, error) {
	v, err := toInt(n)
	if err != nil || v < 0 {
		return "", fmt.Errorf("bytes: invalid size %v", n)
	}
	return humanize.Bytes(uint64(v)), nil
}

func comma(n any) (string, error) {
	v, err := toInt(n)
	if err != nil {
		return "", fmt.Errorf("comma: %w", err)
	}
	return humanize.Comma(int64(v)), nil
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int8:
		return int(n), nil
	case int16:
		return int(n), nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint8:
		return int(n), nil
	case uint16:
		return int(n), nil
	case uint32:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("%v (%T) is not a number", v, v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	default:
		return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
	}
}

// unescape interprets Go string escapes such as \n and \t in s. Text that
// is not a valid escaped string is returned unchanged.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	u, err := strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
	if err != nil {
		return s
	}
	return u
}
