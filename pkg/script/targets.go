package script

import (
	"path"
	"strings"

	"github.com/agext/levenshtein"
)

const (
	// ScriptPrefix marks a device whose text is a script.
	ScriptPrefix = "Script:"

	// TargetsPrefix starts an optional first script line listing extra targets.
	TargetsPrefix = "Targets:"

	// DebugPrefix marks a device that receives the resolved targets and
	// errors of the script device with the same suffix.
	DebugPrefix = "ScriptDebug:"
)

// IsScriptDevice reports whether name designates a script device.
func IsScriptDevice(name string) bool {
	return strings.HasPrefix(name, ScriptPrefix)
}

// IsDebugDevice reports whether name designates a script debug device.
func IsDebugDevice(name string) bool {
	return strings.HasPrefix(name, DebugPrefix)
}

// DebugName returns the debug device name for a script device.
func DebugName(scriptDevice string) string {
	return DebugPrefix + strings.TrimPrefix(scriptDevice, ScriptPrefix)
}

// reserved devices are never targets.
func reserved(name string) bool {
	return IsScriptDevice(name) || IsDebugDevice(name)
}

// SplitTargets splits a comma separated target list, trimming blanks.
func SplitTargets(spec string) []string {
	var out []string
	for _, p := range strings.Split(spec, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isPattern(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// Resolution is the outcome of matching target patterns against device names.
type Resolution struct {
	// Targets are matching device names, in pattern order, without duplicates.
	Targets []string

	// Unresolved are literal names that matched no device.
	Unresolved []string
}

// Resolve matches patterns against names. Literal patterns must match exactly;
// patterns containing *, ? or [ use path.Match syntax. Script and debug devices
// never match.
func Resolve(names, patterns []string) Resolution {
	var res Resolution
	seen := make(map[string]bool)

	add := func(n string) {
		if !seen[n] {
			seen[n] = true
			res.Targets = append(res.Targets, n)
		}
	}

	for _, p := range patterns {
		if !isPattern(p) {
			found := false
			for _, n := range names {
				if n == p && !reserved(n) {
					add(n)
					found = true
					break
				}
			}
			if !found && !reserved(p) {
				res.Unresolved = append(res.Unresolved, p)
			}
			continue
		}

		for _, n := range names {
			if reserved(n) {
				continue
			}
			if ok, err := path.Match(p, n); err == nil && ok {
				add(n)
			}
		}
	}
	return res
}

// Suggest returns the device name closest to want, or "" when nothing is close.
func Suggest(want string, names []string) string {
	best, bestDist := "", -1
	limit := len(want)/3 + 1
	for _, n := range names {
		if reserved(n) {
			continue
		}
		d := levenshtein.Distance(strings.ToLower(want), strings.ToLower(n), nil)
		if d > limit {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}
