// Package validation provides the argument checks shared by scriptflow
// constructors and the configuration loader.
//
// Every helper returns a *errors.ValidationError so callers can report the
// module, field and offending value consistently.
package validation
