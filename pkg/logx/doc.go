// Package logx is the structured logger used across scriptflow.
//
// It wraps zerolog behind a small value type so components can take a Logger
// by value, derive children with With, and stay silent when given the zero
// value. A Service owns the sinks and can swap level and outputs at runtime
// (config hot reload) while every derived Logger keeps working.
//
//	svc, log := logx.New(logx.Config{Level: "debug", Format: "console"})
//	defer svc.Close()
//	log = log.With(logx.String("comp", "execqueue"))
//	log.Debug("dispatch saturated", logx.String("id", id))
package logx
