// Package ratelimit groups admission-control primitives.
//
// Subpackages:
//   - concurrency: counting permit limiter used as the worker pool gate
package ratelimit
