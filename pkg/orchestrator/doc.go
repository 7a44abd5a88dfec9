// Package orchestrator wires the registry → dispatcher → populator → gate
// pipeline into sessions, providing dependency injection friendly helpers for
// consumers that prefer a single entry point.
package orchestrator
