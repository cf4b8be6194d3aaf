// Package ports defines interfaces for infrastructure operations.
// These ports enable dependency inversion - the engine and invocation
// service depend on abstractions, and the wazero adapter (or a test fake)
// implements them.
package ports
