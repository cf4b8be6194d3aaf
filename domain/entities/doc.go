// Package entities provides the core domain types for the BayesianAstro
// host bridge: processing configuration, file manifests, results, and the
// structured error detail carried across the host/guest boundary.
package entities
