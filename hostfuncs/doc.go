// Package hostfuncs implements the host side of the guest-to-host call
// surface: an immutable registry of named handlers the pipeline module may
// invoke while a blocking call is in flight. Delivery is synchronous on the
// calling goroutine; there is no concurrency here.
package hostfuncs
