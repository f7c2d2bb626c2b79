// Package session implements the conversation thread store: the only
// mutable structure shared between concurrent invocations.
//
// Access to a thread goes through a Lease. At most one lease per thread id
// exists at a time, so reads and writes for a thread are linearizable while
// different threads never coordinate. By default a second Acquire on a busy
// thread fails immediately with core.ErrThreadBusy; WaitForLease makes it
// block until the lease is free or the context ends.
//
// State is kept for the lifetime of the process only.
package session
