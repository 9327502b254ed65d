// Package prober provides the network and concurrency primitives behind a
// streamcheck pass.
//
// This package is internal to streamcheck. The main components are:
//
//   - [Client]: HEAD-only HTTP client with a pooled, capped transport
//   - [Pool]: bounded worker pool over indexed work items
//
// Users of the streamcheck library should not need to interact with this
// package directly. Configuration is done through the root package options.
package prober
