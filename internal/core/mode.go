// Package core is the orchestration layer. It composes the transport,
// backend client, codecs and session manager into complete operational
// modes, and provides a builder that selects the right mode from a
// Config.
//
// Architecture layers (bottom → top):
//
//	wire → packet/codec → session → proxy → core → cmd (CLI)
//	          transport → backend ↗
package core

import "context"

// Mode is a complete operational mode of mcproxy (serve or probe). Each
// mode owns its full lifecycle from startup to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
