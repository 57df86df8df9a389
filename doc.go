// Package session provides a client handle and a reactive session layer on
// top of a remote identity service and document store.
//
// Client:
//   - Client owns the process-wide service handles for one backend project.
//     Initialize is idempotent and local; Auth and Store only hand out
//     handles after initialization, so consumers never see a partial set.
//
// Session:
//   - Manager subscribes to the identity change stream and, while an
//     identity is present, watches the profile document keyed by the
//     identity id in the users collection. Its State snapshot carries the
//     identity, the profile fields, a loading flag, and the accumulated
//     error messages; OnState delivers snapshots in order.
//   - Login, Logout, and Register report success as a boolean and record
//     failures as human-readable messages on the session instead of
//     returning them, so a remote failure never tears down the session.
//
// The identity service and document store are constructor-injected
// interfaces. The localbackend subpackage ships a bun/sqlite implementation
// of both for local development and tests.
package session
