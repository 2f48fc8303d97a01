// Package session defines the session entity, its lifecycle state machine,
// vote bookkeeping, and end-of-session verdict computation.
//
// Sessions move strictly forward through waiting, active, completed, and
// archived. All mutation happens through entity methods so invariant checks
// live next to the data they protect; the orchestrator owns locking and
// timers.
package session
