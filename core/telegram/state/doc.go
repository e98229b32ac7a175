// Package state keeps per-user conversation sessions: the current wizard step
// and the fields collected so far. Stores are pluggable (memory, Redis) and a
// Locker serializes work for one user without blocking the others.
package state
