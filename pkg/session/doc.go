/*
Package session keeps live learner and editor sessions in memory.

A Manager maps session ids to values and serializes every operation on one session
behind a per-session lock, optionally backed by a distributed lock so replicas
sharing a Redis instance do not interleave. Idle sessions can be swept after a timeout.
*/
package session
