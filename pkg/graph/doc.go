// Package graph implements the mutable graph of a learning path.
//
// A Model enforces the structural rules on every mutation: node-type instance caps,
// single-predecessor input ports, single-connection output ports and port membership.
// Rejected connections are reported as a RejectReason value, not an error.
package graph
