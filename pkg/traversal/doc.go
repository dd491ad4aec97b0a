// Package traversal turns a path graph into a learner-facing play order and walks
// learners through it.
//
// Linearize follows each node's primary output port from the Start node. A Session keeps
// the per-node progress of one learner and reports every visit to an Emitter:
//
//	initialized (path)  on Start
//	launched (node)     when a node becomes active
//	completed (node)    when a node is left, with the elapsed duration
//	passed/failed       on ReportResult
//	completed (path)    when an End node is reached
//
// Emitters must return quickly; delivery to a record store happens elsewhere.
package traversal
