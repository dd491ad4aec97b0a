/*
Package domain contains the core domain models of the learning path engine.

It defines the entities that describe a learning path as a typed directed graph,
the runtime progress of a learner walking that graph, and the activity statements
emitted to an external record store. This package is kept pure and free of external
dependencies like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - NodeTypeDefinition: Schema of a step category (ports, fields, cardinality).
  - PathNode / Connection: The vertices and port-to-port edges of a path.
  - LearningPath: The unit of persistence and the unit of traversal.
  - PathPatch: A partial document with presence semantics, used by create/update.
  - NodeProgress: Runtime-only status of a node inside a learner session.
  - Statement: One activity-tracking record (who, did what, to what, when).
*/
package domain
