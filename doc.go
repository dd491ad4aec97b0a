/*
Package learnpath is a learning path graph engine.

A learning path is a typed directed graph of steps (theory, video, quiz, gate,
branch and more) described by a node-type catalog. Authors build the graph in a
visual editor session; the validator checks it; learners walk a linearized order
of it while activity statements are sent to an external record store.

# Architecture

The packages follow a hexagonal layout:

  - pkg/domain: pure document, catalog, progress and statement types.
  - pkg/registry: the node-type catalog.
  - pkg/graph: the mutation model that keeps a path's structural invariants.
  - pkg/editor: the pointer/keyboard interaction state machine with camera and minimap.
  - pkg/traversal: linearization and learner sessions.
  - pkg/tracking: statement building and record-store delivery.
  - pkg/ports and pkg/adapters: the PathStore port and its memory, file, Redis and PostgreSQL adapters.

Service wires them together for the HTTP, MCP and CLI front ends.

# Usage

	svc := learnpath.New(learnpath.WithStore(memory.NewStore()))

	p, err := svc.CreatePath(ctx, domain.PathPatch{})
	if err != nil {
		log.Fatal(err)
	}

	res, _ := svc.ValidatePath(ctx, p.ID)
	fmt.Println(res.Valid, res.Errors)

	ls, err := svc.StartSession(ctx, p.ID, domain.Learner{Name: "Ada"})
	if err != nil {
		log.Fatal(err)
	}
	_ = svc.DoSession(ctx, ls.ID(), func(ctx context.Context, s *learnpath.LearnerSession) error {
		return s.Advance(ctx)
	})
*/
package learnpath
