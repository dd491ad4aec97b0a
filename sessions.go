package learnpath

import (
	"context"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/editor"
	"github.com/pseng/MyH5P-pages/pkg/graph"
	"github.com/pseng/MyH5P-pages/pkg/tracking"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// LearnerSession is one learner walking one path.
// The traversal state lives only here; it is never written back to the path.
type LearnerSession struct {
	*traversal.Session
	Learner domain.Learner

	dispatcher *tracking.Dispatcher
}

func (ls *LearnerSession) flush() {
	if ls.dispatcher != nil {
		ls.dispatcher.Flush()
	}
}

// StartSession loads a path, starts a learner session on it and visits the first node.
// Statements go to the path's record store in the background when one is configured.
func (s *Service) StartSession(ctx context.Context, pathID string, learner domain.Learner) (*LearnerSession, error) {
	p, err := s.store.Get(ctx, pathID)
	if err != nil {
		return nil, err
	}
	if learner.Name == "" && learner.ID == "" && learner.Email == "" {
		learner.Name = s.actorName
	}

	id := s.newID()
	ls := &LearnerSession{Learner: learner}
	opts := []traversal.Option{
		traversal.WithID(id),
		traversal.WithLifecycleHooks(s.hooks),
		traversal.WithMetrics(s.metrics),
		traversal.WithLogger(s.logger),
	}
	if p.LRSConfig.Configured() {
		ls.dispatcher = tracking.NewDispatcher(s.builder, s.sender, p, s.builder.Actor(learner),
			tracking.WithSendTimeout(s.sendTimeout),
			tracking.WithDispatcherLogger(s.logger),
		)
		opts = append(opts, traversal.WithEmitter(ls.dispatcher))
	}
	ls.Session = traversal.NewSession(p, s.reg, opts...)

	if err := ls.Start(ctx); err != nil {
		return nil, err
	}
	s.learners.Put(id, ls)
	s.logger.Info("learner session started", "session_id", id, "path_id", p.ID, "nodes", len(ls.Order().IDs))
	return ls, nil
}

// Session returns a learner session without locking it.
func (s *Service) Session(id string) (*LearnerSession, error) {
	return s.learners.Get(id)
}

// DoSession runs fn on a learner session while holding its lock.
func (s *Service) DoSession(ctx context.Context, id string, fn func(context.Context, *LearnerSession) error) error {
	return s.learners.Do(ctx, id, fn)
}

// EndSession discards a learner session after its pending statements are delivered.
func (s *Service) EndSession(ctx context.Context, id string) error {
	ls, err := s.learners.Get(id)
	if err != nil {
		return err
	}
	if err := s.learners.Delete(ctx, id); err != nil {
		return err
	}
	ls.flush()
	s.logger.Info("learner session ended", "session_id", id, "finished", ls.Finished())
	return nil
}

// LearnerSessions returns the live learner session ids.
func (s *Service) LearnerSessions() []string {
	return s.learners.List()
}

// OpenEditor loads a path into a new editor session.
func (s *Service) OpenEditor(ctx context.Context, pathID string, opts ...editor.Option) (string, *editor.Session, error) {
	p, err := s.store.Get(ctx, pathID)
	if err != nil {
		return "", nil, err
	}
	model := graph.New(p, s.reg,
		graph.WithMetrics(s.metrics),
		graph.WithLogger(s.logger),
	)
	es := editor.NewSession(model, append([]editor.Option{editor.WithLogger(s.logger)}, opts...)...)
	id := s.editors.Add(es)
	s.logger.Info("editor session opened", "session_id", id, "path_id", p.ID)
	return id, es, nil
}

// DoEditor runs fn on an editor session while holding its lock.
func (s *Service) DoEditor(ctx context.Context, id string, fn func(context.Context, *editor.Session) error) error {
	return s.editors.Do(ctx, id, fn)
}

// SaveEditor writes the edited document back to the store as a whole-document overwrite.
func (s *Service) SaveEditor(ctx context.Context, id string) (*domain.LearningPath, error) {
	var saved *domain.LearningPath
	err := s.editors.Do(ctx, id, func(ctx context.Context, es *editor.Session) error {
		p := es.Model().Path()
		out, err := s.store.Update(ctx, p.ID, domain.PatchFromPath(p))
		if err != nil {
			return err
		}
		saved = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("editor session saved", "session_id", id, "path_id", saved.ID)
	return saved, nil
}

// CloseEditor discards an editor session without saving.
func (s *Service) CloseEditor(ctx context.Context, id string) error {
	return s.editors.Delete(ctx, id)
}
