package learnpath

import (
	"context"
	"errors"
	"fmt"

	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// ErrUnknownVerb is returned when a statement request names a verb that cannot be resolved.
var ErrUnknownVerb = errors.New("unknown verb")

// StatementRequest asks for one statement about a path or one of its nodes.
type StatementRequest struct {
	// Verb is a short name ("completed") or a full IRI.
	Verb string `json:"verb" validate:"required"`
	// NodeID targets a node; empty targets the path itself.
	NodeID     string          `json:"nodeId,omitempty"`
	Learner    *domain.Learner `json:"learner,omitempty"`
	Result     *domain.Result  `json:"result,omitempty"`
	Extensions map[string]any  `json:"extensions,omitempty"`
}

// StatementResponse carries the built statement and what the record store made of it.
type StatementResponse struct {
	Statement domain.Statement  `json:"statement"`
	LRSResult domain.SendResult `json:"lrsResult"`
}

// RecordStatement builds one statement and sends it to the path's record store, waiting for the outcome.
// Delivery failures are reported in LRSResult, never as an error.
func (s *Service) RecordStatement(ctx context.Context, pathID string, req StatementRequest) (StatementResponse, error) {
	verb, ok := domain.LookupVerb(req.Verb)
	if !ok {
		return StatementResponse{}, fmt.Errorf("%w: %q", ErrUnknownVerb, req.Verb)
	}
	p, err := s.store.Get(ctx, pathID)
	if err != nil {
		return StatementResponse{}, err
	}
	var node *domain.PathNode
	if req.NodeID != "" {
		if node = p.Node(req.NodeID); node == nil {
			return StatementResponse{}, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, req.NodeID)
		}
	}
	learner := domain.Learner{Name: s.actorName}
	if req.Learner != nil {
		learner = *req.Learner
	}

	stmt := s.builder.Build(s.builder.Actor(learner), verb, p, node, req.Result, req.Extensions)
	res := s.sender.Send(ctx, stmt, p.LRSConfig)
	s.logger.Debug("statement recorded", "path_id", p.ID, "verb", verb.Name(), "stored", res.Stored)
	return StatementResponse{Statement: stmt, LRSResult: res}, nil
}
