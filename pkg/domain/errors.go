package domain

import (
	"errors"
	"fmt"
)

// ErrPathNotFound is returned when a path id is absent from the store.
var ErrPathNotFound = errors.New("path not found")

// ErrNodeNotFound is returned when a node id is absent from a path.
var ErrNodeNotFound = errors.New("node not found")

// ErrUnknownNodeType is returned when a type id is absent from the registry.
var ErrUnknownNodeType = errors.New("unknown node type")

// ErrCapacityExceeded is returned when a node type's instance cap is already reached.
var ErrCapacityExceeded = errors.New("node type capacity exceeded")

// ErrSessionNotFound is returned when a learner or editor session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// CapacityError carries the type and limit that rejected a node creation.
type CapacityError struct {
	TypeID string
	Label  string
	Limit  int
}

func (e *CapacityError) Error() string {
	label := e.Label
	if label == "" {
		label = e.TypeID
	}
	if e.Limit == 1 {
		return fmt.Sprintf("a path can only have one %s node", label)
	}
	return fmt.Sprintf("a path can only have %d %s nodes", e.Limit, label)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}
