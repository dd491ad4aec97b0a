package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// PathPatch is a partial path document. Only the fields present in the payload are applied;
// an explicit `"lrsConfig": null` clears the record-store configuration.
type PathPatch struct {
	Title          *string
	Description    *string
	Status         *PathStatus
	Nodes          *[]PathNode
	Connections    *[]Connection
	LRSConfig      *LRSConfig
	ClearLRSConfig bool
}

// UnmarshalJSON decodes a patch, recording which keys were present.
func (p *PathPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decode := func(key string, dst any) error {
		if err := json.Unmarshal(raw[key], dst); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		return nil
	}

	if _, ok := raw["title"]; ok {
		p.Title = new(string)
		if err := decode("title", p.Title); err != nil {
			return err
		}
	}
	if _, ok := raw["description"]; ok {
		p.Description = new(string)
		if err := decode("description", p.Description); err != nil {
			return err
		}
	}
	if _, ok := raw["status"]; ok {
		p.Status = new(PathStatus)
		if err := decode("status", p.Status); err != nil {
			return err
		}
		if *p.Status != StatusDraft && *p.Status != StatusPublished {
			return fmt.Errorf("invalid status: %q", *p.Status)
		}
	}
	if _, ok := raw["nodes"]; ok {
		nodes := []PathNode{}
		if err := decode("nodes", &nodes); err != nil {
			return err
		}
		if nodes == nil {
			nodes = []PathNode{}
		}
		p.Nodes = &nodes
	}
	if _, ok := raw["connections"]; ok {
		conns := []Connection{}
		if err := decode("connections", &conns); err != nil {
			return err
		}
		if conns == nil {
			conns = []Connection{}
		}
		p.Connections = &conns
	}
	if v, ok := raw["lrsConfig"]; ok {
		if string(v) == "null" {
			p.ClearLRSConfig = true
		} else {
			p.LRSConfig = &LRSConfig{}
			if err := decode("lrsConfig", p.LRSConfig); err != nil {
				return err
			}
		}
	}
	return nil
}

// MarshalJSON encodes only the present fields.
func (p PathPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description != nil {
		out["description"] = *p.Description
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.Nodes != nil {
		out["nodes"] = *p.Nodes
	}
	if p.Connections != nil {
		out["connections"] = *p.Connections
	}
	if p.ClearLRSConfig {
		out["lrsConfig"] = nil
	} else if p.LRSConfig != nil {
		out["lrsConfig"] = p.LRSConfig
	}
	return json.Marshal(out)
}

// Apply writes the present fields onto path. Timestamps and id are left to the caller.
func (p PathPatch) Apply(path *LearningPath) {
	if p.Title != nil {
		path.Title = *p.Title
	}
	if p.Description != nil {
		path.Description = *p.Description
	}
	if p.Status != nil {
		path.Status = *p.Status
	}
	if p.Nodes != nil {
		path.Nodes = (&LearningPath{Nodes: *p.Nodes}).Clone().Nodes
	}
	if p.Connections != nil {
		path.Connections = append([]Connection{}, (*p.Connections)...)
	}
	if p.ClearLRSConfig {
		path.LRSConfig = nil
	} else if p.LRSConfig != nil {
		cfg := *p.LRSConfig
		path.LRSConfig = &cfg
	}
}

// PatchFromPath builds a patch carrying every content field of path.
func PatchFromPath(path *LearningPath) PathPatch {
	cp := path.Clone()
	status := cp.Status
	patch := PathPatch{
		Title:       &cp.Title,
		Description: &cp.Description,
		Status:      &status,
		Nodes:       &cp.Nodes,
		Connections: &cp.Connections,
		LRSConfig:   cp.LRSConfig,
	}
	if cp.LRSConfig == nil {
		patch.ClearLRSConfig = true
	}
	return patch
}

// NewFromPatch creates a path document from a create payload.
func NewFromPatch(id string, now time.Time, patch PathPatch) *LearningPath {
	p := NewLearningPath(id, now)
	patch.Apply(p)
	return p
}
