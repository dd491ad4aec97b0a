package graph

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
)

// Default layout positions for a new path.
var (
	DefaultStartPosition = domain.Position{X: 100, Y: 200}
	DefaultEndPosition   = domain.Position{X: 500, Y: 200}
)

// SeedDefault gives an empty model its initial layout: one Start node linked to one End node.
// Models that already hold nodes are left untouched.
func (m *Model) SeedDefault() error {
	if len(m.path.Nodes) > 0 {
		return nil
	}
	start, err := m.AddNode(domain.NodeTypeStart, DefaultStartPosition)
	if err != nil {
		return err
	}
	end, err := m.AddNode(domain.NodeTypeEnd, DefaultEndPosition)
	if err != nil {
		return err
	}
	startDef, _ := m.reg.Get(domain.NodeTypeStart)
	endDef, _ := m.reg.Get(domain.NodeTypeEnd)
	if len(endDef.Inputs) > 0 {
		m.AddConnection(domain.Connection{
			From: start.ID, FromPort: startDef.PrimaryOutput(),
			To: end.ID, ToPort: endDef.Inputs[0],
		})
	}
	return nil
}
