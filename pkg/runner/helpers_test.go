package runner_test

import (
	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/dsl"
	"github.com/pseng/MyH5P-pages/pkg/registry"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

func linearPath() *domain.LearningPath {
	return dsl.New("p1").
		Start("s").
		Theory("t", "Intro").
		End("e").
		Chain("s", "t", "e").
		Build()
}

func branchPath() *domain.LearningPath {
	b := dsl.New("p2")
	b.Add("s", domain.NodeTypeStart).Go("q")
	b.Add("q", domain.NodeTypeBranch).Set("question", "Track?").Set("labelA", "Basics").
		Via(domain.PortPathA, "a1").
		Via(domain.PortPathB, "b1")
	b.Add("a1", domain.NodeTypeTheory).Title("A1").Go("e")
	b.Add("b1", domain.NodeTypeTheory).Title("B1")
	b.Add("e", domain.NodeTypeEnd).Set("message", "Well done")
	return b.Build()
}

func quizPath() *domain.LearningPath {
	b := dsl.New("p3")
	b.Add("s", domain.NodeTypeStart).Go("quiz")
	b.Add("quiz", domain.NodeTypeQuiz).Title("Check").Set("contentId", "c-1").Set("passingScore", 70).Go("e")
	b.Add("e", domain.NodeTypeEnd)
	return b.Build()
}

func newSession(p *domain.LearningPath) *traversal.Session {
	return traversal.NewSession(p, registry.Default(), traversal.WithID("sess-1"))
}
