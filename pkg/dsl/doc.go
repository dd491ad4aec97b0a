/*
Package dsl provides a fluent builder for learning path documents.

It is used by tests, examples and seeding code to write paths without hand-assembling
nodes and connections. The builder performs no validation; pass the result through the
validator to check it.

Example usage:

	path := dsl.New("intro").
		Title("Getting started").
		Start("s").
		Theory("t", "Welcome").
		End("e").
		Chain("s", "t", "e").
		Build()

	b := dsl.New("choice")
	b.Add("s", domain.NodeTypeStart).Go("q")
	b.Add("q", domain.NodeTypeBranch).
		Set("question", "Beginner or advanced?").
		Via("pathA", "basics").
		Via("pathB", "deep")
*/
package dsl
