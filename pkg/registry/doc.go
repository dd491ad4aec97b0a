// Package registry holds the node-type catalog.
//
// Every editor, validator and traversal decision is driven by the NodeTypeDefinition
// returned here, so adding a node type means adding one catalog entry:
//
//	reg, err := registry.Load("catalog.yaml")
//	def, ok := reg.Get("video")
//
// A catalog file lists extra types under node_types:
//
//	node_types:
//	  - id: podcast
//	    label: Podcast
//	    category: content
//	    inputs: [prev]
//	    outputs: [next]
//	    fields:
//	      - {name: title, type: text, required: true}
//	      - {name: url, type: url, required: true}
package registry
