package registry

import "github.com/pseng/MyH5P-pages/pkg/domain"

func titleField(required bool) domain.FieldDefinition {
	return domain.FieldDefinition{Name: "title", Label: "Title", Kind: domain.FieldText, Required: required}
}

func activityIDField() domain.FieldDefinition {
	return domain.FieldDefinition{Name: "activityId", Label: "External activity id", Kind: domain.FieldURL}
}

var flow = struct{ in, out []string }{
	in:  []string{domain.PortPrev},
	out: []string{domain.PortNext},
}

// Builtin returns the built-in node types.
func Builtin() []domain.NodeTypeDefinition {
	return []domain.NodeTypeDefinition{
		{
			ID: domain.NodeTypeStart, Label: "Start", Category: domain.CategoryControl,
			Role: domain.RoleStart,
			Color: "#22c55e", Icon: "play",
			MaxInstances: 1,
			Inputs:       []string{},
			Outputs:      []string{domain.PortNext},
			Fields:       []domain.FieldDefinition{titleField(false)},
		},
		{
			ID: domain.NodeTypeEnd, Label: "End", Category: domain.CategoryControl,
			Role: domain.RoleEnd,
			Color: "#ef4444", Icon: "flag",
			Inputs:  []string{domain.PortPrev},
			Outputs: []string{},
			Fields: []domain.FieldDefinition{
				titleField(false),
				{Name: "message", Label: "Completion message", Kind: domain.FieldTextarea, Default: "Congratulations, you have completed this path!"},
			},
		},
		{
			ID: domain.NodeTypeGate, Label: "Gate", Category: domain.CategoryControl,
			Role: domain.RoleGate,
			Color: "#f59e0b", Icon: "lock",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(false),
				{Name: "instructions", Label: "Instructions", Kind: domain.FieldTextarea},
				{Name: "passingScore", Label: "Passing score (%)", Kind: domain.FieldNumber, Default: 70},
			},
		},
		{
			ID: domain.NodeTypeBranch, Label: "Branch", Category: domain.CategoryControl,
			Role: domain.RoleBranch,
			Color: "#a855f7", Icon: "split",
			Inputs:  []string{domain.PortPrev},
			Outputs: []string{domain.PortPathA, domain.PortPathB},
			Fields: []domain.FieldDefinition{
				titleField(false),
				{Name: "question", Label: "Question", Kind: domain.FieldText, Required: true},
				{Name: "labelA", Label: "Option A", Kind: domain.FieldText, Default: "Option A"},
				{Name: "labelB", Label: "Option B", Kind: domain.FieldText, Default: "Option B"},
			},
		},
		{
			ID: domain.NodeTypeTheory, Label: "Theory", Category: domain.CategoryContent,
			Color: "#3b82f6", Icon: "book",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(true),
				{Name: "body", Label: "Content", Kind: domain.FieldRichText},
				activityIDField(),
			},
		},
		{
			ID: domain.NodeTypeVideo, Label: "Video", Category: domain.CategoryContent,
			Color: "#06b6d4", Icon: "video",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(true),
				{Name: "url", Label: "Video URL", Kind: domain.FieldURL, Required: true},
				{Name: "description", Label: "Description", Kind: domain.FieldTextarea},
				activityIDField(),
			},
		},
		{
			ID: domain.NodeTypeQuiz, Label: "Quiz", Category: domain.CategoryContent,
			Color: "#ec4899", Icon: "question",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(true),
				{Name: "contentId", Label: "Quiz content", Kind: domain.FieldContentRef, Required: true},
				{Name: "passingScore", Label: "Passing score (%)", Kind: domain.FieldNumber, Default: 70},
				activityIDField(),
			},
		},
		{
			ID: domain.NodeTypeAssignment, Label: "Assignment", Category: domain.CategoryContent,
			Color: "#8b5cf6", Icon: "pencil",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(true),
				{Name: "instructions", Label: "Instructions", Kind: domain.FieldRichText},
				{Name: "submission", Label: "Submission type", Kind: domain.FieldSelect, Options: []string{"text", "file", "link"}, Default: "text"},
				activityIDField(),
			},
		},
		{
			ID: domain.NodeTypeResource, Label: "Resource", Category: domain.CategoryContent,
			Color: "#64748b", Icon: "link",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(true),
				{Name: "url", Label: "Resource URL", Kind: domain.FieldURL, Required: true},
				{Name: "optional", Label: "Optional", Kind: domain.FieldCheckbox},
				activityIDField(),
			},
		},
		{
			ID: domain.NodeTypeH5P, Label: "Interactive Content", Category: domain.CategoryPackage,
			Color: "#0ea5e9", Icon: "cube",
			Inputs: flow.in, Outputs: flow.out,
			Fields: []domain.FieldDefinition{
				titleField(false),
				{Name: "contentId", Label: "Content", Kind: domain.FieldContentRef, Required: true},
				activityIDField(),
			},
		},
	}
}
