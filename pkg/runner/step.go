package runner

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/traversal"
)

// Choice is one answer of a branch step.
type Choice struct {
	Key   string `json:"key"`
	Port  string `json:"port"`
	Label string `json:"label"`
}

// Step is the learner-facing view of a session position.
type Step struct {
	SessionID string `json:"sessionId"`
	// Index is 1-based; zero once the session ran off its order.
	Index    int    `json:"index"`
	Total    int    `json:"total"`
	NodeID   string `json:"nodeId,omitempty"`
	NodeType string `json:"nodeType,omitempty"`
	Title    string `json:"title,omitempty"`
	// Body is markdown.
	Body         string   `json:"body,omitempty"`
	URL          string   `json:"url,omitempty"`
	Prompt       string   `json:"prompt,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
	PassingScore *float64 `json:"passingScore,omitempty"`
	Status       string   `json:"status,omitempty"`
	Progress     float64  `json:"progress"`
	Finished     bool     `json:"finished"`
}

// Scored reports whether the step accepts a score.
func (s Step) Scored() bool {
	return s.PassingScore != nil
}

// nodeData is the typed view of the built-in data fields. Unknown keys are ignored.
type nodeData struct {
	Title        string   `mapstructure:"title"`
	Body         string   `mapstructure:"body"`
	Instructions string   `mapstructure:"instructions"`
	Description  string   `mapstructure:"description"`
	URL          string   `mapstructure:"url"`
	Question     string   `mapstructure:"question"`
	LabelA       string   `mapstructure:"labelA"`
	LabelB       string   `mapstructure:"labelB"`
	Message      string   `mapstructure:"message"`
	ContentID    string   `mapstructure:"contentId"`
	Submission   string   `mapstructure:"submission"`
	Optional     bool     `mapstructure:"optional"`
	PassingScore *float64 `mapstructure:"passingScore"`
}

func decodeData(data map[string]any) (nodeData, error) {
	var out nodeData
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := dec.Decode(data); err != nil {
		return out, fmt.Errorf("failed to decode node data: %w", err)
	}
	return out, nil
}

// Describe renders the current position of sess. It never mutates the session.
func Describe(sess *traversal.Session) Step {
	order := sess.Order()
	step := Step{
		SessionID: sess.ID(),
		Total:     len(order.IDs),
		Progress:  sess.Progress(),
		Finished:  sess.Finished(),
	}

	node, ok := sess.Current()
	if !ok {
		if step.Finished {
			step.Title = "Path complete"
		}
		return step
	}
	for i, id := range order.IDs {
		if id == node.ID {
			step.Index = i + 1
			break
		}
	}
	if p, ok := sess.NodeProgress(node.ID); ok {
		step.Status = string(p.Status)
	}

	def, _ := sess.Definition()
	step.NodeID = node.ID
	step.NodeType = node.Type
	step.Title = node.DisplayTitle(&def)

	data, err := decodeData(node.Data)
	if err != nil {
		step.Body = err.Error()
		step.Prompt = "Press Enter to continue."
		return step
	}
	fill(&step, def, data)
	if step.Finished {
		step.Prompt = ""
		step.Choices = nil
	}
	return step
}

func fill(step *Step, def domain.NodeTypeDefinition, data nodeData) {
	var body []string
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			body = append(body, s)
		}
	}

	switch def.Behavior() {
	case domain.RoleEnd:
		add(data.Message)
	case domain.RoleGate:
		add(data.Instructions)
		step.PassingScore = data.PassingScore
		step.Prompt = "Press Enter to pass the gate."
	case domain.RoleBranch:
		add(data.Question)
		step.Choices = branchChoices(def.Outputs, data)
		step.Prompt = choicePrompt(step.Choices)
	default:
		add(data.Body)
		add(data.Description)
		add(data.Instructions)
		if data.Submission != "" {
			add("Submission: " + data.Submission)
		}
		if data.ContentID != "" {
			add("Content: `" + data.ContentID + "`")
		}
		if data.Optional {
			add("_Optional_")
		}
		step.URL = strings.TrimSpace(data.URL)
		step.PassingScore = data.PassingScore
	}

	step.Body = strings.Join(body, "\n\n")
	if step.Prompt == "" {
		step.Prompt = "Press Enter to continue."
		if step.Scored() {
			step.Prompt = "Enter your score (0-100), or press Enter to continue."
		}
	}
	if len(def.Outputs) == 0 && def.Behavior() != domain.RoleEnd {
		step.Prompt = "Press Enter to finish."
	}
}

// Markdown renders the step as a markdown document.
func (s Step) Markdown() string {
	var b strings.Builder
	if s.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", s.Title)
	}
	if s.Body != "" {
		b.WriteString(s.Body)
		b.WriteString("\n\n")
	}
	if s.URL != "" {
		fmt.Fprintf(&b, "<%s>\n\n", s.URL)
	}
	for _, c := range s.Choices {
		fmt.Fprintf(&b, "- **%s**: %s\n", c.Key, c.Label)
	}
	return b.String()
}

// branchChoices offers one choice per output port, keyed a, b, c... The first two take
// the labelA and labelB fields.
func branchChoices(outputs []string, data nodeData) []Choice {
	labels := []string{orDefault(data.LabelA, "Option A"), orDefault(data.LabelB, "Option B")}
	choices := make([]Choice, 0, len(outputs))
	for i, port := range outputs {
		label := port
		if i < len(labels) {
			label = labels[i]
		}
		choices = append(choices, Choice{Key: string(rune('a' + i)), Port: port, Label: label})
	}
	return choices
}

func choicePrompt(choices []Choice) string {
	keys := make([]string, len(choices))
	for i, c := range choices {
		keys[i] = c.Key
	}
	switch len(keys) {
	case 0:
		return ""
	case 1:
		return "Choose " + keys[0] + "."
	}
	return "Choose " + strings.Join(keys[:len(keys)-1], ", ") + " or " + keys[len(keys)-1] + "."
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
