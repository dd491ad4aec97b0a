package tracking

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pseng/MyH5P-pages/pkg/domain"
	"github.com/pseng/MyH5P-pages/pkg/registry"
)

// DefaultBaseURL scopes generated activity ids when none is configured.
const DefaultBaseURL = "http://localhost:8080"

// activityTypes maps node types to activity type IRIs. Unmapped types are lessons.
var activityTypes = map[string]string{
	domain.NodeTypeVideo:      domain.ActivityMedia,
	domain.NodeTypeQuiz:       domain.ActivityAssessment,
	domain.NodeTypeAssignment: domain.ActivityPerformance,
	domain.NodeTypeResource:   domain.ActivityLink,
	domain.NodeTypeH5P:        domain.ActivityInteraction,
	domain.NodeTypeGate:       domain.ActivityObjective,
}

// ActivityType returns the activity type IRI for a node type.
func ActivityType(nodeType string) string {
	if t, ok := activityTypes[nodeType]; ok {
		return t
	}
	return domain.ActivityLesson
}

// Builder assembles statements for one deployment.
type Builder struct {
	baseURL string
	reg     *registry.Registry
	now     func() time.Time
	newID   func() string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithBaseURL sets the URL under which path and node activity ids are minted.
func WithBaseURL(base string) BuilderOption {
	return func(b *Builder) {
		b.baseURL = strings.TrimRight(base, "/")
	}
}

// WithRegistry lets the builder name node activities after their type labels.
func WithRegistry(reg *registry.Registry) BuilderOption {
	return func(b *Builder) {
		b.reg = reg
	}
}

// WithBuilderClock overrides time.Now for timestamps.
func WithBuilderClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// WithStatementIDs overrides statement id generation.
func WithStatementIDs(fn func() string) BuilderOption {
	return func(b *Builder) {
		b.newID = fn
	}
}

// NewBuilder creates a statement builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		baseURL: DefaultBaseURL,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Actor derives the statement actor from a learner. An email becomes a mailto mbox;
// otherwise the learner id (or name) is used as an account on the base URL.
func (b *Builder) Actor(l domain.Learner) domain.Actor {
	actor := domain.Actor{ObjectType: "Agent", Name: l.Name}
	if l.Email != "" {
		actor.Mbox = "mailto:" + l.Email
		return actor
	}
	name := l.ID
	if name == "" {
		name = l.Name
	}
	if name == "" {
		name = "anonymous"
	}
	actor.Account = &domain.Account{HomePage: b.baseURL, Name: name}
	return actor
}

// PathActivity returns the activity representing the whole path.
func (b *Builder) PathActivity(path *domain.LearningPath) domain.Activity {
	return domain.Activity{
		ObjectType: "Activity",
		ID:         b.baseURL + "/paths/" + url.PathEscape(path.ID),
		Definition: &domain.ActivityDefinition{
			Name:        langMap(path.Title),
			Description: langMap(path.Description),
			Type:        domain.ActivityCourse,
		},
	}
}

// NodeActivity returns the activity for a node. An explicit activityId field wins over
// the generated id.
func (b *Builder) NodeActivity(path *domain.LearningPath, node domain.PathNode) domain.Activity {
	id := node.StringField("activityId")
	if id == "" {
		id = b.baseURL + "/paths/" + url.PathEscape(path.ID) + "/nodes/" + url.PathEscape(node.ID)
	}
	var def *domain.NodeTypeDefinition
	if b.reg != nil {
		if d, ok := b.reg.Get(node.Type); ok {
			def = &d
		}
	}
	return domain.Activity{
		ObjectType: "Activity",
		ID:         id,
		Definition: &domain.ActivityDefinition{
			Name: langMap(node.DisplayTitle(def)),
			Type: ActivityType(node.Type),
		},
	}
}

// Build creates a statement. A nil node targets the path itself; otherwise the path is
// attached as the grouping context activity. Extensions land in the context.
func (b *Builder) Build(actor domain.Actor, verb domain.Verb, path *domain.LearningPath, node *domain.PathNode, result *domain.Result, extensions map[string]any) domain.Statement {
	stmt := domain.Statement{
		ID:        b.newID(),
		Actor:     actor,
		Verb:      verb,
		Result:    result,
		Timestamp: b.now().UTC(),
	}

	ctx := &domain.StatementContext{}
	if node == nil {
		stmt.Object = b.PathActivity(path)
	} else {
		stmt.Object = b.NodeActivity(path, *node)
		ctx.ContextActivities = &domain.ContextActivities{
			Grouping: []domain.Activity{b.PathActivity(path)},
		}
	}
	if len(extensions) > 0 {
		ctx.Extensions = extensions
	}
	if ctx.ContextActivities != nil || ctx.Extensions != nil {
		stmt.Context = ctx
	}
	return stmt
}

func langMap(s string) map[string]string {
	if s == "" {
		return nil
	}
	return map[string]string{"en-US": s}
}
