package domain

import (
	"strconv"
	"strings"
	"time"
)

// StatementVersion is the statement-format version sent to record stores.
const StatementVersion = "1.0.3"

// Activity type IRIs.
const (
	ActivityCourse      = "http://adlnet.gov/expapi/activities/course"
	ActivityLesson      = "http://adlnet.gov/expapi/activities/lesson"
	ActivityModule      = "http://adlnet.gov/expapi/activities/module"
	ActivityMedia       = "http://adlnet.gov/expapi/activities/media"
	ActivityAssessment  = "http://adlnet.gov/expapi/activities/assessment"
	ActivityInteraction = "http://adlnet.gov/expapi/activities/interaction"
	ActivityObjective   = "http://adlnet.gov/expapi/activities/objective"
	ActivityPerformance = "http://adlnet.gov/expapi/activities/performance"
	ActivityLink        = "http://adlnet.gov/expapi/activities/link"
)

// Verb is an action of a statement.
type Verb struct {
	ID      string            `json:"id"`
	Display map[string]string `json:"display"`
}

// Name returns the short verb name, i.e. the last IRI segment.
func (v Verb) Name() string {
	if i := strings.LastIndex(v.ID, "/"); i >= 0 {
		return v.ID[i+1:]
	}
	return v.ID
}

func adlVerb(name string) Verb {
	return Verb{
		ID:      "http://adlnet.gov/expapi/verbs/" + name,
		Display: map[string]string{"en-US": name},
	}
}

var (
	VerbLaunched    = adlVerb("launched")
	VerbInitialized = adlVerb("initialized")
	VerbExperienced = adlVerb("experienced")
	VerbProgressed  = adlVerb("progressed")
	VerbAnswered    = adlVerb("answered")
	VerbCompleted   = adlVerb("completed")
	VerbPassed      = adlVerb("passed")
	VerbFailed      = adlVerb("failed")
)

var knownVerbs = []Verb{
	VerbLaunched, VerbInitialized, VerbExperienced, VerbProgressed,
	VerbAnswered, VerbCompleted, VerbPassed, VerbFailed,
}

// LookupVerb resolves a short name ("completed") or a full IRI to a Verb.
// Unknown IRIs are accepted as-is; unknown short names are not.
func LookupVerb(nameOrID string) (Verb, bool) {
	for _, v := range knownVerbs {
		if v.ID == nameOrID || v.Name() == nameOrID {
			return v, true
		}
	}
	if strings.HasPrefix(nameOrID, "http://") || strings.HasPrefix(nameOrID, "https://") {
		v := Verb{ID: nameOrID}
		v.Display = map[string]string{"en-US": v.Name()}
		return v, true
	}
	return Verb{}, false
}

// Account identifies an actor by a system account.
type Account struct {
	HomePage string `json:"homePage"`
	Name     string `json:"name"`
}

// Actor is who performed the statement.
type Actor struct {
	ObjectType string   `json:"objectType"`
	Name       string   `json:"name,omitempty"`
	Mbox       string   `json:"mbox,omitempty"`
	Account    *Account `json:"account,omitempty"`
}

// ActivityDefinition describes an activity.
type ActivityDefinition struct {
	Name        map[string]string `json:"name,omitempty"`
	Description map[string]string `json:"description,omitempty"`
	Type        string            `json:"type,omitempty"`
}

// Activity is the object of a statement.
type Activity struct {
	ObjectType string              `json:"objectType"`
	ID         string              `json:"id"`
	Definition *ActivityDefinition `json:"definition,omitempty"`
}

// Score is a statement result score.
type Score struct {
	Scaled *float64 `json:"scaled,omitempty"`
	Raw    *float64 `json:"raw,omitempty"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
}

// Result is the optional outcome of a statement.
type Result struct {
	Score      *Score         `json:"score,omitempty"`
	Success    *bool          `json:"success,omitempty"`
	Completion *bool          `json:"completion,omitempty"`
	Response   string         `json:"response,omitempty"`
	Duration   string         `json:"duration,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// ContextActivities relates the object to other activities.
type ContextActivities struct {
	Parent   []Activity `json:"parent,omitempty"`
	Grouping []Activity `json:"grouping,omitempty"`
}

// StatementContext carries the grouping activities and extensions.
type StatementContext struct {
	Registration      string             `json:"registration,omitempty"`
	ContextActivities *ContextActivities `json:"contextActivities,omitempty"`
	Extensions        map[string]any     `json:"extensions,omitempty"`
}

// Statement is one activity-tracking record.
type Statement struct {
	ID        string            `json:"id"`
	Actor     Actor             `json:"actor"`
	Verb      Verb              `json:"verb"`
	Object    Activity          `json:"object"`
	Result    *Result           `json:"result,omitempty"`
	Context   *StatementContext `json:"context,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// FormatDuration renders d as an ISO-8601 duration with centisecond precision, e.g. "PT1M5.25S".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(10 * time.Millisecond)
	h := int64(d / time.Hour)
	d -= time.Duration(h) * time.Hour
	m := int64(d / time.Minute)
	d -= time.Duration(m) * time.Minute
	s := strconv.FormatFloat(d.Seconds(), 'f', -1, 64)

	var b strings.Builder
	b.WriteString("PT")
	if h > 0 {
		b.WriteString(strconv.FormatInt(h, 10) + "H")
	}
	if m > 0 {
		b.WriteString(strconv.FormatInt(m, 10) + "M")
	}
	if s != "0" || (h == 0 && m == 0) {
		b.WriteString(s + "S")
	}
	return b.String()
}

// SendResult is the outcome of a record-store delivery. Failures are values, never errors.
type SendResult struct {
	Stored     bool   `json:"stored"`
	StatusCode int    `json:"statusCode,omitempty"`
	Reason     string `json:"reason,omitempty"`
}
