package jira

import "time"

// SearchResponse is the top-level container for Jira search results.
type SearchResponse struct {
	Total  int        `json:"total"`
	Issues []IssueDTO `json:"issues"`
}

// IssueDTO represents a single issue in Jira API responses.
type IssueDTO struct {
	Key    string    `json:"key"`
	Fields FieldsDTO `json:"fields"`
}

// FieldsDTO contains the specific fields we care about.
type FieldsDTO struct {
	Summary string `json:"summary"`
	Status  struct {
		Name string `json:"name"`
	} `json:"status"`
	Assignee struct {
		DisplayName string `json:"displayName"`
	} `json:"assignee"`
	Updated string `json:"updated"`
}

// TransitionsResponse wraps the transitions list endpoint.
type TransitionsResponse struct {
	Transitions []TransitionDTO `json:"transitions"`
}

// TransitionDTO represents one available workflow transition.
type TransitionDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	To   struct {
		Name string `json:"name"`
	} `json:"to"`
}

// worklogPayload is the body of the add-worklog request.
type worklogPayload struct {
	Started   string `json:"started"`
	TimeSpent string `json:"timeSpent"`
}

// transitionPayload is the body of the execute-transition request.
type transitionPayload struct {
	Transition struct {
		ID string `json:"id"`
	} `json:"transition"`
}

// ParseTime is a helper for the strict Jira time format.
func ParseTime(s string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05.000-0700", s)
}
