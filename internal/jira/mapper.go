package jira

// MapIssue transforms a Jira DTO into a domain Issue snapshot.
func MapIssue(item IssueDTO) Issue {
	issue := Issue{
		Key:      item.Key,
		Summary:  item.Fields.Summary,
		Status:   item.Fields.Status.Name,
		Assignee: item.Fields.Assignee.DisplayName,
	}

	if t, err := ParseTime(item.Fields.Updated); err == nil {
		issue.Updated = t
	}

	return issue
}

// MapIssues transforms a search response into domain Issues, preserving the
// server's ordering.
func MapIssues(items []IssueDTO) []Issue {
	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		issues = append(issues, MapIssue(item))
	}
	return issues
}

// MapTransition transforms a transition DTO into the domain form.
func MapTransition(item TransitionDTO) Transition {
	return Transition{
		ID:       item.ID,
		Name:     item.Name,
		ToStatus: item.To.Name,
	}
}
