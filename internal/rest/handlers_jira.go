package rest

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"worklogd/internal/jira"
	"worklogd/internal/transitions"
	"worklogd/internal/worklog"
)

func (s *Server) getTasks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	force := q.Get("force_refresh") == "true"
	keyword := q.Get("filter_keyword")
	sortBy := q.Get("sort_by")
	sortOrder := q.Get("sort_order")

	if sortBy == "" {
		sortBy = "summary"
	}
	if sortOrder == "" {
		sortOrder = "desc"
	}
	if sortBy != "summary" && sortBy != "key" {
		writeError(w, http.StatusBadRequest, "sort_by must be summary or key")
		return
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		writeError(w, http.StatusBadRequest, "sort_order must be asc or desc")
		return
	}

	issues, err := s.cache.Get(r.Context(), force)
	if err != nil {
		writeJiraError(w, err)
		return
	}

	// Filter and sort are a view over the cached set, applied per request.
	if keyword != "" {
		lowered := strings.ToLower(keyword)
		filtered := make([]jira.Issue, 0, len(issues))
		for _, issue := range issues {
			if strings.Contains(strings.ToLower(issue.Summary), lowered) ||
				strings.Contains(strings.ToLower(issue.Key), lowered) {
				filtered = append(filtered, issue)
			}
		}
		issues = filtered
	}

	desc := sortOrder == "desc"
	sort.SliceStable(issues, func(i, j int) bool {
		var less bool
		if sortBy == "summary" {
			less = strings.ToLower(issues[i].Summary) < strings.ToLower(issues[j].Summary)
		} else {
			less = issues[i].Key < issues[j].Key
		}
		if desc {
			return !less
		}
		return less
	})

	writeJSON(w, http.StatusOK, issues)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	issue, err := s.jira.GetIssue(r.Context(), key)
	if err != nil {
		writeJiraError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (s *Server) logWork(w http.ResponseWriter, r *http.Request) {
	var form workLogForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := worklog.ValidateTimeSpent(form.TimeSpent); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := worklog.ParseMoment(form.DateInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.orchestrator.SubmitIndividual(r.Context(), []worklog.Request{{
		IssueKey:  form.IssueKey,
		TimeSpent: form.TimeSpent,
		Start:     start,
	}})

	result := results[0]
	if !result.Success {
		writeError(w, http.StatusBadGateway, result.Message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) logWorkBulk(w http.ResponseWriter, r *http.Request) {
	var form bulkWorkLogForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := worklog.ValidateTimeSpent(form.TimeSpent); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := worklog.ParseMoment(form.DateInput)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := s.orchestrator.SubmitBulk(r.Context(), form.IssueKeys, form.TimeSpent, start, form.TargetState)
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) logWorkIndividual(w http.ResponseWriter, r *http.Request) {
	var form individualWorkLogForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A malformed date in one entry fails that entry only; the rest of the
	// batch still runs.
	results := make([]worklog.Result, len(form.WorkLogs))
	reqs := make([]worklog.Request, 0, len(form.WorkLogs))
	slots := make([]int, 0, len(form.WorkLogs))
	for i, item := range form.WorkLogs {
		start, err := worklog.ParseMoment(item.DateInput)
		if err != nil {
			results[i] = worklog.Result{IssueKey: item.IssueKey, Success: false, Message: err.Error()}
			continue
		}
		reqs = append(reqs, worklog.Request{
			IssueKey:    item.IssueKey,
			TimeSpent:   item.TimeSpent,
			Start:       start,
			TargetState: item.TargetState,
		})
		slots = append(slots, i)
	}

	for j, result := range s.orchestrator.SubmitIndividual(r.Context(), reqs) {
		results[slots[j]] = result
	}

	writeJSON(w, http.StatusOK, results)
}

func (s *Server) getTransitions(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	// Fetched fresh per request: transition sets go stale as soon as any
	// issue moves, so nothing here is cached.
	list, err := s.jira.Transitions(r.Context(), key)
	if err != nil {
		writeJiraError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"issue_key":   key,
		"transitions": list,
	})
}

func (s *Server) commonTransitions(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("keys")

	var keys []string
	for _, key := range strings.Split(raw, ",") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}

	resolver := transitions.NewResolver(s.jira)
	common := resolver.Common(r.Context(), keys)

	writeJSON(w, http.StatusOK, map[string]any{
		"issue_keys":  keys,
		"transitions": common,
	})
}

func (s *Server) transition(w http.ResponseWriter, r *http.Request) {
	var form transitionForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := jira.ExecuteTransitionByName(r.Context(), s.jira, form.IssueKey, form.TargetState); err != nil {
		writeJiraError(w, err)
		return
	}

	s.cache.MarkStale(form.IssueKey)
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Task " + form.IssueKey + " transitioned to " + "'" + form.TargetState + "'",
	})
}

func (s *Server) cacheInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.cache.Info()
	if err != nil {
		log.Error().Err(err).Msg("Failed to read cache info")
		writeError(w, http.StatusInternalServerError, "failed to read cache info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) cacheClear(w http.ResponseWriter, r *http.Request) {
	if err := s.cache.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear cache")
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cache cleared successfully"})
}
