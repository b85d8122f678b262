package rest

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"worklogd/internal/match"
)

type excelEntryResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) excelEntry(w http.ResponseWriter, r *http.Request) {
	var form excelEntryForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.excel.Entry(form.DateStr, form.Name, form.FilePath, form.SheetName)
	if err != nil {
		log.Error().Err(err).Msg("Excel entry lookup failed")
		writeJSON(w, http.StatusOK, excelEntryResponse{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, excelEntryResponse{Success: true, Data: data})
}

func (s *Server) parseTasks(w http.ResponseWriter, r *http.Request) {
	var form taskListForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The cached assigned-issue list is the matching universe.
	issues, err := s.cache.Get(r.Context(), false)
	if err != nil {
		writeJiraError(w, err)
		return
	}

	set := match.ParseAndMatch(form.TaskList, issues)
	log.Info().Int("count", set.Count).Msg("Matched tasks from input")
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) parseFromExcel(w http.ResponseWriter, r *http.Request) {
	var form excelEntryForm
	if err := decodeForm(r, &form); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := form.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cell, err := s.excel.Entry(form.DateStr, form.Name, form.FilePath, form.SheetName)
	if err != nil {
		log.Error().Err(err).Msg("Excel entry lookup failed")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if cell == "" {
		writeJSON(w, http.StatusOK, match.Set{MatchedKeys: []string{}, Count: 0})
		return
	}

	issues, err := s.cache.Get(r.Context(), false)
	if err != nil {
		writeJiraError(w, err)
		return
	}

	set := match.ParseAndMatch(cell, issues)
	log.Info().Int("count", set.Count).Msg("Matched tasks from Excel cell")
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) excelColumns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	columns, err := s.excel.Columns(q.Get("file_path"), q.Get("sheet_name"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"columns": columns,
		"count":   len(columns),
	})
}
