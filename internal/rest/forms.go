package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Request forms mirror the wire shapes the UI sends. Validation happens at
// this boundary, before any remote call.

type workLogForm struct {
	IssueKey  string `json:"issue_key"`
	TimeSpent string `json:"time_spent"`
	DateInput string `json:"date_input"`
}

type bulkWorkLogForm struct {
	IssueKeys   []string `json:"issue_keys"`
	TimeSpent   string   `json:"time_spent"`
	DateInput   string   `json:"date_input"`
	TargetState string   `json:"target_state"`
}

type individualWorkLogItem struct {
	IssueKey    string `json:"issue_key"`
	TimeSpent   string `json:"time_spent"`
	DateInput   string `json:"date_input"`
	TargetState string `json:"target_state"`
}

type individualWorkLogForm struct {
	WorkLogs []individualWorkLogItem `json:"work_logs"`
}

type transitionForm struct {
	IssueKey    string `json:"issue_key"`
	TargetState string `json:"target_state"`
}

type taskListForm struct {
	TaskList string `json:"task_list"`
}

type excelEntryForm struct {
	DateStr   string `json:"date_str"`
	Name      string `json:"name"`
	FilePath  string `json:"file_path"`
	SheetName string `json:"sheet_name"`
}

func decodeForm(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (f *workLogForm) validate() error {
	if strings.TrimSpace(f.IssueKey) == "" {
		return fmt.Errorf("issue_key is required")
	}
	return nil
}

func (f *bulkWorkLogForm) validate() error {
	if len(f.IssueKeys) == 0 {
		return fmt.Errorf("issue_keys must not be empty")
	}
	for _, key := range f.IssueKeys {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("issue_keys must not contain empty keys")
		}
	}
	return nil
}

func (f *individualWorkLogForm) validate() error {
	if len(f.WorkLogs) == 0 {
		return fmt.Errorf("work_logs must not be empty")
	}
	return nil
}

func (f *transitionForm) validate() error {
	if strings.TrimSpace(f.IssueKey) == "" {
		return fmt.Errorf("issue_key is required")
	}
	if strings.TrimSpace(f.TargetState) == "" {
		return fmt.Errorf("target_state is required")
	}
	return nil
}

func (f *excelEntryForm) validate() error {
	if strings.TrimSpace(f.DateStr) == "" {
		return fmt.Errorf("date_str is required")
	}
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}
