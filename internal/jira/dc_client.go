package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

const myIssuesJQL = "assignee = currentUser() ORDER BY updated DESC"

type dcClient struct {
	cfg        Config
	httpClient *http.Client
}

// NewDataCenterClient creates a Client for a Jira Data Center instance
// authenticated with a Personal Access Token.
func NewDataCenterClient(cfg Config) Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 500
	}
	return &dcClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (c *dcClient) SearchMyIssues(ctx context.Context) ([]Issue, error) {
	params := url.Values{}
	params.Set("jql", myIssuesJQL)
	params.Set("maxResults", fmt.Sprintf("%d", c.cfg.MaxResults))
	params.Set("fields", "summary,status,assignee,updated")

	searchURL := fmt.Sprintf("%s/rest/api/2/search?%s", c.cfg.BaseURL, params.Encode())
	log.Info().Msg("Requesting assigned issues from Jira")
	log.Debug().Str("url", searchURL).Msg("Jira search details")

	var result SearchResponse
	if err := c.doJSON(ctx, http.MethodGet, searchURL, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}

	issues := MapIssues(result.Issues)
	log.Info().Int("count", len(issues)).Msg("Fetched issues from Jira")
	return issues, nil
}

func (c *dcClient) GetIssue(ctx context.Context, key string) (Issue, error) {
	issueURL := fmt.Sprintf("%s/rest/api/2/issue/%s?fields=summary,status,assignee,updated", c.cfg.BaseURL, key)

	var dto IssueDTO
	if err := c.doJSON(ctx, http.MethodGet, issueURL, nil, http.StatusOK, &dto); err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return Issue{}, &StatusError{Code: http.StatusNotFound, Message: fmt.Sprintf("issue %s not found", key)}
		}
		return Issue{}, err
	}

	return MapIssue(dto), nil
}

func (c *dcClient) AddWorklog(ctx context.Context, key, timeSpent, started string) error {
	worklogURL := fmt.Sprintf("%s/rest/api/2/issue/%s/worklog", c.cfg.BaseURL, key)

	payload := worklogPayload{
		Started:   started,
		TimeSpent: timeSpent,
	}

	if err := c.doJSON(ctx, http.MethodPost, worklogURL, payload, http.StatusCreated, nil); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to log work")
		return err
	}

	log.Info().Str("key", key).Str("timeSpent", timeSpent).Msg("Logged work")
	return nil
}

func (c *dcClient) Transitions(ctx context.Context, key string) ([]Transition, error) {
	transitionsURL := fmt.Sprintf("%s/rest/api/2/issue/%s/transitions", c.cfg.BaseURL, key)

	var result TransitionsResponse
	if err := c.doJSON(ctx, http.MethodGet, transitionsURL, nil, http.StatusOK, &result); err != nil {
		return nil, err
	}

	transitions := make([]Transition, 0, len(result.Transitions))
	for _, t := range result.Transitions {
		transitions = append(transitions, MapTransition(t))
	}
	return transitions, nil
}

func (c *dcClient) DoTransition(ctx context.Context, key, transitionID string) error {
	transitionsURL := fmt.Sprintf("%s/rest/api/2/issue/%s/transitions", c.cfg.BaseURL, key)

	var payload transitionPayload
	payload.Transition.ID = transitionID

	if err := c.doJSON(ctx, http.MethodPost, transitionsURL, payload, http.StatusNoContent, nil); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to transition issue")
		return err
	}

	log.Info().Str("key", key).Str("transitionID", transitionID).Msg("Transitioned issue")
	return nil
}

// doJSON performs a request with PAT auth, checks for wantStatus, and decodes
// the body into out when out is non-nil.
func (c *dcClient) doJSON(ctx context.Context, method, rawURL string, body any, wantStatus int, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.cfg.Token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return &StatusError{Code: http.StatusGatewayTimeout, Message: "Jira API request timed out"}
		}
		return &StatusError{Code: http.StatusBadGateway, Message: fmt.Sprintf("Jira API request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		return c.statusError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode Jira response: %w", err)
		}
	}

	return nil
}

func (c *dcClient) statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &StatusError{Code: resp.StatusCode, Message: "Jira authentication failed (401/403). Please check your Personal Access Token."}
	case http.StatusNotFound:
		return &StatusError{Code: resp.StatusCode, Message: "Jira resource not found (404)."}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		if retryAfter != "" {
			return &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("Jira rate limit exceeded (429). Retry after %s seconds.", retryAfter)}
		}
		return &StatusError{Code: resp.StatusCode, Message: "Jira rate limit exceeded (429)."}
	default:
		return &StatusError{Code: resp.StatusCode, Message: fmt.Sprintf("Jira API returned status %d. Please check Jira availability.", resp.StatusCode)}
	}
}

func isTimeout(err error) bool {
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}
