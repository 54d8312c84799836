// Package codeforces talks to the public Codeforces REST API.
package codeforces

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"stalkbot/internal/fetch"
	"stalkbot/internal/judge"
)

const DefaultBaseURL = "https://codeforces.com/api"

const verdictAccepted = "OK"

type Client struct {
	baseURL string
	http    *fetch.Client
}

func NewClient(httpc *fetch.Client) *Client {
	return NewClientWithBaseURL(httpc, DefaultBaseURL)
}

func NewClientWithBaseURL(httpc *fetch.Client, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: baseURL, http: httpc}
}

func (c *Client) Platform() judge.Platform { return judge.Codeforces }

// call unwraps the Codeforces response envelope. A status other than "OK"
// is folded into fetch.ErrUnavailable so the callers treat an API refusal
// the same as an unreachable API.
func (c *Client) call(ctx context.Context, method string, q url.Values, result any) error {
	var env struct {
		Status  string          `json:"status"`
		Comment string          `json:"comment"`
		Result  json.RawMessage `json:"result"`
	}
	if err := c.http.GetJSON(ctx, c.baseURL+"/"+method, q, &env); err != nil {
		return err
	}
	if env.Status != "OK" {
		return fmt.Errorf("%w: codeforces %s: %s", fetch.ErrUnavailable, method, env.Comment)
	}
	if result == nil || len(env.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("%w: codeforces %s: decode result: %v", fetch.ErrUnavailable, method, err)
	}
	return nil
}

// UserStatus returns count submissions of the handle starting from the
// 1-based index from, newest first.
func (c *Client) UserStatus(ctx context.Context, handle string, from, count int) ([]Submission, error) {
	q := url.Values{
		"handle": {handle},
		"from":   {strconv.Itoa(from)},
		"count":  {strconv.Itoa(count)},
	}
	var subs []Submission
	if err := c.call(ctx, "user.status", q, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Latest returns the newest submission of the handle, or nil when the
// handle has no submissions at all.
func (c *Client) Latest(ctx context.Context, handle string) (*judge.Latest, error) {
	subs, err := c.UserStatus(ctx, handle, 1, 1)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	s := subs[0]
	return &judge.Latest{
		ID:       strconv.FormatInt(s.ID, 10),
		Accepted: s.Verdict == verdictAccepted,
		Problem: judge.ProblemRef{
			Key:    ProblemKey(s.Problem),
			Name:   s.Problem.Name,
			Rating: RatingLabel(s.Problem.Rating),
			URL:    ProblemURL(s.Problem),
		},
	}, nil
}

func (c *Client) UserInfo(ctx context.Context, handle string) (*UserInfo, error) {
	q := url.Values{"handles": {handle}}
	var users []UserInfo
	if err := c.call(ctx, "user.info", q, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: codeforces user.info: empty result for %q", fetch.ErrUnavailable, handle)
	}
	return &users[0], nil
}

// RatingHistory returns the handle's rated contests in chronological order.
func (c *Client) RatingHistory(ctx context.Context, handle string) ([]RatingChange, error) {
	q := url.Values{"handle": {handle}}
	var changes []RatingChange
	if err := c.call(ctx, "user.rating", q, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// Problems returns the whole rated problemset.
func (c *Client) Problems(ctx context.Context) ([]Problem, error) {
	var res struct {
		Problems []Problem `json:"problems"`
	}
	if err := c.call(ctx, "problemset.problems", nil, &res); err != nil {
		return nil, err
	}
	return res.Problems, nil
}

// SolvedKeys returns the problem keys the handle has at least one accepted
// submission for, across the whole submission history.
func (c *Client) SolvedKeys(ctx context.Context, handle string) (map[string]bool, error) {
	q := url.Values{"handle": {handle}}
	var subs []Submission
	if err := c.call(ctx, "user.status", q, &subs); err != nil {
		return nil, err
	}
	solved := make(map[string]bool)
	for _, s := range subs {
		if s.Verdict == verdictAccepted {
			solved[ProblemKey(s.Problem)] = true
		}
	}
	return solved, nil
}

func ProblemKey(p Problem) string {
	return strconv.Itoa(p.ContestID) + p.Index
}

func ProfileURL(handle string) string {
	return "https://codeforces.com/profile/" + url.PathEscape(handle)
}

func ProblemURL(p Problem) string {
	return fmt.Sprintf("https://codeforces.com/contest/%d/problem/%s", p.ContestID, p.Index)
}

// RatingLabel renders a difficulty for display; unrated problems show "???".
func RatingLabel(r int) string {
	if r <= 0 {
		return "???"
	}
	return strconv.Itoa(r)
}
