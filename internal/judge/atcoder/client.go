// Package atcoder reads AtCoder data through the kenkoooo AtCoder
// Problems API, plus the contest-history JSON served by atcoder.jp
// itself (the judge has no official user API).
package atcoder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"stalkbot/internal/fetch"
	"stalkbot/internal/judge"
)

const (
	DefaultAPIBaseURL  = "https://kenkoooo.com/atcoder"
	DefaultSiteBaseURL = "https://atcoder.jp"
)

const resultAccepted = "AC"

type Client struct {
	apiBase  string
	siteBase string
	http     *fetch.Client

	// problem metadata cache, loaded lazily on first use
	mu       sync.Mutex
	problems map[string]Problem
}

func NewClient(httpc *fetch.Client) *Client {
	return NewClientWithBaseURLs(httpc, DefaultAPIBaseURL, DefaultSiteBaseURL)
}

func NewClientWithBaseURLs(httpc *fetch.Client, apiBase, siteBase string) *Client {
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}
	if siteBase == "" {
		siteBase = DefaultSiteBaseURL
	}
	return &Client{apiBase: apiBase, siteBase: siteBase, http: httpc}
}

func (c *Client) Platform() judge.Platform { return judge.AtCoder }

// Submissions returns the user's submissions from fromSecond onward,
// in ascending epoch order as served by the API.
func (c *Client) Submissions(ctx context.Context, user string, fromSecond int64) ([]Submission, error) {
	q := url.Values{
		"user":        {user},
		"from_second": {strconv.FormatInt(fromSecond, 10)},
	}
	var subs []Submission
	if err := c.http.GetJSON(ctx, c.apiBase+"/atcoder-api/v3/user/submissions", q, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// Latest returns the newest submission of the user, or nil when the user
// has no submissions. Problem title and difficulty are filled from the
// cached problem index when it is available.
func (c *Client) Latest(ctx context.Context, user string) (*judge.Latest, error) {
	subs, err := c.Submissions(ctx, user, 0)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, nil
	}
	s := subs[len(subs)-1]

	name := s.ProblemID
	rating := "???"
	if idx, err := c.problemIndex(ctx); err == nil {
		if p, ok := idx[s.ProblemID]; ok {
			if p.Title != "" {
				name = p.Title
			}
			rating = DifficultyLabel(p.Difficulty)
		}
	}

	id := SubmissionID(s)
	return &judge.Latest{
		ID:       id,
		Accepted: s.Result == resultAccepted,
		Problem: judge.ProblemRef{
			Key:    s.ProblemID,
			Name:   name,
			Rating: rating,
			URL:    c.problemURL(s.ContestID, s.ProblemID),
		},
	}, nil
}

// RatingHistory returns the user's contest history in chronological order.
func (c *Client) RatingHistory(ctx context.Context, user string) ([]RatingChange, error) {
	var changes []RatingChange
	u := fmt.Sprintf("%s/users/%s/history/json", c.siteBase, url.PathEscape(user))
	if err := c.http.GetJSON(ctx, u, nil, &changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// UserInfo derives the current and highest rating from the contest history.
func (c *Client) UserInfo(ctx context.Context, user string) (*UserInfo, error) {
	history, err := c.RatingHistory(ctx, user)
	if err != nil {
		return nil, err
	}
	info := &UserInfo{}
	for _, ch := range history {
		if !ch.IsRated {
			continue
		}
		info.Contests++
		info.Rating = ch.NewRating
		if ch.NewRating > info.HighestRating {
			info.HighestRating = ch.NewRating
		}
	}
	return info, nil
}

// Problems returns the whole problem archive with difficulties merged in.
func (c *Client) Problems(ctx context.Context) ([]Problem, error) {
	idx, err := c.problemIndex(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Problem, 0, len(idx))
	for _, p := range idx {
		out = append(out, p)
	}
	return out, nil
}

// SolvedIDs returns the problem ids the user has at least one accepted
// submission for.
func (c *Client) SolvedIDs(ctx context.Context, user string) (map[string]bool, error) {
	subs, err := c.Submissions(ctx, user, 0)
	if err != nil {
		return nil, err
	}
	solved := make(map[string]bool)
	for _, s := range subs {
		if s.Result == resultAccepted {
			solved[s.ProblemID] = true
		}
	}
	return solved, nil
}

func (c *Client) problemIndex(ctx context.Context) (map[string]Problem, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.problems != nil {
		return c.problems, nil
	}

	var list []Problem
	if err := c.http.GetJSON(ctx, c.apiBase+"/resources/problems.json", nil, &list); err != nil {
		return nil, err
	}
	var models map[string]problemModel
	if err := c.http.GetJSON(ctx, c.apiBase+"/resources/problem-models.json", nil, &models); err != nil {
		return nil, err
	}

	idx := make(map[string]Problem, len(list))
	for _, p := range list {
		if m, ok := models[p.ID]; ok {
			p.Difficulty = m.Difficulty
		}
		idx[p.ID] = p
	}
	c.problems = idx
	return idx, nil
}

func (c *Client) problemURL(contestID, problemID string) string {
	return fmt.Sprintf("%s/contests/%s/tasks/%s", c.siteBase, contestID, problemID)
}

// SubmissionID yields a stable identifier for a submission. The native id
// is preferred; the composite fallback covers payloads that omit it.
func SubmissionID(s Submission) string {
	if s.ID != 0 {
		return strconv.FormatInt(s.ID, 10)
	}
	return fmt.Sprintf("%s#%s#%d", s.ContestID, s.ProblemID, s.EpochSecond)
}

// DifficultyLabel renders a problem-model difficulty; problems without a
// model show "???".
func DifficultyLabel(d *int) string {
	if d == nil {
		return "???"
	}
	return strconv.Itoa(*d)
}
