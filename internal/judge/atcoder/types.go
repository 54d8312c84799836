package atcoder

// Objects served by the kenkoooo AtCoder Problems API and the
// atcoder.jp contest-history endpoint.

type Submission struct {
	ID          int64   `json:"id"`
	EpochSecond int64   `json:"epoch_second"`
	ProblemID   string  `json:"problem_id"`
	ContestID   string  `json:"contest_id"`
	UserID      string  `json:"user_id"`
	Result      string  `json:"result"`
	Point       float64 `json:"point"`
}

type Problem struct {
	ID        string `json:"id"`
	ContestID string `json:"contest_id"`
	Title     string `json:"title"`

	// Difficulty comes from the problem-models resource, not the problem
	// list itself; nil when no model exists for the problem.
	Difficulty *int `json:"-"`
}

type problemModel struct {
	Difficulty *int `json:"difficulty"`
}

type RatingChange struct {
	IsRated     bool   `json:"IsRated"`
	ContestName string `json:"ContestName"`
	NewRating   int    `json:"NewRating"`
	EndTime     string `json:"EndTime"`
}

// UserInfo is derived from the contest history; AtCoder has no dedicated
// user endpoint.
type UserInfo struct {
	Rating        int
	HighestRating int
	Contests      int
}
