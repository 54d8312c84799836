package codeforces

// Subset of the Codeforces API objects the bot reads.
// https://codeforces.com/apiHelp/objects

type Problem struct {
	ContestID int      `json:"contestId"`
	Index     string   `json:"index"`
	Name      string   `json:"name"`
	Rating    int      `json:"rating"`
	Tags      []string `json:"tags"`
}

type Submission struct {
	ID           int64   `json:"id"`
	CreationTime int64   `json:"creationTimeSeconds"`
	Verdict      string  `json:"verdict"`
	Problem      Problem `json:"problem"`
}

type UserInfo struct {
	Handle     string `json:"handle"`
	Rank       string `json:"rank"`
	Rating     int    `json:"rating"`
	MaxRank    string `json:"maxRank"`
	MaxRating  int    `json:"maxRating"`
	TitlePhoto string `json:"titlePhoto"`
}

type RatingChange struct {
	ContestID   int    `json:"contestId"`
	ContestName string `json:"contestName"`
	NewRating   int    `json:"newRating"`
	UpdateTime  int64  `json:"ratingUpdateTimeSeconds"`
}
