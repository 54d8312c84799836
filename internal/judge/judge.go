// Package judge defines the shared vocabulary for the two supported
// competitive-programming platforms. Per-platform API clients live in
// the codeforces and atcoder subpackages.
package judge

// Platform identifies one of the tracked judges.
type Platform string

const (
	Codeforces Platform = "cf"
	AtCoder    Platform = "ac"
)

// Tag is the short human-facing label used in notifications and command output.
func (p Platform) Tag() string {
	switch p {
	case Codeforces:
		return "CF"
	case AtCoder:
		return "AC"
	default:
		return string(p)
	}
}

func (p Platform) Valid() bool { return p == Codeforces || p == AtCoder }

// Platforms lists all supported judges in the fixed polling order.
func Platforms() []Platform { return []Platform{Codeforces, AtCoder} }

// ProblemRef describes the problem attached to a submission.
// Rating is empty when the judge does not expose a difficulty.
type ProblemRef struct {
	Key    string // short identifier, e.g. "1A" or "abc123_d"
	Name   string
	Rating string
	URL    string
}

// Latest is the newest submission observed for a handle, reduced to what
// the watch loop needs. ID must be stable for a given submission: the
// decimal submission id on Codeforces, and a contest#problem#epoch
// composite on AtCoder when the native id is absent.
type Latest struct {
	ID       string
	Accepted bool
	Problem  ProblemRef
}
