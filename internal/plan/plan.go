// Package plan picks practice problems: random unsolved problems matching
// filters, and short training ladders built around a user's rating.
package plan

import (
	"math/rand"
	"sort"

	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/judge/codeforces"
)

// ratingWindow is how far a problem's difficulty may sit from the target
// level to qualify for a ladder slot.
const ratingWindow = 100

// ladderLevels are the offsets from the user's (rounded) rating that a
// ladder covers.
var ladderLevels = []int{0, 100, 200}

// WeakestTags returns the n tags the user has the fewest accepted problems
// in, over every tag present in the problemset. Ties break alphabetically
// so repeated calls agree.
func WeakestTags(problems []codeforces.Problem, solved map[string]bool, n int) []string {
	counts := make(map[string]int)
	for _, p := range problems {
		for _, tag := range p.Tags {
			if _, ok := counts[tag]; !ok {
				counts[tag] = 0
			}
			if solved[codeforces.ProblemKey(p)] {
				counts[tag]++
			}
		}
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] < counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if n < len(tags) {
		tags = tags[:n]
	}
	return tags
}

// CodeforcesLadder builds a training ladder: for each of the user's
// weakest tags, one unsolved problem near the rating, one a step above,
// and one two steps above. Slots with no qualifying problem are skipped.
func CodeforcesLadder(problems []codeforces.Problem, solved map[string]bool, rating int, rng *rand.Rand) map[string][]codeforces.Problem {
	base := roundTo100(rating)
	ladder := make(map[string][]codeforces.Problem)
	for _, tag := range WeakestTags(problems, solved, 3) {
		for _, off := range ladderLevels {
			level := base + off
			pick, ok := pickCF(problems, solved, rng, func(p codeforces.Problem) bool {
				return hasTag(p, tag) && within(p.Rating, level)
			})
			if ok {
				ladder[tag] = append(ladder[tag], pick)
			}
		}
	}
	return ladder
}

// Gimme picks one random unsolved problem. When rating is nonzero the
// problem's rating must equal it exactly; every requested tag must be
// present.
func Gimme(problems []codeforces.Problem, solved map[string]bool, rating int, tags []string, rng *rand.Rand) (codeforces.Problem, bool) {
	return pickCF(problems, solved, rng, func(p codeforces.Problem) bool {
		if rating != 0 && p.Rating != rating {
			return false
		}
		for _, tag := range tags {
			if !hasTag(p, tag) {
				return false
			}
		}
		return true
	})
}

// GimmeAtCoder picks one random unsolved problem. AtCoder difficulties are
// model estimates rather than round numbers, so a nonzero rating matches
// within the ladder window instead of exactly.
func GimmeAtCoder(problems []atcoder.Problem, solved map[string]bool, rating int, rng *rand.Rand) (atcoder.Problem, bool) {
	pool := make([]atcoder.Problem, 0)
	for _, p := range problems {
		if solved[p.ID] {
			continue
		}
		if rating != 0 && (p.Difficulty == nil || !within(*p.Difficulty, rating)) {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return atcoder.Problem{}, false
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	return pool[rng.Intn(len(pool))], true
}

// AtCoderLadder builds a ladder of unsolved problems: three picks per
// level at the user's rating, a step above, and two steps above.
func AtCoderLadder(problems []atcoder.Problem, solved map[string]bool, rating int, rng *rand.Rand) map[int][]atcoder.Problem {
	base := roundTo100(rating)
	ladder := make(map[int][]atcoder.Problem)
	for _, off := range ladderLevels {
		level := base + off
		pool := make([]atcoder.Problem, 0)
		for _, p := range problems {
			if solved[p.ID] || p.Difficulty == nil || !within(*p.Difficulty, level) {
				continue
			}
			pool = append(pool, p)
		}
		sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
		rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		if len(pool) > 3 {
			pool = pool[:3]
		}
		if len(pool) > 0 {
			ladder[level] = pool
		}
	}
	return ladder
}

func pickCF(problems []codeforces.Problem, solved map[string]bool, rng *rand.Rand, match func(codeforces.Problem) bool) (codeforces.Problem, bool) {
	pool := make([]codeforces.Problem, 0)
	for _, p := range problems {
		if solved[codeforces.ProblemKey(p)] || !match(p) {
			continue
		}
		pool = append(pool, p)
	}
	if len(pool) == 0 {
		return codeforces.Problem{}, false
	}
	return pool[rng.Intn(len(pool))], true
}

func hasTag(p codeforces.Problem, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func within(rating, level int) bool {
	if rating <= 0 {
		return false
	}
	d := rating - level
	if d < 0 {
		d = -d
	}
	return d <= ratingWindow
}

func roundTo100(rating int) int {
	if rating <= 0 {
		return 800
	}
	return (rating + 50) / 100 * 100
}
