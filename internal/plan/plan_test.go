package plan

import (
	"math/rand"
	"testing"

	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/judge/codeforces"
)

func cfProblem(contest int, index, name string, rating int, tags ...string) codeforces.Problem {
	return codeforces.Problem{ContestID: contest, Index: index, Name: name, Rating: rating, Tags: tags}
}

func TestWeakestTags(t *testing.T) {
	problems := []codeforces.Problem{
		cfProblem(1, "A", "a", 800, "math", "greedy"),
		cfProblem(2, "A", "b", 900, "math"),
		cfProblem(3, "A", "c", 1000, "dp"),
		cfProblem(4, "A", "d", 1100, "graphs"),
	}
	solved := map[string]bool{"1A": true, "2A": true}

	got := WeakestTags(problems, solved, 3)
	// dp and graphs have zero solves, greedy one, math two.
	if len(got) != 3 || got[0] != "dp" || got[1] != "graphs" || got[2] != "greedy" {
		t.Fatalf("WeakestTags = %v, want [dp graphs greedy]", got)
	}
}

func TestGimmeFilters(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	problems := []codeforces.Problem{
		cfProblem(1, "A", "solved", 800, "math"),
		cfProblem(2, "A", "wrong rating", 900, "math"),
		cfProblem(3, "A", "wrong tag", 800, "dp"),
		cfProblem(4, "A", "the one", 800, "math", "greedy"),
	}
	solved := map[string]bool{"1A": true}

	p, ok := Gimme(problems, solved, 800, []string{"math"}, rng)
	if !ok {
		t.Fatal("Gimme found nothing")
	}
	if p.Name != "the one" {
		t.Fatalf("Gimme picked %q, want the only qualifying problem", p.Name)
	}

	if _, ok := Gimme(problems, solved, 3500, nil, rng); ok {
		t.Fatal("Gimme matched a rating no problem has")
	}
}

func TestGimmeWithoutRatingFilter(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	problems := []codeforces.Problem{
		cfProblem(1, "A", "x", 800, "math"),
		cfProblem(2, "A", "y", 2600, "math"),
	}
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		p, ok := Gimme(problems, nil, 0, []string{"math"}, rng)
		if !ok {
			t.Fatal("Gimme found nothing")
		}
		seen[p.Name] = true
	}
	if len(seen) != 2 {
		t.Fatalf("rating 0 should not filter; saw %v", seen)
	}
}

func TestCodeforcesLadderExcludesSolvedAndRespectsWindow(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	problems := []codeforces.Problem{
		cfProblem(1, "A", "at level", 1500, "dp"),
		cfProblem(2, "A", "step up", 1600, "dp"),
		cfProblem(3, "A", "two up", 1700, "dp"),
		cfProblem(4, "A", "solved", 1500, "dp"),
		cfProblem(5, "A", "way off", 2600, "dp"),
	}
	solved := map[string]bool{"4A": true}

	ladder := CodeforcesLadder(problems, solved, 1490, rng)
	picks := ladder["dp"]
	if len(picks) == 0 {
		t.Fatal("ladder has no dp slots")
	}
	for _, p := range picks {
		if p.Name == "solved" {
			t.Fatal("ladder contains a solved problem")
		}
		if p.Name == "way off" {
			t.Fatal("ladder contains a problem far outside the window")
		}
	}
}

func TestAtCoderLadder(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	diff := func(d int) *int { return &d }
	problems := []atcoder.Problem{
		{ID: "p1", ContestID: "abc1", Title: "a", Difficulty: diff(1000)},
		{ID: "p2", ContestID: "abc1", Title: "b", Difficulty: diff(1050)},
		{ID: "p3", ContestID: "abc2", Title: "c", Difficulty: diff(1100)},
		{ID: "p4", ContestID: "abc2", Title: "d", Difficulty: diff(1200)},
		{ID: "p5", ContestID: "abc3", Title: "no model"},
		{ID: "p6", ContestID: "abc3", Title: "solved", Difficulty: diff(1000)},
	}
	solved := map[string]bool{"p6": true}

	ladder := AtCoderLadder(problems, solved, 1000, rng)
	if len(ladder[1000]) == 0 {
		t.Fatal("no picks at the base level")
	}
	for level, picks := range ladder {
		if len(picks) > 3 {
			t.Fatalf("level %d has %d picks, want at most 3", level, len(picks))
		}
		for _, p := range picks {
			if p.ID == "p5" {
				t.Fatal("problem without a difficulty model made the ladder")
			}
			if p.ID == "p6" {
				t.Fatal("solved problem made the ladder")
			}
		}
	}
}

func TestGimmeAtCoder(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	diff := func(d int) *int { return &d }
	problems := []atcoder.Problem{
		{ID: "near", Difficulty: diff(1050)},
		{ID: "far", Difficulty: diff(2400)},
		{ID: "unmodeled"},
		{ID: "done", Difficulty: diff(1000)},
	}
	solved := map[string]bool{"done": true}

	for i := 0; i < 20; i++ {
		p, ok := GimmeAtCoder(problems, solved, 1000, rng)
		if !ok {
			t.Fatal("GimmeAtCoder found nothing")
		}
		if p.ID != "near" {
			t.Fatalf("picked %q, want the only problem in the window", p.ID)
		}
	}

	// Without a difficulty filter even unmodeled problems qualify.
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		p, _ := GimmeAtCoder(problems, solved, 0, rng)
		seen[p.ID] = true
	}
	if !seen["unmodeled"] || !seen["far"] {
		t.Fatalf("rating 0 should not filter; saw %v", seen)
	}
}

func TestRoundTo100(t *testing.T) {
	cases := map[int]int{0: 800, -5: 800, 1449: 1400, 1450: 1500, 1500: 1500, 2387: 2400}
	for in, want := range cases {
		if got := roundTo100(in); got != want {
			t.Errorf("roundTo100(%d) = %d, want %d", in, got, want)
		}
	}
}
