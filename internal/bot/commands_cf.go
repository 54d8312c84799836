package bot

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"

	"stalkbot/internal/chart"
	"stalkbot/internal/judge"
	"stalkbot/internal/judge/codeforces"
	"stalkbot/internal/plan"
	"stalkbot/internal/transport"
	logx "stalkbot/pkg/logx"
	"stalkbot/pkg/tgui"
)

func (h *handlers) cmdCFStatus(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.Codeforces)
	if !ok {
		return nil
	}
	info, err := h.CF.UserInfo(ctx, handle)
	if err != nil {
		req.Log.Warn("cf user.info failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}

	rank := info.Rank
	if rank == "" {
		rank = "unrated"
	}
	parts := []tgui.H{
		tgui.JoinH(" ", tgui.B(info.Handle), tgui.Esc("("+rank+")")),
		tgui.Esc("Rating: " + strconv.Itoa(info.Rating)),
		tgui.Esc("Max: " + strconv.Itoa(info.MaxRating) + " (" + info.MaxRank + ")"),
	}
	if subs, err := h.CF.UserStatus(ctx, handle, 1, 1000); err == nil {
		parts = append(parts, solvedBreakdown(subs)...)
	} else {
		req.Log.Debug("cf user.status failed", logx.String("handle", handle), logx.Err(err))
	}
	parts = append(parts, tgui.Link("Profile", codeforces.ProfileURL(handle)))
	caption := tgui.JoinH("\n", parts...)
	if info.TitlePhoto != "" {
		return req.ReplyPhoto(ctx, transport.Photo{URL: info.TitlePhoto, Caption: caption.String()})
	}
	return req.ReplyHTML(ctx, caption)
}

func (h *handlers) cmdCFGraph(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.Codeforces)
	if !ok {
		return nil
	}
	history, err := h.CF.RatingHistory(ctx, handle)
	if err != nil {
		req.Log.Warn("cf user.rating failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	values := make([]float64, len(history))
	for i, ch := range history {
		values[i] = float64(ch.NewRating)
	}
	png, err := chart.Line(handle+" on Codeforces", values)
	if err != nil {
		return req.Reply(ctx, handle+" has no rated contests to draw yet.")
	}
	return req.ReplyPhoto(ctx, transport.Photo{
		Data:    png,
		Caption: tgui.JoinH(" ", tgui.B(handle), tgui.Esc("rating over "+strconv.Itoa(len(values))+" contests")).String(),
	})
}

func (h *handlers) cmdCFGimme(ctx context.Context, req *Request) error {
	rating := 0
	tags := make([]string, 0, len(req.Args))
	for _, arg := range req.Args {
		if n, err := strconv.Atoi(arg); err == nil {
			rating = n
			continue
		}
		tags = append(tags, arg)
	}

	problems, err := h.CF.Problems(ctx)
	if err != nil {
		req.Log.Warn("cf problemset fetch failed", logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	solved := map[string]bool{}
	if nick, ok := h.Registry.Nick(judge.Codeforces, req.Msg.FromID); ok {
		if s, err := h.CF.SolvedKeys(ctx, nick); err == nil {
			solved = s
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	p, ok := plan.Gimme(problems, solved, rating, tags, rng)
	if !ok {
		return req.Reply(ctx, "Nothing matches those filters. Loosen up!")
	}
	return req.ReplyHTML(ctx, problemLine(p))
}

func (h *handlers) cmdCFTrain(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.Codeforces)
	if !ok {
		return nil
	}
	info, err := h.CF.UserInfo(ctx, handle)
	if err != nil {
		req.Log.Warn("cf user.info failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	problems, err := h.CF.Problems(ctx)
	if err != nil {
		req.Log.Warn("cf problemset fetch failed", logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	solved, err := h.CF.SolvedKeys(ctx, handle)
	if err != nil {
		req.Log.Warn("cf user.status failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ladder := plan.CodeforcesLadder(problems, solved, info.Rating, rng)
	if len(ladder) == 0 {
		return req.Reply(ctx, "Couldn't build a plan, the problemset left nothing to pick.")
	}

	sections := []tgui.H{tgui.JoinH(" ", tgui.Esc("🏋️ Training plan for"), tgui.B(handle))}
	for _, tag := range plan.WeakestTags(problems, solved, 3) {
		picks := ladder[tag]
		if len(picks) == 0 {
			continue
		}
		lines := []tgui.H{tgui.B(tag)}
		for _, p := range picks {
			lines = append(lines, problemLine(p))
		}
		sections = append(sections, tgui.JoinH("\n", lines...))
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n\n", sections...))
}

// solvedBreakdown summarizes distinct accepted problems in a submission
// slice, grouped by difficulty.
func solvedBreakdown(subs []codeforces.Submission) []tgui.H {
	seen := map[string]bool{}
	byRating := map[int]int{}
	for _, s := range subs {
		if s.Verdict != "OK" {
			continue
		}
		key := codeforces.ProblemKey(s.Problem)
		if seen[key] {
			continue
		}
		seen[key] = true
		byRating[s.Problem.Rating]++
	}
	if len(seen) == 0 {
		return nil
	}
	ratings := make([]int, 0, len(byRating))
	for r := range byRating {
		ratings = append(ratings, r)
	}
	sort.Ints(ratings)
	buckets := make([]string, 0, len(ratings))
	for _, r := range ratings {
		buckets = append(buckets, codeforces.RatingLabel(r)+"×"+strconv.Itoa(byRating[r]))
	}
	return []tgui.H{
		tgui.Esc("Solved lately: " + strconv.Itoa(len(seen))),
		tgui.Esc(strings.Join(buckets, ", ")),
	}
}

func problemLine(p codeforces.Problem) tgui.H {
	return tgui.JoinH(" ",
		tgui.Esc("🎯"),
		tgui.Link(codeforces.ProblemKey(p)+": "+p.Name, codeforces.ProblemURL(p)),
		tgui.Esc("("+codeforces.RatingLabel(p.Rating)+")"),
	)
}
