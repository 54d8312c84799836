package bot

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"stalkbot/internal/chart"
	"stalkbot/internal/judge"
	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/plan"
	"stalkbot/internal/transport"
	logx "stalkbot/pkg/logx"
	"stalkbot/pkg/tgui"
)

func (h *handlers) cmdACStatus(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.AtCoder)
	if !ok {
		return nil
	}
	info, err := h.AC.UserInfo(ctx, handle)
	if err != nil {
		req.Log.Warn("ac history fetch failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	if info.Contests == 0 {
		return req.Reply(ctx, handle+" has no rated AtCoder contests yet.")
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n",
		tgui.B(handle),
		tgui.Esc("Rating: "+strconv.Itoa(info.Rating)),
		tgui.Esc("Highest: "+strconv.Itoa(info.HighestRating)),
		tgui.Esc("Rated contests: "+strconv.Itoa(info.Contests)),
	))
}

func (h *handlers) cmdACGraph(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.AtCoder)
	if !ok {
		return nil
	}
	history, err := h.AC.RatingHistory(ctx, handle)
	if err != nil {
		req.Log.Warn("ac history fetch failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	values := make([]float64, 0, len(history))
	for _, ch := range history {
		if ch.IsRated {
			values = append(values, float64(ch.NewRating))
		}
	}
	png, err := chart.Line(handle+" on AtCoder", values)
	if err != nil {
		return req.Reply(ctx, handle+" has no rated contests to draw yet.")
	}
	return req.ReplyPhoto(ctx, transport.Photo{
		Data:    png,
		Caption: tgui.JoinH(" ", tgui.B(handle), tgui.Esc("rating over "+strconv.Itoa(len(values))+" contests")).String(),
	})
}

func (h *handlers) cmdACGimme(ctx context.Context, req *Request) error {
	rating := 0
	if len(req.Args) > 0 {
		n, err := strconv.Atoi(req.Args[0])
		if err != nil {
			return req.Reply(ctx, "Usage: /ac_gimme [difficulty]")
		}
		rating = n
	}

	problems, err := h.AC.Problems(ctx)
	if err != nil {
		req.Log.Warn("ac problems fetch failed", logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	solved := map[string]bool{}
	if nick, ok := h.Registry.Nick(judge.AtCoder, req.Msg.FromID); ok {
		if s, err := h.AC.SolvedIDs(ctx, nick); err == nil {
			solved = s
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	p, ok := plan.GimmeAtCoder(problems, solved, rating, rng)
	if !ok {
		return req.Reply(ctx, "Nothing matches that difficulty. Loosen up!")
	}
	return req.ReplyHTML(ctx, acProblemLine(p))
}

func (h *handlers) cmdACTrain(ctx context.Context, req *Request) error {
	handle, ok := h.handleArg(ctx, req, judge.AtCoder)
	if !ok {
		return nil
	}
	info, err := h.AC.UserInfo(ctx, handle)
	if err != nil {
		req.Log.Warn("ac history fetch failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	problems, err := h.AC.Problems(ctx)
	if err != nil {
		req.Log.Warn("ac problems fetch failed", logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}
	solved, err := h.AC.SolvedIDs(ctx, handle)
	if err != nil {
		req.Log.Warn("ac submissions fetch failed", logx.String("handle", handle), logx.Err(err))
		return req.Reply(ctx, msgFetchFailed)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ladder := plan.AtCoderLadder(problems, solved, info.Rating, rng)
	if len(ladder) == 0 {
		return req.Reply(ctx, "Couldn't build a plan, no unsolved problems near your rating.")
	}

	levels := make([]int, 0, len(ladder))
	for level := range ladder {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	sections := []tgui.H{tgui.JoinH(" ", tgui.Esc("🏋️ Training plan for"), tgui.B(handle))}
	for _, level := range levels {
		lines := []tgui.H{tgui.B("around " + strconv.Itoa(level))}
		for _, p := range ladder[level] {
			lines = append(lines, acProblemLine(p))
		}
		sections = append(sections, tgui.JoinH("\n", lines...))
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n\n", sections...))
}

func acProblemLine(p atcoder.Problem) tgui.H {
	name := p.Title
	if name == "" {
		name = p.ID
	}
	url := atcoder.DefaultSiteBaseURL + "/contests/" + p.ContestID + "/tasks/" + p.ID
	return tgui.JoinH(" ",
		tgui.Esc("🎯"),
		tgui.Link(name, url),
		tgui.Esc("("+atcoder.DifficultyLabel(p.Difficulty)+")"),
	)
}
