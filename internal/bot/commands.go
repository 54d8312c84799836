package bot

import (
	"context"
	"fmt"
	"strings"

	"stalkbot/internal/judge"
	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/judge/codeforces"
	"stalkbot/internal/registry"
	"stalkbot/internal/stalker"
	"stalkbot/pkg/tgui"
)

const msgFetchFailed = "Can't retrieve data, try again later 😔"

type Deps struct {
	Registry *registry.Registry
	Stalker  *stalker.Service
	CF       *codeforces.Client
	AC       *atcoder.Client
}

type handlers struct {
	Deps
}

// RegisterAll wires every command into the router.
func RegisterAll(r *Router, d Deps) {
	h := &handlers{Deps: d}

	r.Register(Command{Name: "start", Description: "greet and explain what the bot does", Handle: h.cmdStart})
	r.Register(Command{Name: "help", Description: "list commands", Handle: func(ctx context.Context, req *Request) error {
		return h.cmdHelp(ctx, req, r)
	}})
	r.Register(Command{Name: "help_more", Description: "command usage details", Handle: func(ctx context.Context, req *Request) error {
		return h.cmdHelpMore(ctx, req, r)
	}})
	r.Register(Command{Name: "set_me", Usage: "/set_me [cf|ac] <handle>", Description: "remember your handle on a judge", Handle: h.cmdSetMe})
	r.Register(Command{Name: "me", Description: "show your remembered handles", Handle: h.cmdMe})

	for _, p := range judge.Platforms() {
		p := p
		prefix := strings.ToLower(p.Tag())
		r.Register(Command{
			Name:        prefix + "_follow",
			Usage:       "/" + prefix + "_follow <handle>",
			Description: "track a " + p.Tag() + " account in this chat",
			Handle:      func(ctx context.Context, req *Request) error { return h.cmdFollow(ctx, req, p) },
		})
		r.Register(Command{
			Name:        prefix + "_unfollow",
			Usage:       "/" + prefix + "_unfollow <handle>",
			Description: "stop tracking a " + p.Tag() + " account",
			Handle:      func(ctx context.Context, req *Request) error { return h.cmdUnfollow(ctx, req, p) },
		})
		r.Register(Command{
			Name:        prefix + "_list",
			Description: "list the " + p.Tag() + " accounts tracked in this chat",
			Handle:      func(ctx context.Context, req *Request) error { return h.cmdList(ctx, req, p) },
		})
		r.Register(Command{
			Name:        prefix + "_stalk_on",
			Description: "enable " + p.Tag() + " solve notifications",
			Handle:      func(ctx context.Context, req *Request) error { return h.cmdStalk(ctx, req, p, true) },
		})
		r.Register(Command{
			Name:        prefix + "_stalk_off",
			Description: "disable " + p.Tag() + " solve notifications",
			Handle:      func(ctx context.Context, req *Request) error { return h.cmdStalk(ctx, req, p, false) },
		})
	}

	r.Register(Command{Name: "cf_status", Usage: "/cf_status [handle]", Description: "Codeforces profile summary", Handle: h.cmdCFStatus})
	r.Register(Command{Name: "cf_graph", Usage: "/cf_graph [handle]", Description: "Codeforces rating graph", Handle: h.cmdCFGraph})
	r.Register(Command{Name: "cf_gimme", Usage: "/cf_gimme [rating] [tag ...]", Description: "random unsolved Codeforces problem", Handle: h.cmdCFGimme})
	r.Register(Command{Name: "cf_train", Usage: "/cf_train [handle]", Description: "Codeforces training ladder for your weakest tags", Handle: h.cmdCFTrain})

	r.Register(Command{Name: "ac_status", Usage: "/ac_status [handle]", Description: "AtCoder profile summary", Handle: h.cmdACStatus})
	r.Register(Command{Name: "ac_graph", Usage: "/ac_graph [handle]", Description: "AtCoder rating graph", Handle: h.cmdACGraph})
	r.Register(Command{Name: "ac_gimme", Usage: "/ac_gimme [difficulty]", Description: "random unsolved AtCoder problem", Handle: h.cmdACGimme})
	r.Register(Command{Name: "ac_train", Usage: "/ac_train [handle]", Description: "AtCoder training ladder around your rating", Handle: h.cmdACTrain})
}

func (h *handlers) cmdStart(ctx context.Context, req *Request) error {
	msg := tgui.JoinH("\n",
		tgui.Esc("🐶 Woof! I keep an eye on Codeforces and AtCoder accounts."),
		tgui.Esc("Follow someone with /cf_follow or /ac_follow and I bark whenever they solve a new problem."),
		tgui.Esc("See /help for the full command list."),
	)
	return req.ReplyHTML(ctx, msg)
}

func (h *handlers) cmdHelp(ctx context.Context, req *Request, r *Router) error {
	parts := []tgui.H{tgui.B("Commands")}
	for _, c := range r.Commands() {
		line := tgui.JoinH(" ", tgui.Code("/"+c.Name), tgui.Esc(c.Description))
		parts = append(parts, line)
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n", parts...))
}

func (h *handlers) cmdHelpMore(ctx context.Context, req *Request, r *Router) error {
	parts := []tgui.H{tgui.B("Usage")}
	for _, c := range r.Commands() {
		if c.Usage == "" {
			continue
		}
		parts = append(parts, tgui.Code(c.Usage))
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n\n",
		tgui.JoinH("\n", parts...),
		tgui.Esc("Commands taking [handle] fall back to the handle you registered with /set_me."),
	))
}

func (h *handlers) cmdSetMe(ctx context.Context, req *Request) error {
	switch len(req.Args) {
	case 1:
		// One handle for both judges.
		handle := req.Args[0]
		for _, p := range judge.Platforms() {
			h.Registry.SetNick(ctx, p, req.Msg.FromID, handle)
		}
		return req.ReplyHTML(ctx, tgui.JoinH(" ",
			tgui.Esc("Got it, you are"), tgui.B(handle), tgui.Esc("on both judges."),
		))
	case 2:
		p := judge.Platform(strings.ToLower(req.Args[0]))
		if !p.Valid() {
			return req.Reply(ctx, "Judge must be cf or ac.")
		}
		handle := req.Args[1]
		h.Registry.SetNick(ctx, p, req.Msg.FromID, handle)
		return req.ReplyHTML(ctx, tgui.JoinH(" ",
			tgui.Esc("Got it, you are"), tgui.B(handle), tgui.Esc("on "+p.Tag()+"."),
		))
	default:
		return req.Reply(ctx, "Usage: /set_me [cf|ac] <handle>")
	}
}

func (h *handlers) cmdMe(ctx context.Context, req *Request) error {
	prof := h.Registry.Profile(req.Msg.FromID)
	if prof.CF == "" && prof.AC == "" {
		return req.Reply(ctx, "I don't know you yet. Introduce yourself with /set_me <cf|ac> <handle>.")
	}
	show := func(v string) tgui.H {
		if v == "" {
			return tgui.I("not set")
		}
		return tgui.B(v)
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n",
		tgui.JoinH(" ", tgui.Esc("CF:"), show(prof.CF)),
		tgui.JoinH(" ", tgui.Esc("AC:"), show(prof.AC)),
	))
}

func (h *handlers) cmdFollow(ctx context.Context, req *Request, p judge.Platform) error {
	if len(req.Args) != 1 {
		return req.Reply(ctx, fmt.Sprintf("Usage: /%s_follow <handle>", strings.ToLower(p.Tag())))
	}
	handle := req.Args[0]
	if !h.Registry.Follow(ctx, p, req.Msg.ChatID, handle) {
		return req.Reply(ctx, "Already tracking "+handle+".")
	}
	return req.ReplyHTML(ctx, tgui.JoinH(" ",
		tgui.Esc("🐶 Now stalking"), tgui.B(handle), tgui.Esc("on "+p.Tag()+"."),
	))
}

func (h *handlers) cmdUnfollow(ctx context.Context, req *Request, p judge.Platform) error {
	if len(req.Args) != 1 {
		return req.Reply(ctx, fmt.Sprintf("Usage: /%s_unfollow <handle>", strings.ToLower(p.Tag())))
	}
	handle := req.Args[0]
	if !h.Registry.Unfollow(ctx, p, req.Msg.ChatID, handle) {
		return req.Reply(ctx, "I wasn't tracking "+handle+" here.")
	}
	return req.Reply(ctx, "Dropped "+handle+".")
}

func (h *handlers) cmdList(ctx context.Context, req *Request, p judge.Platform) error {
	handles := h.Registry.List(p, req.Msg.ChatID)
	if len(handles) == 0 {
		return req.Reply(ctx, "This chat tracks nobody on "+p.Tag()+" yet.")
	}
	parts := []tgui.H{tgui.B(p.Tag() + " watchlist")}
	for _, handle := range handles {
		parts = append(parts, tgui.JoinH(" ", tgui.Esc("•"), tgui.Code(handle)))
	}
	return req.ReplyHTML(ctx, tgui.JoinH("\n", parts...))
}

func (h *handlers) cmdStalk(ctx context.Context, req *Request, p judge.Platform, on bool) error {
	changed := h.Stalker.SetEnabled(p, on)
	switch {
	case on && changed:
		return req.Reply(ctx, "🐶 "+p.Tag()+" stalking is back on.")
	case on:
		return req.Reply(ctx, p.Tag()+" stalking was already on.")
	case changed:
		return req.Reply(ctx, "😴 "+p.Tag()+" stalking is off.")
	default:
		return req.Reply(ctx, p.Tag()+" stalking was already off.")
	}
}

// handleArg resolves the handle a command targets: an explicit argument
// wins, then the caller's registered nickname; otherwise the user is asked
// and false is returned.
func (h *handlers) handleArg(ctx context.Context, req *Request, p judge.Platform) (string, bool) {
	if len(req.Args) > 0 {
		return req.Args[0], true
	}
	if nick, ok := h.Registry.Nick(p, req.Msg.FromID); ok {
		return nick, true
	}
	_ = req.Reply(ctx, fmt.Sprintf("Whose? /%s <handle>, or register yours with /set_me.", req.Command))
	return "", false
}
