// Package bot parses inbound chat commands and runs their handlers.
package bot

import (
	"context"
	"sort"
	"strings"
	"sync"

	"stalkbot/internal/transport"
	logx "stalkbot/pkg/logx"
	"stalkbot/pkg/tgui"
)

// Sender is the outbound surface handlers reply through. Satisfied by
// transport.Adapter.
type Sender interface {
	SendText(ctx context.Context, to transport.ChatTarget, text string, opt *transport.SendOptions) (transport.MessageRef, error)
	SendPhoto(ctx context.Context, to transport.ChatTarget, photo transport.Photo, opt *transport.SendOptions) (transport.MessageRef, error)
}

type HandlerFunc func(ctx context.Context, req *Request) error

type Middleware func(next HandlerFunc) HandlerFunc

func Chain(h HandlerFunc, m ...Middleware) HandlerFunc {
	for i := len(m) - 1; i >= 0; i-- {
		h = m[i](h)
	}
	return h
}

type Command struct {
	Name        string
	Description string
	Usage       string
	Handle      HandlerFunc
}

type Request struct {
	Msg     transport.Message
	Chat    transport.ChatTarget
	Command string
	Args    []string

	Log    logx.Logger
	sender Sender
}

// Reply sends plain text back to the originating chat.
func (r *Request) Reply(ctx context.Context, text string) error {
	_, err := r.sender.SendText(ctx, r.Chat, tgui.TruncRunes(text, tgui.MaxMessageRunes), nil)
	return err
}

// ReplyHTML sends pre-escaped HTML back to the originating chat with link
// previews suppressed. Overlong output is cut to Telegram's message limit;
// list and help replies can blow past it in busy chats.
func (r *Request) ReplyHTML(ctx context.Context, h tgui.H) error {
	_, err := r.sender.SendText(ctx, r.Chat, tgui.TruncRunes(h.String(), tgui.MaxMessageRunes), &transport.SendOptions{
		ParseMode:      "HTML",
		DisablePreview: true,
	})
	return err
}

// ReplyPhoto sends an image back to the originating chat. The caption is
// treated as HTML and cut to Telegram's caption limit.
func (r *Request) ReplyPhoto(ctx context.Context, photo transport.Photo) error {
	photo.Caption = tgui.TruncRunes(photo.Caption, tgui.MaxCaptionRunes)
	_, err := r.sender.SendPhoto(ctx, r.Chat, photo, &transport.SendOptions{ParseMode: "HTML"})
	return err
}

type Router struct {
	log    logx.Logger
	sender Sender
	mw     []Middleware

	mu       sync.RWMutex
	commands map[string]Command
}

func NewRouter(sender Sender, log logx.Logger, mw ...Middleware) *Router {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Router{
		log:      log,
		sender:   sender,
		mw:       mw,
		commands: make(map[string]Command),
	}
}

func (r *Router) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Name] = cmd
}

// Commands lists registered commands sorted by name, for help output.
func (r *Router) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch routes one inbound update. Non-command text and unknown
// commands are ignored silently (group chats see plenty of both).
func (r *Router) Dispatch(ctx context.Context, up transport.Update) {
	if up.Kind != transport.UpdateMessage || up.Message == nil {
		return
	}
	name, args, ok := splitCommand(up.Message.Text)
	if !ok {
		return
	}
	r.mu.RLock()
	cmd, found := r.commands[name]
	r.mu.RUnlock()
	if !found {
		return
	}

	req := &Request{
		Msg:     *up.Message,
		Chat:    transport.ChatTarget{ChatID: up.Message.ChatID, ThreadID: up.Message.ThreadID},
		Command: name,
		Args:    args,
		Log:     r.log.With(logx.String("cmd", name), logx.Int64("chat", up.Message.ChatID)),
		sender:  r.sender,
	}
	h := Chain(cmd.Handle, r.mw...)
	if err := h(ctx, req); err != nil {
		req.Log.Warn("command failed", logx.Err(err))
	}
}

// splitCommand parses "/name@SomeBot arg1 arg2". It reports false for
// anything that is not a slash command.
func splitCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}
	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return "", nil, false
	}
	name = fields[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}
	if name == "" {
		return "", nil, false
	}
	return strings.ToLower(name), fields[1:], true
}
