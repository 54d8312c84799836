package stalker

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"

	"stalkbot/internal/judge"
	"stalkbot/pkg/tgui"
)

const preamble = "🐶 Woof! Your loyal watchdog reports:"

// solveMessage renders the fan-out notification for a new accepted
// submission as Telegram HTML.
func solveMessage(p judge.Platform, handle string, l *judge.Latest) string {
	name := l.Problem.Name
	if name == "" {
		name = l.Problem.Key
	}
	head := tgui.JoinH(" ",
		tgui.Raw("🔥"),
		tgui.B(p.Tag()),
		tgui.Raw("user"),
		tgui.B(handle),
		tgui.Esc("solved a problem!"),
	)
	problem := tgui.JoinH(" ",
		tgui.Raw("🎯"),
		tgui.Esc(l.Problem.Key+":"),
		tgui.Esc(name),
		tgui.Raw("(Difficulty: "+tgui.B(l.Problem.Rating).String()+")"),
	)
	link := tgui.JoinH(" ", tgui.Raw("🔗"), tgui.Esc(l.Problem.URL))

	body := tgui.JoinH("\n", head, problem, link)
	return tgui.Esc(preamble).String() + "\n\n" + body.String()
}

func sortedKeys(idx map[string]mapset.Set[int64]) []string {
	keys := make([]string, 0, len(idx))
	for h := range idx {
		keys = append(keys, h)
	}
	sort.Strings(keys)
	return keys
}

func sortedChats(set mapset.Set[int64]) []int64 {
	chats := set.ToSlice()
	sort.Slice(chats, func(i, j int) bool { return chats[i] < chats[j] })
	return chats
}
