package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stalkbot/internal/fetch"
	"stalkbot/internal/judge"
	"stalkbot/internal/judge/atcoder"
	"stalkbot/internal/judge/codeforces"
	"stalkbot/internal/registry"
	"stalkbot/internal/stalker"
	"stalkbot/pkg/logx"
)

type fixture struct {
	router *Router
	sender *fakeSender
	reg    *registry.Registry
	stk    *stalker.Service
}

type stubWatcher struct{ p judge.Platform }

func (w stubWatcher) Platform() judge.Platform { return w.p }
func (w stubWatcher) Latest(context.Context, string) (*judge.Latest, error) {
	return nil, nil
}

func newFixture(t *testing.T, routes map[string]string) *fixture {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	httpc := fetch.New(fetch.Config{MaxAttempts: 1, Timeout: time.Second}, logx.Nop())
	reg, err := registry.Load(context.Background(), nil, logx.Nop())
	if err != nil {
		t.Fatalf("registry.Load: %v", err)
	}
	stk, err := stalker.New(stalker.Config{HandleDelay: time.Microsecond}, reg, &fakeSender{}, []stalker.Watcher{
		stubWatcher{p: judge.Codeforces},
		stubWatcher{p: judge.AtCoder},
	}, logx.Nop())
	if err != nil {
		t.Fatalf("stalker.New: %v", err)
	}

	sender := &fakeSender{}
	r := NewRouter(sender, logx.Nop())
	RegisterAll(r, Deps{
		Registry: reg,
		Stalker:  stk,
		CF:       codeforces.NewClientWithBaseURL(httpc, srv.URL),
		AC:       atcoder.NewClientWithBaseURLs(httpc, srv.URL, srv.URL),
	})
	return &fixture{router: r, sender: sender, reg: reg, stk: stk}
}

func (f *fixture) send(chat, from int64, text string) {
	f.router.Dispatch(context.Background(), msgUpdate(chat, from, text))
}

func TestFollowUnfollowList(t *testing.T) {
	f := newFixture(t, nil)

	f.send(10, 1, "/cf_follow tourist")
	if got := f.sender.lastText(t); !strings.Contains(got, "tourist") {
		t.Fatalf("follow reply = %q", got)
	}
	f.send(10, 1, "/cf_follow tourist")
	if got := f.sender.lastText(t); !strings.Contains(got, "Already") {
		t.Fatalf("duplicate follow reply = %q", got)
	}

	f.send(10, 1, "/cf_list")
	if got := f.sender.lastText(t); !strings.Contains(got, "tourist") {
		t.Fatalf("list reply = %q", got)
	}

	f.send(10, 1, "/cf_unfollow tourist")
	f.send(10, 1, "/cf_unfollow tourist")
	if got := f.sender.lastText(t); !strings.Contains(got, "wasn't tracking") {
		t.Fatalf("second unfollow reply = %q", got)
	}
	f.send(10, 1, "/cf_list")
	if got := f.sender.lastText(t); !strings.Contains(got, "nobody") {
		t.Fatalf("empty list reply = %q", got)
	}
}

func TestSetMeAndMe(t *testing.T) {
	f := newFixture(t, nil)

	f.send(10, 77, "/me")
	if got := f.sender.lastText(t); !strings.Contains(got, "don't know you") {
		t.Fatalf("me before set_me = %q", got)
	}

	f.send(10, 77, "/set_me cf alice")
	f.send(10, 77, "/set_me ac alice_ac")
	f.send(10, 77, "/me")
	got := f.sender.lastText(t)
	if !strings.Contains(got, "alice") || !strings.Contains(got, "alice_ac") {
		t.Fatalf("me reply = %q", got)
	}

	f.send(10, 77, "/set_me topcoder x")
	if got := f.sender.lastText(t); !strings.Contains(got, "cf or ac") {
		t.Fatalf("bad judge reply = %q", got)
	}

	// One bare handle lands on both judges.
	f.send(10, 77, "/set_me bob")
	f.send(10, 77, "/me")
	got = f.sender.lastText(t)
	if !strings.Contains(got, "bob") || strings.Contains(got, "alice") {
		t.Fatalf("me after bare set_me = %q", got)
	}
}

func TestStalkToggleCommands(t *testing.T) {
	f := newFixture(t, nil)

	if !f.stk.Enabled(judge.Codeforces) {
		t.Fatal("cf should start enabled")
	}
	f.send(10, 1, "/cf_stalk_off")
	if f.stk.Enabled(judge.Codeforces) {
		t.Fatal("cf_stalk_off did not disable")
	}
	f.send(10, 1, "/cf_stalk_off")
	if got := f.sender.lastText(t); !strings.Contains(got, "already off") {
		t.Fatalf("repeat off reply = %q", got)
	}
	f.send(10, 1, "/cf_stalk_on")
	if !f.stk.Enabled(judge.Codeforces) {
		t.Fatal("cf_stalk_on did not enable")
	}
	if !f.stk.Enabled(judge.AtCoder) {
		t.Fatal("cf toggle leaked into the ac toggle")
	}
}

func TestCFStatusSendsProfilePhoto(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/user.info": `{"status":"OK","result":[
			{"handle":"alice","rank":"expert","rating":1701,"maxRank":"cm","maxRating":1934,
			 "titlePhoto":"https://userpic.codeforces.org/alice.jpg"}
		]}`,
		"/user.status": `{"status":"OK","result":[
			{"id":1,"verdict":"OK","problem":{"contestId":1,"index":"A","name":"Sum","rating":800}},
			{"id":2,"verdict":"OK","problem":{"contestId":1,"index":"A","name":"Sum","rating":800}},
			{"id":3,"verdict":"OK","problem":{"contestId":2,"index":"B","name":"Gap","rating":1400}},
			{"id":4,"verdict":"WRONG_ANSWER","problem":{"contestId":3,"index":"C","name":"Nope","rating":2000}}
		]}`,
	})

	f.send(10, 1, "/cf_status alice")
	if len(f.sender.photos) != 1 {
		t.Fatalf("sent %d photos, want 1", len(f.sender.photos))
	}
	photo := f.sender.photos[0]
	if photo.URL != "https://userpic.codeforces.org/alice.jpg" {
		t.Fatalf("photo URL = %q", photo.URL)
	}
	for _, frag := range []string{"alice", "1701", "1934", "expert",
		"Solved lately: 2", "800×1", "1400×1", "codeforces.com/profile/alice"} {
		if !strings.Contains(photo.Caption, frag) {
			t.Fatalf("caption missing %q: %s", frag, photo.Caption)
		}
	}
	if strings.Contains(photo.Caption, "2000") {
		t.Fatalf("rejected submission counted as solved: %s", photo.Caption)
	}
}

func TestCFStatusFallsBackToNickAndFailure(t *testing.T) {
	f := newFixture(t, nil) // every fetch 404s

	f.send(10, 77, "/cf_status")
	if got := f.sender.lastText(t); !strings.Contains(got, "/set_me") {
		t.Fatalf("no-handle reply = %q", got)
	}

	f.send(10, 77, "/set_me cf alice")
	f.send(10, 77, "/cf_status")
	if got := f.sender.lastText(t); !strings.Contains(got, "Can't retrieve data") {
		t.Fatalf("fetch failure reply = %q", got)
	}
}

func TestHelpMoreSeparatesFooter(t *testing.T) {
	f := newFixture(t, nil)

	f.send(10, 1, "/help_more")
	got := f.sender.lastText(t)
	if !strings.Contains(got, "\n\n") {
		t.Fatalf("footer not set off by a blank line: %q", got)
	}
	if !strings.Contains(got, "fall back to the handle") {
		t.Fatalf("footer missing: %q", got)
	}
}

func TestCFTrainSectionsSeparatedByBlankLine(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/user.info": `{"status":"OK","result":[{"handle":"alice","rating":0}]}`,
		"/problemset.problems": `{"status":"OK","result":{"problems":[
			{"contestId":1,"index":"A","name":"Sum","rating":800,"tags":["math"]},
			{"contestId":1,"index":"B","name":"Mul","rating":800,"tags":["math"]}
		]}}`,
		"/user.status": `{"status":"OK","result":[]}`,
	})

	f.send(10, 1, "/cf_train alice")
	got := f.sender.lastText(t)
	if !strings.Contains(got, "Training plan") || !strings.Contains(got, "math") {
		t.Fatalf("plan reply = %q", got)
	}
	if !strings.Contains(got, "\n\n<b>math</b>\n") {
		t.Fatalf("tag section not set off by a blank line: %q", got)
	}
}

func TestACStatusFromHistory(t *testing.T) {
	f := newFixture(t, map[string]string{
		"/users/chokudai/history/json": `[
			{"IsRated":true,"ContestName":"ABC 001","NewRating":1200,"EndTime":"2016-12-03T22:50:00+09:00"},
			{"IsRated":true,"ContestName":"ABC 002","NewRating":1300,"EndTime":"2017-02-03T22:50:00+09:00"}
		]`,
	})

	f.send(10, 1, "/ac_status chokudai")
	got := f.sender.lastText(t)
	for _, frag := range []string{"chokudai", "1300"} {
		if !strings.Contains(got, frag) {
			t.Fatalf("ac_status reply missing %q: %s", frag, got)
		}
	}
}
