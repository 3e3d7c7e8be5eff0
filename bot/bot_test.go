package bot

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xcaliber/xcaliber-bot/bridge"
	"github.com/xcaliber/xcaliber-bot/clone"
	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/links"
	"github.com/xcaliber/xcaliber-bot/review"
	"github.com/xcaliber/xcaliber-bot/scm"
	"github.com/xcaliber/xcaliber-bot/scm/fake"
)

// recorder captures emitted events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []string
	data   []any
}

func (r *recorder) Emit(event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recorder) last() (string, any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.events) == 0 {
		return "", nil
	}

	return r.events[len(r.events)-1], r.data[len(r.data)-1]
}

type fixture struct {
	ctx      context.Context
	v        *viper.Viper
	gateway  *fake.Fake
	store    *links.MemoryStore
	recorder *recorder
	bot      *Bot
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v := config.NewFixture(t)
	v.Set("projects.clone.mobile", map[string]string{
		"owner": "mobile-org",
		"repo":  "mobile",
		"app":   "mobile",
	})
	v.Set(config.JiraURL, "https://jira.example/")
	v.Set(config.RegressionTmpl, "https://screens.example/")
	v.Set(config.RerunTmpl, "https://bot.example/e2e/%d")

	ctx := config.SetViper(context.Background(), v)
	gateway := fake.NewFake()
	store := links.NewMemoryStore()
	rec := new(recorder)

	coordinator := clone.New(ctx, gateway, zap.NewNop().Sugar())
	b, err := New(v, gateway, store, coordinator, rec, zap.NewNop().Sugar())
	require.NoError(t, err)

	return &fixture{ctx: ctx, v: v, gateway: gateway, store: store, recorder: rec, bot: b}
}

func upstreamPR(number int) *scm.PullRequest {
	return &scm.PullRequest{
		Number:    number,
		Title:     "PROJ-5 feat: add x",
		Author:    "alice",
		HeadRef:   "feature-x",
		HeadLabel: "xcaliber-org:feature-x",
		HeadOwner: "xcaliber-org",
		BaseRef:   "master",
		BaseLabel: "xcaliber-org:master",
		BaseOwner: "xcaliber-org",
	}
}

func TestInitialSetupRejectsFork(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(42)
	pr.HeadOwner = "alice"
	pr.HeadLabel = "alice:branch"

	require.NoError(t, f.bot.InitialSetup(f.ctx, pr))

	require.Len(t, f.gateway.Comments[42], 1)
	assert.Contains(t, f.gateway.Comments[42][0].Body, "alice:branch")
	assert.Contains(t, f.gateway.Comments[42][0].Body, "git push upstream")

	assert.Equal(t, []string{"xcaliber-org/xcaliber#42"}, f.gateway.Closed)

	// no further setup steps run
	assert.Empty(t, f.gateway.Reviewers[42])
	assert.Empty(t, f.gateway.Labels[42])
	assert.Empty(t, f.gateway.Created)
	assert.Empty(t, f.recorder.events)
}

func TestInitialSetup(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(7)
	f.gateway.PullRequests[7] = pr
	f.gateway.Commits[7] = []scm.Commit{
		{SHA: "a", Message: "PROJ-5 feat: add x"},
		{SHA: "b", Message: "not a match"},
	}

	require.NoError(t, f.bot.InitialSetup(f.ctx, pr))

	// author excluded from the ELNEW fallback pool
	assert.ElementsMatch(t, []string{"bob", "carol"}, f.gateway.Reviewers[7])
	assert.Equal(t, []string{"alice"}, f.gateway.Assignees[7])
	assert.Equal(t, []string{"PROJ", "enhancement"}, f.gateway.Labels[7])

	// exactly one clone, for the only configured target
	require.Len(t, f.gateway.Created, 1)
	assert.Equal(t, "[clone-7] PROJ-5 feat: add x", f.gateway.Created[0].Title)

	require.Len(t, f.gateway.Comments[7], 1)
	body := f.gateway.Comments[7][0].Body
	assert.Contains(t, body, "Deployment link(s):")
	assert.Contains(t, body, "ELNEW: https://elnew-pr-7.herokuapp.com/")
	assert.Contains(t, body, "mobile: https://mobile-pr-101.herokuapp.com/")
	assert.Contains(t, body, "Cloned PR(s):\nhttps://github.com/mobile-org/mobile/pull/101")
	assert.Contains(t, body, "Jira issue(s):\nhttps://jira.example/browse/PROJ-5")
	assert.Contains(t, body, "Regression page:\nhttps://screens.example/feature-x")

	// store is authoritative after setup
	urls, err := f.store.Load(f.ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "https://mobile-pr-101.herokuapp.com/", urls["mobile"])

	event, data := f.recorder.last()
	assert.Equal(t, "initialsetup", event)

	payload, ok := data.(Payload)
	require.True(t, ok)
	assert.Equal(t, []string{"PROJ-5"}, payload.Issues)
	assert.Contains(t, payload.Comment, "https://github.com/xcaliber-org/xcaliber/pull/7")
}

func TestInitialSetupReviewerPoolFromTitle(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(8)
	pr.Title = "mobile tweaks"
	pr.Author = "dave"

	require.NoError(t, f.bot.InitialSetup(f.ctx, pr))

	// "mobile" matched in the title; dave removed from its pool
	assert.ElementsMatch(t, []string{"erin"}, f.gateway.Reviewers[8])
}

func TestInitialSetupSkipsReviewersWhenMarked(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(14)
	f.gateway.Labels[14] = []string{"don't review"}

	require.NoError(t, f.bot.InitialSetup(f.ctx, pr))

	// the label blocks only reviewer assignment, the rest proceeds
	assert.Empty(t, f.gateway.Reviewers[14])
	assert.Equal(t, []string{"alice"}, f.gateway.Assignees[14])
	require.Len(t, f.gateway.Created, 1)
	require.Len(t, f.gateway.Comments[14], 1)
}

func TestInitialSetupSiblingsSurviveFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.SeedErrors(map[string]error{
		"RequestReviewers": assert.AnError,
		"ListCommits":      assert.AnError,
	})

	pr := upstreamPR(9)
	require.NoError(t, f.bot.InitialSetup(f.ctx, pr))

	// reviewer and label branches failed, the rest proceeded
	assert.Empty(t, f.gateway.Reviewers[9])
	assert.Equal(t, []string{"alice"}, f.gateway.Assignees[9])
	require.Len(t, f.gateway.Created, 1)
	require.Len(t, f.gateway.Comments[9], 1)

	event, _ := f.recorder.last()
	assert.Equal(t, "initialsetup", event)
}

func TestCheckReviewsNotReady(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(10)
	f.gateway.Reviews[10] = []scm.Review{
		{Reviewer: "alice", State: review.StateApproved},
		{Reviewer: "bob", State: review.StateChangesRequested},
	}

	require.NoError(t, f.bot.CheckReviews(f.ctx, pr))

	assert.NotContains(t, f.gateway.Labels[10], "ready for merge")
	assert.Empty(t, f.recorder.events)
}

func TestCheckReviewsReady(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(11)
	f.gateway.Reviews[11] = []scm.Review{
		{Reviewer: "bob", State: review.StateApproved},
	}
	require.NoError(t, f.store.Save(f.ctx, 11, links.Set{"ELNEW": "https://elnew-pr-11.herokuapp.com/"}))

	require.NoError(t, f.bot.CheckReviews(f.ctx, pr))

	assert.Contains(t, f.gateway.Labels[11], "ready for merge")

	event, data := f.recorder.last()
	assert.Equal(t, "approved", event)

	payload, ok := data.(ApprovedPayload)
	require.True(t, ok)
	assert.Equal(t, "https://elnew-pr-11.herokuapp.com/", payload.DeployedURLs["ELNEW"])
}

func TestCheckReviewsReadyFiresOnce(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(12)
	f.gateway.Reviews[12] = []scm.Review{
		{Reviewer: "bob", State: review.StateApproved},
	}

	require.NoError(t, f.bot.CheckReviews(f.ctx, pr))
	require.NoError(t, f.bot.CheckReviews(f.ctx, pr))

	assert.Len(t, f.recorder.events, 1)
}

func TestRunTestsFallsBackToCommentScan(t *testing.T) {
	f := newFixture(t)

	pr := upstreamPR(13)
	body := links.Encode(links.Set{"ELNEW": "https://elnew-pr-13.herokuapp.com/"}, []string{"ELNEW"}, nil)
	f.gateway.Comments[13] = []scm.Comment{{ID: 1, Body: body}}
	f.gateway.Commits[13] = []scm.Commit{{SHA: "a", Message: "PROJ-9 fix z"}}

	require.NoError(t, f.bot.RunTests(f.ctx, pr))

	event, data := f.recorder.last()
	require.Equal(t, "e2e:run", event)

	payload, ok := data.(Payload)
	require.True(t, ok)
	assert.Equal(t, []string{"PROJ-9"}, payload.Issues)
	assert.Equal(t, "https://elnew-pr-13.herokuapp.com/", payload.DeployedURL["ELNEW"])

	// fallback repopulates the store
	urls, err := f.store.Load(f.ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, "https://elnew-pr-13.herokuapp.com/", urls["ELNEW"])
}

func TestCanReview(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   bool
	}{
		{name: "clean", labels: []string{"enhancement"}, want: true},
		{name: "dont_review", labels: []string{"don't review"}, want: false},
		{name: "checked", labels: []string{"checked"}, want: false},
		{name: "no_labels", labels: nil, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.gateway.Labels[5] = tt.labels

			got, err := f.bot.CanReview(f.ctx, upstreamPR(5))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInboundTestEvents(t *testing.T) {
	f := newFixture(t)

	hub := bridge.NewHub(zap.NewNop().Sugar())
	f.bot.Bind(f.ctx, hub)

	hub.Dispatch("e2e:fail", json.RawMessage(`{"pr":{"number":42}}`))

	require.Len(t, f.gateway.Comments[42], 1)
	assert.Contains(t, f.gateway.Comments[42][0].Body, "https://bot.example/e2e/42")
	assert.Contains(t, f.gateway.Labels[42], "e2e:fail")

	hub.Dispatch("e2e:success", json.RawMessage(`{"pr":{"number":42}}`))

	assert.Contains(t, f.gateway.Removed[42], "e2e:fail")
	assert.Contains(t, f.gateway.Labels[42], "e2e:success")
	assert.NotContains(t, f.gateway.Labels[42], "e2e:fail")
}

func TestFailureCommentWithoutRerunTemplate(t *testing.T) {
	f := newFixture(t)
	f.v.Set(config.RerunTmpl, "")

	f.bot.testsFailed(f.ctx, 21)

	require.Len(t, f.gateway.Comments[21], 1)
	assert.Equal(t, "E2E tests failed.", f.gateway.Comments[21][0].Body)
	assert.Contains(t, f.gateway.Labels[21], "e2e:fail")
}

func TestHandleClosed(t *testing.T) {
	f := newFixture(t)

	f.gateway.RemotePRs["mobile-org/mobile"] = []*scm.PullRequest{
		{Number: 101, Title: "[clone-7] PROJ-5 feat: add x"},
	}

	f.bot.HandleClosed(f.ctx, upstreamPR(7))

	assert.Equal(t, []string{"mobile-org/mobile#101"}, f.gateway.Closed)
}
