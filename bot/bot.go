// Package bot implements the PR lifecycle orchestrator. It owns no durable
// state of its own: every decision is derived fresh from the remote PR
// service, and the only cross-step state is the deployment-link set kept in
// the link store (rendered into a PR comment for humans).
package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xcaliber/xcaliber-bot/clone"
	"github.com/xcaliber/xcaliber-bot/commit"
	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/links"
	"github.com/xcaliber/xcaliber-bot/scm"
)

// Emitter sends outbound events to the real-time listeners.
type Emitter interface {
	Emit(event string, data any)
}

// Bot sequences the lifecycle flows against the remote PR service.
type Bot struct {
	v          *viper.Viper
	gateway    scm.Gateway
	store      links.Store
	clones     *clone.Coordinator
	emitter    Emitter
	classifier *commit.Classifier
	log        *zap.SugaredLogger
}

// New constructs the orchestrator with its collaborators injected.
func New(v *viper.Viper, gateway scm.Gateway, store links.Store, clones *clone.Coordinator, emitter Emitter, log *zap.SugaredLogger) (*Bot, error) {
	classifier, err := commit.NewClassifier(v.GetString(config.CommitPattern))
	if err != nil {
		return nil, err
	}

	return &Bot{
		v:          v,
		gateway:    gateway,
		store:      store,
		clones:     clones,
		emitter:    emitter,
		classifier: classifier,
		log:        log,
	}, nil
}

// Payload is the envelope for the initialsetup and e2e:run events.
type Payload struct {
	Issues      []string         `json:"issues"`
	PR          *scm.PullRequest `json:"pr"`
	DeployedURL links.Set        `json:"deployedUrl"`
	Comment     string           `json:"comment,omitempty"`
}

// ApprovedPayload is the envelope for the approved event. The plural URL
// key is part of the listener protocol.
type ApprovedPayload struct {
	Issues       []string         `json:"issues"`
	PR           *scm.PullRequest `json:"pr"`
	DeployedURLs links.Set        `json:"deployedUrls"`
}

// CanReview reports whether the PR is open for review: neither the
// do-not-review nor the checked label is present.
func (b *Bot) CanReview(ctx context.Context, pr *scm.PullRequest) (bool, error) {
	labels, err := b.gateway.ListLabels(ctx, pr.Number)
	if err != nil {
		return false, err
	}

	for _, label := range labels {
		if label == b.v.GetString(config.LabelDontReview) || label == b.v.GetString(config.LabelChecked) {
			return false, nil
		}
	}

	return true, nil
}

// primaryProject is the project name used for the primary repository's own
// deployment link.
func (b *Bot) primaryProject() string {
	if projects := b.v.GetStringSlice(config.Projects); len(projects) > 0 {
		return projects[0]
	}

	return b.v.GetString(config.RepoName)
}

// selectReviewers picks the reviewer pool for a PR by scanning the
// configured project names in order and taking the first one found in the
// PR title, falling back to the first configured project. The PR author is
// removed from the pool.
func (b *Bot) selectReviewers(pr *scm.PullRequest) []string {
	projects := b.v.GetStringSlice(config.Projects)
	if len(projects) == 0 {
		return nil
	}

	project := projects[0]
	for _, candidate := range projects {
		if strings.Contains(pr.Title, candidate) {
			project = candidate
			break
		}
	}

	pool := b.v.GetStringMapStringSlice(config.ReviewerPools)[strings.ToLower(project)]

	reviewers := make([]string, 0, len(pool))
	for _, reviewer := range pool {
		if reviewer != pr.Author {
			reviewers = append(reviewers, reviewer)
		}
	}

	return reviewers
}

// issues derives the PR's issue set from its commit list.
func (b *Bot) issues(ctx context.Context, pr *scm.PullRequest) ([]string, error) {
	messages, err := b.commitMessages(ctx, pr)
	if err != nil {
		return nil, err
	}

	return b.classifier.Issues(messages), nil
}

func (b *Bot) commitMessages(ctx context.Context, pr *scm.PullRequest) ([]string, error) {
	commits, err := b.gateway.ListCommits(ctx, pr.Number)
	if err != nil {
		return nil, err
	}

	messages := make([]string, len(commits))
	for i, c := range commits {
		messages[i] = c.Message
	}

	return messages, nil
}

// deployedURLs reconstructs the link set for a PR: the store is
// authoritative, the encoded comment is the fallback for PRs recorded
// before this process started. A non-empty fallback result repopulates
// the store.
func (b *Bot) deployedURLs(ctx context.Context, pr *scm.PullRequest) (links.Set, error) {
	urls, err := b.store.Load(ctx, pr.Number)
	if err == nil {
		return urls, nil
	}
	if !errors.Is(err, links.ErrNotFound) {
		b.log.Errorw("link store unavailable, falling back to comment scan", "pr", pr.Number, "error", err)
	}

	comments, err := b.gateway.ListComments(ctx, pr.Number)
	if err != nil {
		return nil, err
	}

	urls = links.Decode(comments)
	if len(urls) > 0 {
		if err := b.store.Save(ctx, pr.Number, urls); err != nil {
			b.log.Errorw("failed to repopulate link store", "pr", pr.Number, "error", err)
		}
	}

	return urls, nil
}
