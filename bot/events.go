package bot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xcaliber/xcaliber-bot/bridge"
	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/review"
	"github.com/xcaliber/xcaliber-bot/scm"
)

// RunTests reconstructs the PR's deployment URLs and issue set and asks the
// listeners to run the e2e suite.
func (b *Bot) RunTests(ctx context.Context, pr *scm.PullRequest) error {
	urls, err := b.deployedURLs(ctx, pr)
	if err != nil {
		return fmt.Errorf("failed to reconstruct deployment links: %w", err)
	}

	issues, err := b.issues(ctx, pr)
	if err != nil {
		return err
	}

	b.emitter.Emit("e2e:run", Payload{
		Issues:      issues,
		PR:          pr,
		DeployedURL: urls,
	})

	return nil
}

// CheckReviews tallies the submitted reviews and, on readiness, applies the
// ready label and emits the approved event. The readiness action fires at
// most once per PR: it is skipped while the ready label is already present.
func (b *Bot) CheckReviews(ctx context.Context, pr *scm.PullRequest) error {
	ready := b.v.GetString(config.LabelReady)

	labels, err := b.gateway.ListLabels(ctx, pr.Number)
	if err != nil {
		return err
	}

	for _, label := range labels {
		if label == ready {
			return nil
		}
	}

	reviews, err := b.gateway.ListReviews(ctx, pr.Number)
	if err != nil {
		return err
	}

	if !review.Count(reviews).Ready(b.v.GetInt(config.ReviewsNeeded)) {
		return nil
	}

	if err := b.gateway.AddLabels(ctx, pr.Number, []string{ready}); err != nil {
		return err
	}

	urls, err := b.deployedURLs(ctx, pr)
	if err != nil {
		b.log.Errorw("failed to reconstruct deployment links", "pr", pr.Number, "error", err)
	}

	issues, err := b.issues(ctx, pr)
	if err != nil {
		b.log.Errorw("failed to derive issue set", "pr", pr.Number, "error", err)
	}

	b.emitter.Emit("approved", ApprovedPayload{
		Issues:       issues,
		PR:           pr,
		DeployedURLs: urls,
	})

	return nil
}

// prRef is the inbound payload shape for test-result events.
type prRef struct {
	PR struct {
		Number int `json:"number"`
	} `json:"pr"`
}

// Bind registers the inbound test-result handlers on the hub.
func (b *Bot) Bind(ctx context.Context, hub *bridge.Hub) {
	hub.Handle("e2e:fail", func(data json.RawMessage) {
		var ref prRef
		if err := json.Unmarshal(data, &ref); err != nil {
			b.log.Errorw("malformed e2e:fail payload", "error", err)
			return
		}

		b.testsFailed(ctx, ref.PR.Number)
	})

	hub.Handle("e2e:success", func(data json.RawMessage) {
		var ref prRef
		if err := json.Unmarshal(data, &ref); err != nil {
			b.log.Errorw("malformed e2e:success payload", "error", err)
			return
		}

		b.testsPassed(ctx, ref.PR.Number)
	})
}

func (b *Bot) testsFailed(ctx context.Context, number int) {
	comment := "E2E tests failed."
	if tmpl := b.v.GetString(config.RerunTmpl); tmpl != "" {
		comment = fmt.Sprintf("E2E tests failed, [click here](%s) to re-run.",
			fmt.Sprintf(tmpl, number))
	}

	if err := b.gateway.CreateComment(ctx, number, comment); err != nil {
		b.log.Errorw("failed to post e2e failure comment", "pr", number, "error", err)
	}

	if err := b.gateway.AddLabels(ctx, number, []string{b.v.GetString(config.LabelTestFail)}); err != nil {
		b.log.Errorw("failed to add e2e failure label", "pr", number, "error", err)
	}
}

func (b *Bot) testsPassed(ctx context.Context, number int) {
	if err := b.gateway.RemoveLabel(ctx, number, b.v.GetString(config.LabelTestFail)); err != nil {
		b.log.Errorw("failed to remove e2e failure label", "pr", number, "error", err)
	}

	if err := b.gateway.AddLabels(ctx, number, []string{b.v.GetString(config.LabelTestPass)}); err != nil {
		b.log.Errorw("failed to add e2e success label", "pr", number, "error", err)
	}
}
