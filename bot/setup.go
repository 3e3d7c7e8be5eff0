package bot

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/xcaliber/xcaliber-bot/clone"
	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/links"
	"github.com/xcaliber/xcaliber-bot/scm"
)

// InitialSetup runs the full opened-PR flow: provenance check, then
// concurrently reviewer assignment, self-assignment, commit-derived labels,
// and the clone fan-out. Once every branch settles it posts the
// consolidated comment, records the link set, and emits initialsetup.
//
// A failed remote call aborts only its own branch; siblings proceed and
// nothing already applied is rolled back.
func (b *Bot) InitialSetup(ctx context.Context, pr *scm.PullRequest) error {
	if pr.Forked() {
		return b.rejectFork(ctx, pr)
	}

	var (
		group   errgroup.Group
		records []clone.Record
	)

	group.Go(func() error {
		open, err := b.CanReview(ctx, pr)
		if err != nil {
			b.log.Errorw("failed to check review labels", "pr", pr.Number, "error", err)
			return nil
		}
		if !open {
			b.log.Infow("review labels present, skipping reviewer assignment", "pr", pr.Number)
			return nil
		}

		if reviewers := b.selectReviewers(pr); len(reviewers) > 0 {
			if err := b.gateway.RequestReviewers(ctx, pr.Number, reviewers); err != nil {
				b.log.Errorw("failed to request reviewers", "pr", pr.Number, "error", err)
			}
		}
		return nil
	})

	group.Go(func() error {
		if err := b.gateway.AddAssignees(ctx, pr.Number, []string{pr.Author}); err != nil {
			b.log.Errorw("failed to self-assign author", "pr", pr.Number, "error", err)
		}
		return nil
	})

	group.Go(func() error {
		messages, err := b.commitMessages(ctx, pr)
		if err != nil {
			b.log.Errorw("failed to list commits for labels", "pr", pr.Number, "error", err)
			return nil
		}

		labels := b.classifier.Labels(messages, b.v.GetStringMapString(config.CommitTypeMap))
		if err := b.gateway.AddLabels(ctx, pr.Number, labels); err != nil {
			b.log.Errorw("failed to add commit labels", "pr", pr.Number, "error", err)
		}
		return nil
	})

	group.Go(func() error {
		records = b.clones.CloneAll(ctx, pr)
		return nil
	})

	// join: every branch, including all clone attempts, has settled
	_ = group.Wait()

	urls := links.Set{
		b.primaryProject(): b.clones.PreviewURL(b.v.GetString(config.PreviewApp), pr.Number),
	}
	order := []string{b.primaryProject()}

	cloneURLs := make([]string, 0, len(records))
	for _, record := range records {
		urls[record.Project] = record.DeployURL
		order = append(order, record.Project)
		cloneURLs = append(cloneURLs, record.URL())
	}

	issues, err := b.issues(ctx, pr)
	if err != nil {
		b.log.Errorw("failed to derive issue set", "pr", pr.Number, "error", err)
	}

	body := b.composeComment(pr, urls, order, cloneURLs, issues)
	if err := b.gateway.CreateComment(ctx, pr.Number, body); err != nil {
		b.log.Errorw("failed to post consolidated comment", "pr", pr.Number, "error", err)
	}

	if err := b.store.Save(ctx, pr.Number, urls); err != nil {
		b.log.Errorw("failed to record deployment links", "pr", pr.Number, "error", err)
	}

	b.emitter.Emit("initialsetup", Payload{
		Issues:      issues,
		PR:          pr,
		DeployedURL: urls,
		Comment:     b.composeSummary(pr, urls, order),
	})

	return nil
}

// rejectFork posts the upstream-push warning and closes the PR. The close
// depends on the warning being delivered.
func (b *Bot) rejectFork(ctx context.Context, pr *scm.PullRequest) error {
	warning := fmt.Sprintf(
		"Changes must be pushed upstream: use `git push upstream` to push into `%s` instead of pushing into `%s`",
		b.v.GetString(config.RepoOwner), pr.HeadLabel,
	)

	if err := b.gateway.CreateComment(ctx, pr.Number, warning); err != nil {
		return fmt.Errorf("failed to post fork warning: %w", err)
	}

	if err := b.gateway.ClosePullRequest(ctx, b.v.GetString(config.RepoOwner), b.v.GetString(config.RepoName), pr.Number); err != nil {
		return fmt.Errorf("failed to close forked pull request: %w", err)
	}

	return nil
}

// composeComment renders the consolidated status comment: deployment links,
// clone links, optional static instructions, Jira issue links when an issue
// tracker is configured, and the regression page.
func (b *Bot) composeComment(pr *scm.PullRequest, urls links.Set, order, cloneURLs, issues []string) string {
	var body strings.Builder

	body.WriteString(links.Encode(urls, order, cloneURLs))

	if instructions := b.v.GetString(config.Instructions); instructions != "" {
		body.WriteString("\n\n" + instructions)
	}

	if jira := b.v.GetString(config.JiraURL); jira != "" && len(issues) > 0 {
		body.WriteString("\n\nJira issue(s):")
		for _, issue := range issues {
			body.WriteString(fmt.Sprintf("\n%sbrowse/%s", jira, issue))
		}
	}

	if regression := b.v.GetString(config.RegressionTmpl); regression != "" {
		body.WriteString(fmt.Sprintf("\n\nRegression page:\n%s%s", regression, pr.HeadRef))
	}

	return body.String()
}

// composeSummary renders the short listener-facing summary carried on the
// initialsetup event.
func (b *Bot) composeSummary(pr *scm.PullRequest, urls links.Set, order []string) string {
	var body strings.Builder

	body.WriteString(fmt.Sprintf("Github: https://github.com/%s/%s/pull/%d",
		b.v.GetString(config.RepoOwner), b.v.GetString(config.RepoName), pr.Number))

	body.WriteString("\n" + links.Encode(urls, order, nil))

	if regression := b.v.GetString(config.RegressionTmpl); regression != "" {
		body.WriteString(fmt.Sprintf("\nRegression page:\n%s%s", regression, pr.HeadRef))
	}

	return body.String()
}

// HandleClosed reconciles a closed original PR by closing its clones.
func (b *Bot) HandleClosed(ctx context.Context, pr *scm.PullRequest) {
	b.clones.CloseAll(ctx, pr)
}
