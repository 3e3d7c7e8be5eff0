// Package clone mirrors a pull request into the configured downstream
// repositories and joins the results before the orchestrator proceeds.
package clone

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xcaliber/xcaliber-bot/config"
	"github.com/xcaliber/xcaliber-bot/scm"
)

// Target is a downstream repository receiving clone PRs for one project.
type Target struct {
	Owner string
	Repo  string
	App   string
}

// Record describes one clone PR created during a single fan-out.
type Record struct {
	Project   string
	Owner     string
	Repo      string
	Number    int
	DeployURL string
}

// URL returns the clone PR's web address.
func (r Record) URL() string {
	return fmt.Sprintf("https://github.com/%s/%s/pull/%d", r.Owner, r.Repo, r.Number)
}

// Coordinator fans PR clones out to every configured target and waits for
// all attempts to settle. A failed clone is logged and omitted from the
// results; sibling clones are unaffected.
type Coordinator struct {
	gateway scm.Gateway
	log     *zap.SugaredLogger

	order   []string
	targets map[string]Target

	originOwner string
	originRepo  string
	baseBranch  string
	previewTmpl string
}

// New builds a Coordinator from the configured clone targets. Projects
// without a configured target are skipped.
func New(ctx context.Context, gateway scm.Gateway, log *zap.SugaredLogger) *Coordinator {
	v := config.Viper(ctx)

	c := &Coordinator{
		gateway:     gateway,
		log:         log,
		targets:     make(map[string]Target),
		originOwner: v.GetString(config.RepoOwner),
		originRepo:  v.GetString(config.RepoName),
		baseBranch:  v.GetString(config.CloneBaseBranch),
		previewTmpl: v.GetString(config.PreviewTmpl),
	}

	for _, project := range v.GetStringSlice(config.Projects) {
		target := v.GetStringMapString(fmt.Sprintf("%s.%s", config.CloneTargets, strings.ToLower(project)))
		if target["owner"] == "" || target["repo"] == "" {
			continue
		}

		c.order = append(c.order, project)
		c.targets[project] = Target{
			Owner: target["owner"],
			Repo:  target["repo"],
			App:   target["app"],
		}
	}

	return c
}

// PreviewURL interpolates the preview-app identifier and PR number into the
// configured deployment URL template.
func (c *Coordinator) PreviewURL(app string, number int) string {
	return fmt.Sprintf(c.previewTmpl, app, number)
}

// CloneAll opens a clone PR in every configured target concurrently and
// returns once all attempts settled, in configured project order.
func (c *Coordinator) CloneAll(ctx context.Context, pr *scm.PullRequest) []Record {
	var (
		group   errgroup.Group
		mu      sync.Mutex
		records = make(map[string]Record, len(c.order))
	)

	for _, project := range c.order {
		group.Go(func() error {
			record, err := c.cloneOne(ctx, pr, project)
			if err != nil {
				c.log.Errorw("failed to clone pull request", "project", project, "pr", pr.Number, "error", err)
				return nil
			}

			mu.Lock()
			records[project] = record
			mu.Unlock()

			return nil
		})
	}

	// barrier: every clone attempt has settled past this point
	_ = group.Wait()

	output := make([]Record, 0, len(records))
	for _, project := range c.order {
		if record, exists := records[project]; exists {
			output = append(output, record)
		}
	}

	return output
}

func (c *Coordinator) cloneOne(ctx context.Context, pr *scm.PullRequest, project string) (Record, error) {
	target := c.targets[project]

	clone, err := c.gateway.CreatePullRequest(ctx, scm.NewPullRequest{
		Owner: target.Owner,
		Repo:  target.Repo,
		Title: fmt.Sprintf("[clone-%d] %s", pr.Number, pr.Title),
		Body:  fmt.Sprintf("Original PR: https://github.com/%s/%s/pull/%d", c.originOwner, c.originRepo, pr.Number),
		Head:  pr.HeadLabel,
		Base:  c.baseBranch,
	})
	if err != nil {
		return Record{}, err
	}

	return Record{
		Project:   project,
		Owner:     target.Owner,
		Repo:      target.Repo,
		Number:    clone.Number,
		DeployURL: c.PreviewURL(target.App, clone.Number),
	}, nil
}

// CloseAll closes the clone PRs opened for the given original PR. Targets
// with no matching clone are skipped silently.
func (c *Coordinator) CloseAll(ctx context.Context, pr *scm.PullRequest) {
	marker := fmt.Sprintf("[clone-%d]", pr.Number)

	for _, project := range c.order {
		target := c.targets[project]

		clones, err := c.gateway.ListPullRequests(ctx, target.Owner, target.Repo)
		if err != nil {
			c.log.Errorw("failed to list clone pull requests", "project", project, "error", err)
			continue
		}

		for _, clone := range clones {
			if !strings.Contains(clone.Title, marker) {
				continue
			}

			if err := c.gateway.ClosePullRequest(ctx, target.Owner, target.Repo, clone.Number); err != nil {
				c.log.Errorw("failed to close clone pull request", "project", project, "clone", clone.Number, "error", err)
			}

			break
		}
	}
}
