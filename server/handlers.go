package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/xcaliber/xcaliber-bot/scm"
)

// webhookBranch is the head/base shape of the PR webhook payload.
type webhookBranch struct {
	Ref   string `json:"ref"`
	Label string `json:"label"`
	User  struct {
		Login string `json:"login"`
	} `json:"user"`
}

// prWebhook is the subset of the PR webhook payload the orchestrator needs.
type prWebhook struct {
	Action      string `json:"action"`
	PullRequest struct {
		Number int    `json:"number"`
		Title  string `json:"title"`
		User   struct {
			Login string `json:"login"`
		} `json:"user"`
		Head webhookBranch `json:"head"`
		Base webhookBranch `json:"base"`
	} `json:"pull_request"`
}

func (w *prWebhook) pullRequest() *scm.PullRequest {
	return &scm.PullRequest{
		Number: w.PullRequest.Number,
		Title:  w.PullRequest.Title,
		Author: w.PullRequest.User.Login,

		HeadRef:   w.PullRequest.Head.Ref,
		HeadLabel: w.PullRequest.Head.Label,
		HeadOwner: w.PullRequest.Head.User.Login,

		BaseRef:   w.PullRequest.Base.Ref,
		BaseLabel: w.PullRequest.Base.Label,
		BaseOwner: w.PullRequest.Base.User.Login,
	}
}

func (s *Server) handlePullRequestHook(c *fiber.Ctx) error {
	var hook prWebhook
	if err := c.BodyParser(&hook); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed webhook payload")
	}

	pr := hook.pullRequest()

	switch hook.Action {
	case "opened", "reopened":
		if err := s.bot.InitialSetup(s.baseCtx, pr); err != nil {
			s.log.Errorw("initial setup failed", "pr", pr.Number, "error", err)
			return fiber.ErrBadGateway
		}
	case "closed":
		s.bot.HandleClosed(s.baseCtx, pr)
	default:
		s.log.Debugw("ignoring webhook action", "action", hook.Action, "pr", pr.Number)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleCheckReviews(c *fiber.Ctx) error {
	number, err := c.ParamsInt("number")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid PR number")
	}

	pr, err := s.gateway.GetPullRequest(s.baseCtx, number)
	if err != nil {
		s.log.Errorw("failed to fetch pull request", "pr", number, "error", err)
		return fiber.ErrBadGateway
	}

	if err := s.bot.CheckReviews(s.baseCtx, pr); err != nil {
		s.log.Errorw("review check failed", "pr", number, "error", err)
		return fiber.ErrBadGateway
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleRunTests(c *fiber.Ctx) error {
	number, err := c.ParamsInt("number")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid PR number")
	}

	pr, err := s.gateway.GetPullRequest(s.baseCtx, number)
	if err != nil {
		s.log.Errorw("failed to fetch pull request", "pr", number, "error", err)
		return fiber.ErrBadGateway
	}

	if err := s.bot.RunTests(s.baseCtx, pr); err != nil {
		s.log.Errorw("test run request failed", "pr", number, "error", err)
		return fiber.ErrBadGateway
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// handleRecordTrigger records arbitrary posted payloads into an in-memory
// list; used purely for external trigger delivery and debugging.
func (s *Server) handleRecordTrigger(c *fiber.Ctx) error {
	body := json.RawMessage(append([]byte(nil), c.Body()...))
	if !json.Valid(body) {
		return fiber.NewError(fiber.StatusBadRequest, "payload must be JSON")
	}

	s.mu.Lock()
	s.triggerLog = append(s.triggerLog, body)
	s.mu.Unlock()

	return c.JSON(fiber.Map{"status": "Up and running"})
}

func (s *Server) handleTriggerLog(c *fiber.Ctx) error {
	s.mu.Lock()
	log := append([]json.RawMessage(nil), s.triggerLog...)
	s.mu.Unlock()

	return c.JSON(fiber.Map{"log": log})
}
