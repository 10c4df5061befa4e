package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

var (
	ErrGitHub         = errors.New("github request failed")
	ErrBuilderOffline = errors.New("plugin builder is not configured")
)

// BuildError carries the GitHub message of a failed step so it can be shown
// to the operator as is.
type BuildError struct {
	Step    string
	Message string
	Err     error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Step, e.Message)
}

func (e *BuildError) Unwrap() error { return e.Err }

func (e *BuildError) Is(target error) bool { return target == ErrGitHub }

func buildErr(step string, err error) error {
	msg := err.Error()
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		msg = ghErr.Message
		for _, e := range ghErr.Errors {
			if e.Message != "" {
				msg += ": " + e.Message
				break
			}
		}
	}
	return &BuildError{Step: step, Message: msg, Err: err}
}

// Build describes a submitted plugin build.
type Build struct {
	PartnerID   string `json:"partnerId"`
	Version     string `json:"version"`
	Branch      string `json:"branch"`
	PullRequest int    `json:"pullRequest"`
	PullURL     string `json:"pullUrl"`
	Tag         string `json:"tag"`
}

// Run states reported by GitHub Actions.
const (
	StateQueued     = "queued"
	StateInProgress = "in_progress"
	StateCompleted  = "completed"
	StateNotFound   = "not_found"
)

type BuildStatus struct {
	State       string `json:"state"`
	Conclusion  string `json:"conclusion,omitempty"`
	RunURL      string `json:"runUrl,omitempty"`
	Tag         string `json:"tag"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// PluginBuilder submits plugin configs to the build repository and follows
// the resulting workflow.
type PluginBuilder interface {
	Submit(ctx context.Context, cfg domain.WordpressPluginConfig) (*Build, error)
	Status(ctx context.Context, partnerID, version string) (*BuildStatus, error)
}

type GitHubSettings struct {
	Token      string
	Owner      string
	Repo       string
	BaseBranch string
	Workflow   string
	// APIBaseURL overrides https://api.github.com/ (tests, GHE).
	APIBaseURL string
}

type GitHubBuilder struct {
	client *github.Client
	s      GitHubSettings
	log    logger.Logger
}

// NewGitHubBuilder returns a builder, or an offline one rejecting every call
// when owner or repo is not configured.
func NewGitHubBuilder(s GitHubSettings, hc *http.Client, log logger.Logger) (PluginBuilder, error) {
	if s.Owner == "" || s.Repo == "" {
		log.Info("github repository not configured, plugin builds disabled")
		return OfflineBuilder{}, nil
	}
	if s.BaseBranch == "" {
		s.BaseBranch = "main"
	}
	if s.Workflow == "" {
		s.Workflow = "build-plugin.yml"
	}

	client := github.NewClient(hc)
	if s.Token != "" {
		client = client.WithAuthToken(s.Token)
	}
	if s.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimRight(s.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = base
	}
	return &GitHubBuilder{client: client, s: s, log: log}, nil
}

func configPath(partnerID string) string {
	return "plugins/" + partnerID + "/config.json"
}

func branchName(cfg domain.WordpressPluginConfig) string {
	return "plugin/" + cfg.ReleaseTag()
}

// Submit commits the config on a fresh branch, merges it through a pull
// request and dispatches the build workflow.
func (b *GitHubBuilder) Submit(ctx context.Context, cfg domain.WordpressPluginConfig) (*Build, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal plugin config: %w", err)
	}

	log := b.log.With(logger.String("partner_id", cfg.PartnerID), logger.String("version", cfg.Version))
	branch := branchName(cfg)

	if err := b.createBranch(ctx, branch); err != nil {
		return nil, err
	}
	if err := b.putFile(ctx, branch, configPath(cfg.PartnerID), body, cfg); err != nil {
		return nil, err
	}

	pr, _, err := b.client.PullRequests.Create(ctx, b.s.Owner, b.s.Repo, &github.NewPullRequest{
		Title: github.String(fmt.Sprintf("Plugin %s v%s", cfg.PartnerID, cfg.Version)),
		Head:  github.String(branch),
		Base:  github.String(b.s.BaseBranch),
		Body:  github.String(fmt.Sprintf("Plugin config for %s (%s).", cfg.Publication, cfg.Domain)),
	})
	if err != nil {
		return nil, buildErr("open pull request", err)
	}

	_, _, err = b.client.PullRequests.Merge(ctx, b.s.Owner, b.s.Repo, pr.GetNumber(),
		"Add plugin config "+cfg.ReleaseTag(), &github.PullRequestOptions{MergeMethod: "squash"})
	if err != nil {
		return nil, buildErr("merge pull request", err)
	}

	_, err = b.client.Actions.CreateWorkflowDispatchEventByFileName(ctx, b.s.Owner, b.s.Repo, b.s.Workflow,
		github.CreateWorkflowDispatchEventRequest{
			Ref: b.s.BaseBranch,
			Inputs: map[string]interface{}{
				"partner_id": cfg.PartnerID,
				"version":    cfg.Version,
			},
		})
	if err != nil {
		return nil, buildErr("dispatch workflow", err)
	}

	log.Info("plugin build submitted", logger.Int("pull_request", pr.GetNumber()))
	return &Build{
		PartnerID:   cfg.PartnerID,
		Version:     cfg.Version,
		Branch:      branch,
		PullRequest: pr.GetNumber(),
		PullURL:     pr.GetHTMLURL(),
		Tag:         cfg.ReleaseTag(),
	}, nil
}

func (b *GitHubBuilder) createBranch(ctx context.Context, branch string) error {
	base, _, err := b.client.Git.GetRef(ctx, b.s.Owner, b.s.Repo, "refs/heads/"+b.s.BaseBranch)
	if err != nil {
		return buildErr("read base branch", err)
	}

	_, resp, err := b.client.Git.CreateRef(ctx, b.s.Owner, b.s.Repo, &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: base.GetObject().SHA},
	})
	if err != nil {
		// A previous attempt may have left the branch behind; reuse it.
		if resp != nil && resp.StatusCode == http.StatusUnprocessableEntity {
			b.log.Warn("branch already exists, reusing it", logger.String("branch", branch))
			return nil
		}
		return buildErr("create branch", err)
	}
	return nil
}

func (b *GitHubBuilder) putFile(ctx context.Context, branch, path string, content []byte, cfg domain.WordpressPluginConfig) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(fmt.Sprintf("plugin: %s", cfg.ReleaseTag())),
		Content: content,
		Branch:  github.String(branch),
	}

	existing, _, resp, err := b.client.Repositories.GetContents(ctx, b.s.Owner, b.s.Repo, path,
		&github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.SHA = existing.SHA
		_, _, err = b.client.Repositories.UpdateFile(ctx, b.s.Owner, b.s.Repo, path, opts)
	case err == nil:
		return &BuildError{Step: "write config file", Message: path + " is a directory", Err: ErrGitHub}
	case resp != nil && resp.StatusCode == http.StatusNotFound:
		_, _, err = b.client.Repositories.CreateFile(ctx, b.s.Owner, b.s.Repo, path, opts)
	}
	if err != nil {
		return buildErr("write config file", err)
	}
	return nil
}

// statusPageSize bounds how many recent dispatches Status looks through.
const statusPageSize = 50

// Status reports the run of the build workflow for one partner version and,
// once it succeeded, the download URL of the release asset.
//
// The workflow names its runs after the release tag
// (run-name: ${{ inputs.partner_id }}-v${{ inputs.version }}), which is how a
// run is told apart from the builds of other partners.
func (b *GitHubBuilder) Status(ctx context.Context, partnerID, version string) (*BuildStatus, error) {
	tag := domain.ReleaseTag(partnerID, version)
	st := &BuildStatus{State: StateNotFound, Tag: tag}

	runs, _, err := b.client.Actions.ListWorkflowRunsByFileName(ctx, b.s.Owner, b.s.Repo, b.s.Workflow,
		&github.ListWorkflowRunsOptions{
			Event:       "workflow_dispatch",
			ListOptions: github.ListOptions{PerPage: statusPageSize},
		})
	if err != nil {
		return nil, buildErr("list workflow runs", err)
	}
	// Runs come newest first, so a retried build reports its latest attempt.
	for _, run := range runs.WorkflowRuns {
		if run.GetDisplayTitle() != tag {
			continue
		}
		st.State = run.GetStatus()
		st.Conclusion = run.GetConclusion()
		st.RunURL = run.GetHTMLURL()
		break
	}

	if st.State != StateCompleted || st.Conclusion != "success" {
		return st, nil
	}

	rel, resp, err := b.client.Repositories.GetReleaseByTag(ctx, b.s.Owner, b.s.Repo, tag)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return st, nil
		}
		return nil, buildErr("read release", err)
	}
	for _, a := range rel.Assets {
		if u := a.GetBrowserDownloadURL(); u != "" {
			st.DownloadURL = u
			break
		}
	}
	return st, nil
}

// OfflineBuilder is used when no build repository is configured.
type OfflineBuilder struct{}

func (OfflineBuilder) Submit(context.Context, domain.WordpressPluginConfig) (*Build, error) {
	return nil, ErrBuilderOffline
}

func (OfflineBuilder) Status(context.Context, string, string) (*BuildStatus, error) {
	return nil, ErrBuilderOffline
}
