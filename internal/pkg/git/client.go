// Package git runs the git commands gitpick needs: reading the staged diff and committing.
package git

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "github.com/gitsage/gitpick/internal/pkg/errors"
)

// GitCommandTimeout bounds non-interactive git commands. Commands that may
// open an editor are not bounded.
const GitCommandTimeout = 10 * time.Second

// Client is the subset of git used by the pick flow.
type Client interface {
	StagedDiff(ctx context.Context) (string, error)
	DiffStats(ctx context.Context) (*DiffStats, error)
	Commit(ctx context.Context, message string) error
	CommitInteractive(ctx context.Context) error
	Amend(ctx context.Context) error
}

// DefaultClient shells out to the git binary.
type DefaultClient struct {
	workDir string
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// ClientOption configures a DefaultClient.
type ClientOption func(*DefaultClient)

// WithWorkDir runs git in dir instead of the current directory.
func WithWorkDir(dir string) ClientOption {
	return func(c *DefaultClient) { c.workDir = dir }
}

// WithIO replaces the terminal streams given to commit commands.
func WithIO(in io.Reader, out, errOut io.Writer) ClientOption {
	return func(c *DefaultClient) {
		c.stdin, c.stdout, c.stderr = in, out, errOut
	}
}

// NewClient returns a client attached to the process's terminal.
func NewClient(opts ...ClientOption) *DefaultClient {
	c := &DefaultClient{stdin: os.Stdin, stdout: os.Stdout, stderr: os.Stderr}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StagedDiff returns the staged changes as unified diff text. An empty index
// yields an empty string, not an error.
func (c *DefaultClient) StagedDiff(ctx context.Context) (string, error) {
	out, err := c.output(ctx, "--no-pager", "diff", "--staged")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DiffStats summarizes the staged changes per file.
func (c *DefaultClient) DiffStats(ctx context.Context) (*DiffStats, error) {
	out, err := c.output(ctx, "--no-pager", "diff", "--staged", "--numstat")
	if err != nil {
		return nil, err
	}
	return NewDiffStats(ParseNumstat(string(out))), nil
}

// Commit records the index with message. Hook output goes to the terminal.
func (c *DefaultClient) Commit(ctx context.Context, message string) error {
	return c.interactive(ctx, "commit", "-m", message)
}

// CommitInteractive lets git open the user's editor for the message.
func (c *DefaultClient) CommitInteractive(ctx context.Context) error {
	return c.interactive(ctx, "commit")
}

// Amend reopens the last commit in the editor so the chosen message can be refined.
func (c *DefaultClient) Amend(ctx context.Context) error {
	return c.interactive(ctx, "commit", "--amend")
}

func (c *DefaultClient) output(ctx context.Context, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, GitCommandTimeout)
	defer cancel()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.workDir
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError(ctx.Err()).WithContext("command", "git "+strings.Join(args, " "))
		}
		return nil, gitError(err, args, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (c *DefaultClient) interactive(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.workDir
	cmd.Stdin = c.stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return gitError(err, args, "")
	}
	return nil
}

func gitError(err error, args []string, output string) *apperrors.AppError {
	appErr := apperrors.NewGitError(err, output).WithContext("command", "git "+strings.Join(args, " "))
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		appErr.WithContext("exit_status", exitErr.ExitCode())
	}
	return appErr
}
