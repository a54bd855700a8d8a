package kafka

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Source produces the raw kafka-consumer-groups listing of one cluster.
type Source interface {
	Name() string
	Fetch(ctx context.Context) (string, error)
}

// CommandSource runs the admin tool against a live cluster.
type CommandSource struct {
	config ClusterConfig
}

// NewCommandSource creates a source for the given cluster.
func NewCommandSource(cfg ClusterConfig) *CommandSource {
	if strings.TrimSpace(cfg.Tool) == "" {
		cfg.Tool = DefaultTool
	}
	return &CommandSource{config: cfg}
}

// Name returns the cluster name used in logs and errors.
func (s *CommandSource) Name() string {
	return s.config.Name
}

// Args returns the tool path and its arguments.
func (s *CommandSource) Args() (string, []string) {
	tool := filepath.Join(s.config.CLIDir, s.config.Tool)
	return tool, []string{
		"--bootstrap-server", s.config.BootstrapServer,
		"--command-config", s.config.CommandConfig,
		"--all-groups",
		"--describe",
	}
}

// Fetch runs the tool and returns its trimmed stdout. Cancelling ctx kills
// the process.
func (s *CommandSource) Fetch(ctx context.Context) (string, error) {
	start := time.Now()
	tool, args := s.Args()

	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.WaitDelay = waitDelay
	stderr := &limitedBuffer{limit: stderrLimit}
	cmd.Stderr = stderr

	slog.Debug("running consumer group tool", "cluster", s.config.Name, "tool", tool)

	out, err := cmd.Output()
	if err != nil {
		fetchErr := &FetchError{
			Cluster:  s.config.Name,
			Op:       "exec",
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			fetchErr.Err = ctxErr
			return "", fetchErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fetchErr.ExitCode = exitErr.ExitCode()
		}
		return "", fetchErr
	}

	slog.Debug("consumer group tool finished",
		"cluster", s.config.Name,
		"bytes", len(out),
		"duration", time.Since(start),
	)

	return strings.TrimSpace(string(out)), nil
}

// FileSource reads a listing captured earlier with
// kafka-consumer-groups --all-groups --describe.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source backed by a file.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

// Name returns the cluster name used in logs and errors.
func (s *FileSource) Name() string {
	return s.name
}

// Fetch returns the trimmed file content.
func (s *FileSource) Fetch(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", &FetchError{Cluster: s.name, Op: "read", ExitCode: -1, Err: err}
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", &FetchError{Cluster: s.name, Op: "read", ExitCode: -1, Err: err}
	}

	return strings.TrimSpace(string(data)), nil
}

// limitedBuffer keeps the last limit bytes written to it.
type limitedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	b.buf.Write(p)
	if over := b.buf.Len() - b.limit; over > 0 {
		b.buf.Next(over)
	}
	return n, nil
}

func (b *limitedBuffer) String() string {
	return b.buf.String()
}
