package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Runner executes a git subcommand in dir and returns its combined output.
// Abstracted so tests can run against a fake instead of a real git binary.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) (string, error)
}

// GitError wraps a failed git invocation with its output.
type GitError struct {
	Args   []string
	Output string
	Err    error
}

func (e *GitError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("git %s: %s", strings.Join(e.Args, " "), strings.TrimSpace(e.Output))
	}
	return fmt.Sprintf("git %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *GitError) Unwrap() error { return e.Err }

type execRunner struct{}

// NewRunner returns a Runner backed by the system git binary.
func NewRunner() Runner { return execRunner{} }

func (execRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), &GitError{Args: args, Output: string(out), Err: err}
	}
	return string(out), nil
}

// Service performs local repository operations. All methods return plain
// maps suitable for direct inclusion in tool result payloads.
type Service struct {
	runner Runner
	log    *logrus.Logger
}

// NewService builds a git service over the given runner. A nil runner
// falls back to the system git binary.
func NewService(runner Runner) *Service {
	if runner == nil {
		runner = NewRunner()
	}
	return &Service{runner: runner, log: logrus.StandardLogger()}
}

// Init initializes a repository at repoPath, creating the directory if
// needed, and guarantees a main branch with at least one commit.
func (s *Service) Init(ctx context.Context, repoPath string) (map[string]any, error) {
	if err := os.MkdirAll(repoPath, 0o755); err != nil {
		return nil, fmt.Errorf("create repo directory: %w", err)
	}
	if _, err := s.runner.Run(ctx, repoPath, "init"); err != nil {
		return nil, err
	}
	s.log.Infof("Initialized git repository at %s", repoPath)

	if err := s.EnsureMainBranch(ctx, repoPath); err != nil {
		return nil, err
	}
	return map[string]any{"path": repoPath, "branch": "main"}, nil
}

// EnsureMainBranch makes sure the repository has a main branch checked
// out, creating an initial commit from a README when the history is empty
// and renaming master when that is what init produced.
func (s *Service) EnsureMainBranch(ctx context.Context, repoPath string) error {
	if _, err := s.runner.Run(ctx, repoPath, "rev-parse", "--verify", "HEAD"); err != nil {
		readme := filepath.Join(repoPath, "README.md")
		if _, statErr := os.Stat(readme); os.IsNotExist(statErr) {
			if writeErr := os.WriteFile(readme, []byte("# New Repository\n"), 0o644); writeErr != nil {
				return fmt.Errorf("write README: %w", writeErr)
			}
		}
		if _, err := s.runner.Run(ctx, repoPath, "add", "README.md"); err != nil {
			return err
		}
		if _, err := s.runner.Run(ctx, repoPath, "commit", "-m", "Initial commit"); err != nil {
			return err
		}
	}

	branches, err := s.branchNames(ctx, repoPath)
	if err != nil {
		return err
	}
	switch {
	case contains(branches, "main"):
		_, err = s.runner.Run(ctx, repoPath, "checkout", "main")
	case contains(branches, "master"):
		_, err = s.runner.Run(ctx, repoPath, "branch", "-m", "master", "main")
	default:
		_, err = s.runner.Run(ctx, repoPath, "checkout", "-b", "main")
	}
	return err
}

// CreateBranch creates and checks out a new branch.
func (s *Service) CreateBranch(ctx context.Context, repoPath, branch string) (map[string]any, error) {
	branches, err := s.branchNames(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	if contains(branches, branch) {
		return nil, fmt.Errorf("branch %q already exists", branch)
	}
	if _, err := s.runner.Run(ctx, repoPath, "checkout", "-b", branch); err != nil {
		return nil, err
	}
	s.log.Infof("Created and checked out branch '%s' in %s", branch, repoPath)
	return map[string]any{"branch": branch, "checkedOut": true}, nil
}

// ListBranches returns all local branches and the current one.
func (s *Service) ListBranches(ctx context.Context, repoPath string) (map[string]any, error) {
	branches, err := s.branchNames(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	current, err := s.CurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	return map[string]any{"branches": branches, "current": current}, nil
}

// CurrentBranch returns the checked-out branch name.
func (s *Service) CurrentBranch(ctx context.Context, repoPath string) (string, error) {
	out, err := s.runner.Run(ctx, repoPath, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Merge merges source into target, checking target out first. Conflicts
// abort the merge, restore the previous branch, and return merged=false
// rather than an error.
func (s *Service) Merge(ctx context.Context, repoPath, source, target string) (map[string]any, error) {
	if target == "" {
		target = "main"
	}
	previous, err := s.CurrentBranch(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	if _, err := s.runner.Run(ctx, repoPath, "checkout", target); err != nil {
		return nil, err
	}
	out, err := s.runner.Run(ctx, repoPath, "merge", source)
	if err != nil {
		if strings.Contains(strings.ToLower(out), "conflict") {
			s.log.Errorf("Merge conflict between %s and %s", source, target)
			s.runner.Run(ctx, repoPath, "merge", "--abort")
			s.runner.Run(ctx, repoPath, "checkout", previous)
			return map[string]any{"merged": false, "conflict": true, "source": source, "target": target}, nil
		}
		return nil, err
	}
	s.log.Infof("Merged %s into %s", source, target)
	return map[string]any{"merged": true, "source": source, "target": target}, nil
}

// StageAll stages every change. include_untracked=false limits staging to
// already-tracked paths.
func (s *Service) StageAll(ctx context.Context, repoPath string, includeUntracked bool) (map[string]any, error) {
	staged, err := s.changedFiles(ctx, repoPath, includeUntracked)
	if err != nil {
		return nil, err
	}
	spec := "-A"
	if !includeUntracked {
		spec = "-u"
	}
	if _, err := s.runner.Run(ctx, repoPath, "add", spec); err != nil {
		return nil, err
	}
	return map[string]any{
		"stagedFiles": staged,
		"message":     fmt.Sprintf("Staged %d files", len(staged)),
	}, nil
}

// Commit stages everything and commits. Returns committed=false when the
// working tree is clean.
func (s *Service) Commit(ctx context.Context, repoPath, message string) (map[string]any, error) {
	status, err := s.runner.Run(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(status) == "" {
		s.log.Info("No changes to commit")
		return map[string]any{"committed": false, "message": "No changes to commit"}, nil
	}
	if _, err := s.runner.Run(ctx, repoPath, "add", "-A"); err != nil {
		return nil, err
	}
	if _, err := s.runner.Run(ctx, repoPath, "commit", "-m", message); err != nil {
		return nil, err
	}
	s.log.Infof("Committed changes with message: %s", message)
	return map[string]any{"committed": true, "commitMessage": message}, nil
}

// Push pushes a branch to a remote, defaulting to origin and the current
// branch.
func (s *Service) Push(ctx context.Context, repoPath, remote, branch string) (map[string]any, error) {
	if remote == "" {
		remote = "origin"
	}
	if branch == "" {
		current, err := s.CurrentBranch(ctx, repoPath)
		if err != nil {
			return nil, err
		}
		branch = current
	}
	if _, err := s.runner.Run(ctx, repoPath, "push", "-u", remote, branch); err != nil {
		return nil, err
	}
	s.log.Infof("Pushed changes to %s/%s", remote, branch)
	return map[string]any{"remote": remote, "branch": branch, "pushed": true}, nil
}

// SetRemote adds or updates the origin remote URL.
func (s *Service) SetRemote(ctx context.Context, repoPath, url string) error {
	if _, err := s.runner.Run(ctx, repoPath, "remote", "add", "origin", url); err != nil {
		_, err = s.runner.Run(ctx, repoPath, "remote", "set-url", "origin", url)
		return err
	}
	return nil
}

// Clone clones a repository URL into localPath, which must not exist.
func (s *Service) Clone(ctx context.Context, repoURL, localPath string) (map[string]any, error) {
	localPath = filepath.Clean(localPath)
	if _, err := os.Stat(localPath); err == nil {
		return nil, fmt.Errorf("target path %q already exists", localPath)
	}
	s.log.Infof("Cloning from %s to %s", repoURL, localPath)
	if _, err := s.runner.Run(ctx, ".", "clone", repoURL, localPath); err != nil {
		return nil, err
	}
	branch, err := s.CurrentBranch(ctx, localPath)
	if err != nil {
		return nil, err
	}
	return map[string]any{"path": localPath, "branch": branch, "cloned": true}, nil
}

// Status returns the human-readable git status output.
func (s *Service) Status(ctx context.Context, repoPath string) (map[string]any, error) {
	out, err := s.runner.Run(ctx, repoPath, "status")
	if err != nil {
		return nil, err
	}
	return map[string]any{"status": out}, nil
}

// AddFile writes a file with the given content, creating parent
// directories as needed. The path must stay inside the repository.
func (s *Service) AddFile(ctx context.Context, repoPath, fileName, content string) (map[string]any, error) {
	full, err := safeJoin(repoPath, fileName)
	if err != nil {
		return nil, err
	}
	if dir := filepath.Dir(full); dir != repoPath {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create parent directory: %w", err)
		}
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write file: %w", err)
	}
	s.log.Infof("Created file: %s", full)
	return map[string]any{"file": fileName, "bytes": len(content)}, nil
}

// FileSpec describes one file in a batch write.
type FileSpec struct {
	Path    string
	Content string
}

// AddFiles writes a batch of files, continuing past individual failures
// and reporting both the created paths and the errors.
func (s *Service) AddFiles(ctx context.Context, repoPath string, files []FileSpec) (map[string]any, error) {
	var created []string
	var errs []string
	for _, f := range files {
		if f.Path == "" {
			errs = append(errs, "file path is required")
			continue
		}
		if _, err := s.AddFile(ctx, repoPath, f.Path, f.Content); err != nil {
			errs = append(errs, fmt.Sprintf("error creating %s: %v", f.Path, err))
			continue
		}
		created = append(created, f.Path)
	}
	msg := fmt.Sprintf("Created %d files", len(created))
	if len(errs) > 0 {
		msg = fmt.Sprintf("Created %d files with %d errors", len(created), len(errs))
	}
	return map[string]any{
		"createdFiles": created,
		"errors":       errs,
		"message":      msg,
	}, nil
}

// ListFiles lists the top-level entries of the repository directory.
func (s *Service) ListFiles(ctx context.Context, repoPath string) (map[string]any, error) {
	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name() == ".git" {
			continue
		}
		names = append(names, e.Name())
	}
	return map[string]any{"files": names, "count": len(names)}, nil
}

// ReadFile returns a file's contents.
func (s *Service) ReadFile(ctx context.Context, repoPath, fileName string) (map[string]any, error) {
	full, err := safeJoin(repoPath, fileName)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return map[string]any{"file": fileName, "content": string(data)}, nil
}

func (s *Service) branchNames(ctx context.Context, repoPath string) ([]string, error) {
	out, err := s.runner.Run(ctx, repoPath, "branch", "--format", "%(refname:short)")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

func (s *Service) changedFiles(ctx context.Context, repoPath string, includeUntracked bool) ([]map[string]string, error) {
	out, err := s.runner.Run(ctx, repoPath, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	files := []map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		code := line[:2]
		path := strings.TrimSpace(line[3:])
		status := "modified"
		switch {
		case strings.Contains(code, "?"):
			if !includeUntracked {
				continue
			}
			status = "new"
		case strings.Contains(code, "D"):
			status = "deleted"
		case strings.Contains(code, "A"):
			status = "new"
		}
		files = append(files, map[string]string{"filePath": path, "status": status})
	}
	return files, nil
}

// safeJoin joins name under root and rejects traversal outside root.
func safeJoin(root, name string) (string, error) {
	full := filepath.Join(root, name)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the repository", name)
	}
	return full, nil
}

func contains(list []string, want string) bool {
	for _, v := range list {
		if v == want {
			return true
		}
	}
	return false
}
