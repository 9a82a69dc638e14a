package gitops

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// fakeRunner scripts git output per command so tests never shell out.
type fakeRunner struct {
	responses map[string]string
	errors    map[string]error
	calls     []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		responses: make(map[string]string),
		errors:    make(map[string]error),
	}
}

func (f *fakeRunner) Run(ctx context.Context, dir string, args ...string) (string, error) {
	key := strings.Join(args, " ")
	f.calls = append(f.calls, key)
	if err, ok := f.errors[key]; ok {
		return f.responses[key], err
	}
	return f.responses[key], nil
}

func (f *fakeRunner) called(key string) bool {
	for _, c := range f.calls {
		if c == key {
			return true
		}
	}
	return false
}

func TestCreateBranchRejectsDuplicates(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["branch --format %(refname:short)"] = "main\nfeature-x\n"
	svc := NewService(runner)

	_, err := svc.CreateBranch(context.Background(), "/repo", "feature-x")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Expected duplicate branch error, got %v", err)
	}
	if runner.called("checkout -b feature-x") {
		t.Error("Must not attempt checkout for an existing branch")
	}
}

func TestCreateBranchChecksOut(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["branch --format %(refname:short)"] = "main\n"
	svc := NewService(runner)

	out, err := svc.CreateBranch(context.Background(), "/repo", "feature-x")
	if err != nil {
		t.Fatalf("CreateBranch failed: %v", err)
	}
	if out["branch"] != "feature-x" || out["checkedOut"] != true {
		t.Errorf("Unexpected output: %v", out)
	}
	if !runner.called("checkout -b feature-x") {
		t.Error("Expected checkout -b to run")
	}
}

func TestListBranches(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["branch --format %(refname:short)"] = "develop\nmain\n"
	runner.responses["rev-parse --abbrev-ref HEAD"] = "main\n"
	svc := NewService(runner)

	out, err := svc.ListBranches(context.Background(), "/repo")
	if err != nil {
		t.Fatalf("ListBranches failed: %v", err)
	}
	branches := out["branches"].([]string)
	if len(branches) != 2 || branches[0] != "develop" {
		t.Errorf("Unexpected branches: %v", branches)
	}
	if out["current"] != "main" {
		t.Errorf("Expected current main, got %v", out["current"])
	}
}

func TestMergeConflictAbortsAndRestores(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse --abbrev-ref HEAD"] = "feature-x\n"
	runner.responses["merge feature-x"] = "CONFLICT (content): Merge conflict in app.py\n"
	runner.errors["merge feature-x"] = fmt.Errorf("exit status 1")
	svc := NewService(runner)

	out, err := svc.Merge(context.Background(), "/repo", "feature-x", "main")
	if err != nil {
		t.Fatalf("Conflict should not be an error: %v", err)
	}
	if out["merged"] != false || out["conflict"] != true {
		t.Errorf("Expected merged=false conflict=true, got %v", out)
	}
	if !runner.called("merge --abort") {
		t.Error("Expected the merge to be aborted")
	}
	if !runner.called("checkout feature-x") {
		t.Error("Expected the previous branch to be restored")
	}
}

func TestMergeDefaultsTargetToMain(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse --abbrev-ref HEAD"] = "feature-x\n"
	svc := NewService(runner)

	out, err := svc.Merge(context.Background(), "/repo", "feature-x", "")
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if out["merged"] != true || out["target"] != "main" {
		t.Errorf("Expected clean merge into main, got %v", out)
	}
	if !runner.called("checkout main") {
		t.Error("Expected checkout of the default target")
	}
}

func TestCommitCleanTree(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["status --porcelain"] = "\n"
	svc := NewService(runner)

	out, err := svc.Commit(context.Background(), "/repo", "msg")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if out["committed"] != false {
		t.Errorf("Expected committed=false on clean tree, got %v", out)
	}
	if runner.called("commit -m msg") {
		t.Error("Must not commit a clean tree")
	}
}

func TestCommitStagesAndCommits(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["status --porcelain"] = " M app.py\n"
	svc := NewService(runner)

	out, err := svc.Commit(context.Background(), "/repo", "fix bug")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if out["committed"] != true || out["commitMessage"] != "fix bug" {
		t.Errorf("Unexpected output: %v", out)
	}
	if !runner.called("add -A") || !runner.called("commit -m fix bug") {
		t.Errorf("Expected stage and commit, calls were %v", runner.calls)
	}
}

func TestStageAllTrackedOnly(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["status --porcelain"] = " M tracked.py\n?? untracked.py\n D gone.py\n"
	svc := NewService(runner)

	out, err := svc.StageAll(context.Background(), "/repo", false)
	if err != nil {
		t.Fatalf("StageAll failed: %v", err)
	}
	staged := out["stagedFiles"].([]map[string]string)
	if len(staged) != 2 {
		t.Fatalf("Expected untracked file excluded, got %v", staged)
	}
	if staged[0]["status"] != "modified" || staged[1]["status"] != "deleted" {
		t.Errorf("Unexpected statuses: %v", staged)
	}
	if !runner.called("add -u") {
		t.Error("Expected add -u for tracked-only staging")
	}
}

func TestStageAllIncludesUntracked(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["status --porcelain"] = "?? new.py\n"
	svc := NewService(runner)

	out, err := svc.StageAll(context.Background(), "/repo", true)
	if err != nil {
		t.Fatalf("StageAll failed: %v", err)
	}
	staged := out["stagedFiles"].([]map[string]string)
	if len(staged) != 1 || staged[0]["status"] != "new" {
		t.Errorf("Expected the untracked file as new, got %v", staged)
	}
	if !runner.called("add -A") {
		t.Error("Expected add -A")
	}
}

func TestPushDefaultsToCurrentBranch(t *testing.T) {
	runner := newFakeRunner()
	runner.responses["rev-parse --abbrev-ref HEAD"] = "feature-x\n"
	svc := NewService(runner)

	out, err := svc.Push(context.Background(), "/repo", "", "")
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if out["remote"] != "origin" || out["branch"] != "feature-x" {
		t.Errorf("Unexpected output: %v", out)
	}
	if !runner.called("push -u origin feature-x") {
		t.Errorf("Expected push -u origin feature-x, calls were %v", runner.calls)
	}
}

func TestSetRemoteAddsOrigin(t *testing.T) {
	runner := newFakeRunner()
	svc := NewService(runner)

	if err := svc.SetRemote(context.Background(), "/repo", "https://github.com/octocat/demo.git"); err != nil {
		t.Fatalf("SetRemote failed: %v", err)
	}
	if !runner.called("remote add origin https://github.com/octocat/demo.git") {
		t.Error("Expected remote add to run")
	}
	if runner.called("remote set-url origin https://github.com/octocat/demo.git") {
		t.Error("Must not fall back to set-url when add succeeds")
	}
}

func TestSetRemoteFallsBackToSetURL(t *testing.T) {
	runner := newFakeRunner()
	runner.errors["remote add origin https://github.com/octocat/demo.git"] = fmt.Errorf("remote origin already exists")
	svc := NewService(runner)

	if err := svc.SetRemote(context.Background(), "/repo", "https://github.com/octocat/demo.git"); err != nil {
		t.Fatalf("SetRemote failed: %v", err)
	}
	if !runner.called("remote set-url origin https://github.com/octocat/demo.git") {
		t.Error("Expected set-url fallback to run")
	}
}

func TestCloneRejectsExistingPath(t *testing.T) {
	svc := NewService(newFakeRunner())
	dir := t.TempDir()
	_, err := svc.Clone(context.Background(), "https://example.com/r.git", dir)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("Expected existing-path error, got %v", err)
	}
}

func TestAddFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	svc := NewService(newFakeRunner())

	out, err := svc.AddFile(context.Background(), dir, "docs/guide/intro.md", "# Intro\n")
	if err != nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	if out["bytes"] != len("# Intro\n") {
		t.Errorf("Unexpected byte count: %v", out["bytes"])
	}
	data, err := os.ReadFile(filepath.Join(dir, "docs", "guide", "intro.md"))
	if err != nil {
		t.Fatalf("File not written: %v", err)
	}
	if string(data) != "# Intro\n" {
		t.Errorf("Unexpected content: %q", data)
	}
}

func TestAddFileRejectsTraversal(t *testing.T) {
	svc := NewService(newFakeRunner())
	dir := t.TempDir()

	for _, name := range []string{"../escape.txt", "../../etc/passwd", "a/../../out.txt"} {
		if _, err := svc.AddFile(context.Background(), dir, name, "x"); err == nil {
			t.Errorf("Expected traversal rejection for %q", name)
		}
	}
}

func TestAddFilesCollectsErrors(t *testing.T) {
	svc := NewService(newFakeRunner())
	dir := t.TempDir()

	out, err := svc.AddFiles(context.Background(), dir, []FileSpec{
		{Path: "ok.txt", Content: "fine"},
		{Path: "", Content: "no path"},
		{Path: "../bad.txt", Content: "escape"},
	})
	if err != nil {
		t.Fatalf("AddFiles failed: %v", err)
	}
	created := out["createdFiles"].([]string)
	errs := out["errors"].([]string)
	if len(created) != 1 || created[0] != "ok.txt" {
		t.Errorf("Unexpected created list: %v", created)
	}
	if len(errs) != 2 {
		t.Errorf("Expected 2 errors, got %v", errs)
	}
	if out["message"] != "Created 1 files with 2 errors" {
		t.Errorf("Unexpected message: %v", out["message"])
	}
}

func TestListFilesSkipsGitDir(t *testing.T) {
	dir := t.TempDir()
	os.Mkdir(filepath.Join(dir, ".git"), 0o755)
	os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main"), 0o644)
	os.WriteFile(filepath.Join(dir, "README.md"), []byte("# r"), 0o644)

	svc := NewService(newFakeRunner())
	out, err := svc.ListFiles(context.Background(), dir)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if out["count"] != 2 {
		t.Errorf("Expected 2 entries, got %v", out)
	}
	for _, f := range out["files"].([]string) {
		if f == ".git" {
			t.Error(".git must be excluded")
		}
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644)
	svc := NewService(newFakeRunner())

	out, err := svc.ReadFile(context.Background(), dir, "notes.txt")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if out["content"] != "hello" {
		t.Errorf("Unexpected content: %v", out["content"])
	}

	if _, err := svc.ReadFile(context.Background(), dir, "../outside.txt"); err == nil {
		t.Error("Expected traversal rejection")
	}
}

func TestGitErrorMessage(t *testing.T) {
	err := &GitError{Args: []string{"push", "-u", "origin", "main"}, Output: "fatal: no remote\n", Err: fmt.Errorf("exit status 128")}
	if !strings.Contains(err.Error(), "git push -u origin main") || !strings.Contains(err.Error(), "fatal: no remote") {
		t.Errorf("Unexpected error text: %v", err)
	}
}
