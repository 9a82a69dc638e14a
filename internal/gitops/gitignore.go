package gitops

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// templateBaseURL is the raw-content root of GitHub's community gitignore
// template collection.
const templateBaseURL = "https://raw.githubusercontent.com/github/gitignore/main"

// templateMap maps detected project types to template names in the
// github/gitignore repository.
var templateMap = map[string]string{
	"python":  "Python",
	"node":    "Node",
	"react":   "Node",
	"java":    "Java",
	"csharp":  "VisualStudio",
	"cpp":     "C++",
	"go":      "Go",
	"rust":    "Rust",
	"ruby":    "Ruby",
	"php":     "Laravel",
	"general": "Global/macOS",
}

// GitignoreService generates .gitignore files, preferring the community
// templates and falling back to locally generated content when the
// download fails. Downloaded templates are cached.
type GitignoreService struct {
	client *http.Client
	cache  *cache.Cache
	log    *logrus.Logger
}

// NewGitignoreService builds the service. client may be nil, in which case
// a default client with a 15s timeout is used.
func NewGitignoreService(client *http.Client, ttl time.Duration) *GitignoreService {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &GitignoreService{
		client: client,
		cache:  cache.New(ttl, 2*ttl),
		log:    logrus.StandardLogger(),
	}
}

// Generate writes a .gitignore into repoPath. projectType may be empty,
// in which case the project type is detected from the repository's files.
func (g *GitignoreService) Generate(ctx context.Context, repoPath, projectType string) (map[string]any, error) {
	if projectType == "" {
		types := DetectProjectType(repoPath)
		projectType = types[0]
	}

	content, source := g.templateFor(ctx, projectType)
	if content == "" {
		content = LocalGitignore(DetectProjectType(repoPath))
		source = "generated"
	}

	target := filepath.Join(repoPath, ".gitignore")
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("write .gitignore: %w", err)
	}
	g.log.Infof("Generated .gitignore at %s (source: %s)", target, source)
	return map[string]any{
		"path":        target,
		"projectType": projectType,
		"source":      source,
	}, nil
}

// GenerateBasic writes a locally generated .gitignore without touching
// the network, based on the detected (or given) project type.
func (g *GitignoreService) GenerateBasic(repoPath, projectType string) (map[string]any, error) {
	types := DetectProjectType(repoPath)
	if projectType != "" {
		types = []string{strings.ToLower(projectType)}
	}

	target := filepath.Join(repoPath, ".gitignore")
	if err := os.WriteFile(target, []byte(LocalGitignore(types)), 0o644); err != nil {
		return nil, fmt.Errorf("write .gitignore: %w", err)
	}
	g.log.Infof("Generated .gitignore at %s", target)
	return map[string]any{
		"path":        target,
		"projectType": types[0],
		"source":      "generated",
	}, nil
}

// templateFor fetches the community template for a project type, serving
// from cache when possible. Returns empty content on any failure.
func (g *GitignoreService) templateFor(ctx context.Context, projectType string) (content, source string) {
	name, ok := templateMap[strings.ToLower(projectType)]
	if !ok {
		name = "Python"
	}
	if cached, found := g.cache.Get(name); found {
		return cached.(string), "template"
	}

	url := fmt.Sprintf("%s/%s.gitignore", templateBaseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", ""
	}
	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warnf("Could not download %s template: %v", name, err)
		return "", ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		g.log.Warnf("Template download for %s returned %d, generating basic .gitignore", name, resp.StatusCode)
		return "", ""
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ""
	}
	g.cache.Set(name, string(body), cache.DefaultExpiration)
	return string(body), "template"
}

// DetectProjectType inspects the repository's top-level files and returns
// the detected project types, most specific first. Always returns at
// least one element.
func DetectProjectType(repoPath string) []string {
	entries, err := os.ReadDir(repoPath)
	if err != nil {
		return []string{"general"}
	}
	names := make(map[string]bool, len(entries))
	var suffixes []string
	for _, e := range entries {
		names[e.Name()] = true
		suffixes = append(suffixes, e.Name())
	}

	var types []string
	if names["requirements.txt"] || names["setup.py"] || names["Pipfile"] || names["pyproject.toml"] {
		types = append(types, "python")
	}
	if names["package.json"] {
		types = append(types, "node")
		if data, err := os.ReadFile(filepath.Join(repoPath, "package.json")); err == nil &&
			strings.Contains(string(data), "react") {
			types = append(types, "react")
		}
	}
	if names["pom.xml"] || names["build.gradle"] {
		types = append(types, "java")
	}
	for _, n := range suffixes {
		if strings.HasSuffix(n, ".csproj") || strings.HasSuffix(n, ".sln") {
			types = append(types, "csharp")
			break
		}
	}
	if names["go.mod"] {
		types = append(types, "go")
	}
	if names["Cargo.toml"] {
		types = append(types, "rust")
	}
	if names["Gemfile"] {
		types = append(types, "ruby")
	}
	if names["composer.json"] {
		types = append(types, "php")
	}
	if len(types) == 0 {
		types = append(types, "general")
	}
	return types
}

// LocalGitignore builds .gitignore content for the given project types
// without network access.
func LocalGitignore(projectTypes []string) string {
	has := make(map[string]bool, len(projectTypes))
	for _, t := range projectTypes {
		has[t] = true
	}

	var b strings.Builder
	b.WriteString("# General\n.DS_Store\n*.log\n*.tmp\n*.temp\n.env\n.env.*\n!.env.example\n\n")
	if has["python"] {
		b.WriteString("# Python\n__pycache__/\n*.py[cod]\n*.so\nvenv/\n.venv/\n.pytest_cache/\n.coverage\n*.egg-info/\ndist/\nbuild/\n\n")
	}
	if has["node"] || has["react"] {
		b.WriteString("# Node.js\nnode_modules/\nnpm-debug.log*\nyarn-debug.log*\nyarn-error.log*\n.npm\n\n")
	}
	if has["go"] {
		b.WriteString("# Go\n*.exe\n*.test\n*.out\nvendor/\n\n")
	}
	if has["java"] {
		b.WriteString("# Java\n*.class\n*.jar\n*.war\ntarget/\n.classpath\n.project\n.settings/\n\n")
	}
	if has["rust"] {
		b.WriteString("# Rust\ntarget/\nCargo.lock\n\n")
	}
	b.WriteString("# IDEs\n.vscode/\n.idea/\n*.iml\n*.sublime-*\n")
	return b.String()
}
