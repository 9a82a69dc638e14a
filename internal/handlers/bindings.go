package handlers

import (
	"context"
	"fmt"

	"gitpilot/internal/credentials"
	"gitpilot/internal/execution"
	"gitpilot/internal/github"
	"gitpilot/internal/gitops"
)

// Collaborators groups the services the tool handlers delegate to.
type Collaborators struct {
	Git       *gitops.Service
	Gitignore *gitops.GitignoreService
	GitHub    *github.Client
	Creds     *credentials.Store
}

// BuildHandlerRegistry binds every catalog tool to its collaborator.
// Handlers receive validated, coerced arguments; defaults are already
// filled in, so optional lookups below only cover truly optional params.
func BuildHandlerRegistry(co Collaborators) (*execution.HandlerRegistry, error) {
	reg := execution.NewHandlerRegistry()

	bindings := map[string]execution.Handler{
		"create_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			repo, err := co.GitHub.CreateRepo(ctx, argString(args, "repo_name"), argBool(args, "private"), argString(args, "description"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"repository": repo}, nil
		},

		"initialize_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.Init(ctx, argString(args, "repo_path"))
		},

		"clone_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			url, err := github.NormalizeRepoURL(argString(args, "repo_url"))
			if err != nil {
				return nil, err
			}
			return co.Git.Clone(ctx, url, argString(args, "local_path"))
		},

		"create_branch": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.CreateBranch(ctx, argString(args, "repo_path"), argString(args, "branch_name"))
		},

		"create_github_branch": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.GitHub.CreateBranch(ctx, argString(args, "repo_name"), argString(args, "branch_name"), argString(args, "from_branch"))
		},

		"list_branches": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			branches, err := co.GitHub.ListBranches(ctx, argString(args, "repo_name"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"branches": branches, "count": len(branches)}, nil
		},

		"merge_branches": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.Merge(ctx, argString(args, "repo_path"), argString(args, "source_branch"), argString(args, "target_branch"))
		},

		"add_file": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.AddFile(ctx, argString(args, "repo_path"), argString(args, "file_name"), argString(args, "content"))
		},

		"add_multiple_files": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			specs, err := fileSpecs(args["files"])
			if err != nil {
				return nil, err
			}
			return co.Git.AddFiles(ctx, argString(args, "repo_path"), specs)
		},

		"list_files": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.ListFiles(ctx, argString(args, "repo_path"))
		},

		"read_file": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.ReadFile(ctx, argString(args, "repo_path"), argString(args, "file_name"))
		},

		"commit_changes": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.Commit(ctx, argString(args, "repo_path"), argString(args, "commit_message"))
		},

		"push_changes": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.Push(ctx, argString(args, "repo_path"), argString(args, "remote_name"), argString(args, "branch"))
		},

		"stage_all_changes": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.StageAll(ctx, argString(args, "repo_path"), argBool(args, "include_untracked"))
		},

		"create_issue": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			issue, err := co.GitHub.CreateIssue(ctx, argString(args, "repo_name"), argString(args, "title"), argString(args, "body"), argStrings(args, "labels"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"issue": issue}, nil
		},

		"create_pull_request": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			branch := argString(args, "branch_name")
			base := argString(args, "base_branch")
			title := argString(args, "title")
			if title == "" {
				title = fmt.Sprintf("Merge %s into %s", branch, base)
			}
			pr, err := co.GitHub.CreatePullRequest(ctx, argString(args, "repo_name"), branch, base, title, argString(args, "body"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"pullRequest": pr}, nil
		},

		"list_pull_requests": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			prs, err := co.GitHub.ListPullRequests(ctx, argString(args, "repo_name"), argString(args, "state"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"pullRequests": prs, "count": len(prs)}, nil
		},

		"list_repositories": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			repos, err := co.GitHub.ListRepos(ctx, argInt(args, "page"), argInt(args, "per_page"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"repositories": repos, "count": len(repos)}, nil
		},

		"setup_credentials": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			if err := co.Creds.Setup(argString(args, "username"), argString(args, "token")); err != nil {
				return nil, err
			}
			return co.Creds.Status(), nil
		},

		"verify_credentials": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Creds.Status(), nil
		},

		"generate_gitignore": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Gitignore.GenerateBasic(argString(args, "repo_path"), argString(args, "project_type"))
		},

		"download_gitignore": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Gitignore.Generate(ctx, argString(args, "repo_path"), argString(args, "project_type"))
		},

		"detect_project_type": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			types := gitops.DetectProjectType(argString(args, "repo_path"))
			return map[string]any{"projectTypes": types, "primary": types[0]}, nil
		},

		"check_status": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			return co.Git.Status(ctx, argString(args, "repo_path"))
		},

		"get_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			repo, err := co.GitHub.GetRepo(ctx, argString(args, "repo_name"))
			if err != nil {
				return nil, err
			}
			return map[string]any{"repository": repo}, nil
		},

		"update_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			settings := map[string]any{}
			for _, key := range []string{"description", "private", "default_branch"} {
				if v, ok := args[key]; ok {
					settings[key] = v
				}
			}
			repo, err := co.GitHub.UpdateRepo(ctx, argString(args, "repo_name"), settings)
			if err != nil {
				return nil, err
			}
			return map[string]any{"repository": repo}, nil
		},

		"delete_repository": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			name := argString(args, "repo_name")
			if err := co.GitHub.DeleteRepo(ctx, name); err != nil {
				return nil, err
			}
			return map[string]any{"deleted": true, "repository": name}, nil
		},

		"set_remote": func(ctx context.Context, args map[string]any) (map[string]any, error) {
			url := argString(args, "remote_url")
			if err := co.Git.SetRemote(ctx, argString(args, "repo_path"), url); err != nil {
				return nil, err
			}
			return map[string]any{"remote": "origin", "url": url}, nil
		},
	}

	for name, h := range bindings {
		if err := reg.Register(name, h); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func argString(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func argBool(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func argInt(args map[string]any, key string) int {
	n, _ := args[key].(int)
	return n
}

func argStrings(args map[string]any, key string) []string {
	list, _ := args[key].([]string)
	return list
}

// fileSpecs converts the files argument (a JSON array of {path, content}
// objects) into gitops specs.
func fileSpecs(v any) ([]gitops.FileSpec, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("files must be an array of {path, content} objects")
	}
	specs := make([]gitops.FileSpec, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("files must be an array of {path, content} objects")
		}
		path, _ := m["path"].(string)
		content, _ := m["content"].(string)
		specs = append(specs, gitops.FileSpec{Path: path, Content: content})
	}
	return specs, nil
}
