// Package discovery enumerates projects and sessions under an
// agent's log root, implements the round-trippable project-path
// codec, and resolves the log root directory across platforms.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/jkindrix/convo-core/internal/model"
)

// Options configures ResolveClaudeDir.
type Options struct {
	// ClaudeDirOverride, when set, is tried first and used verbatim if
	// it exists as a directory; otherwise the remaining resolution
	// steps are tried.
	ClaudeDirOverride string
}

const envOverrideVar = "CLAUDE_CONFIG_DIR"

// ResolveClaudeDir locates the agent's log root, checking in order:
// an explicit override, an environment override, an XDG config
// subdirectory (Linux), the home directory, and — on Windows — a
// user-profile fallback. It fails with FileNotFoundError if nothing
// exists on disk.
func ResolveClaudeDir(opts Options) (string, error) {
	candidates := candidateDirs(opts)

	for _, dir := range candidates {
		if dir == "" {
			continue
		}
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir, nil
		}
	}

	return "", &model.FileNotFoundError{Path: "claude config directory"}
}

func candidateDirs(opts Options) []string {
	var out []string

	if opts.ClaudeDirOverride != "" {
		out = append(out, opts.ClaudeDirOverride)
	}
	if env := os.Getenv(envOverrideVar); env != "" {
		out = append(out, env)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	if runtime.GOOS == "linux" && home != "" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			out = append(out, filepath.Join(xdg, "claude"))
		} else {
			out = append(out, filepath.Join(home, ".config", "claude"))
		}
	}

	if home != "" {
		out = append(out, filepath.Join(home, ".claude"))
	}

	if runtime.GOOS == "windows" {
		if profile := os.Getenv("USERPROFILE"); profile != "" {
			out = append(out, filepath.Join(profile, ".claude"))
		}
	}

	return out
}

// ListProjects enumerates project directories under
// <claudeDir>/projects, sorted by decoded path.
func ListProjects(claudeDir string) ([]model.Project, error) {
	projectsDir := filepath.Join(claudeDir, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("discovery: list projects: %w", err)
	}

	projects := make([]model.Project, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		projects = append(projects, model.Project{Name: e.Name()})
	}

	sort.Slice(projects, func(i, j int) bool {
		return DecodeProjectPath(projects[i].Name) < DecodeProjectPath(projects[j].Name)
	})
	return projects, nil
}

// ListSessions enumerates session files directly under projectDir,
// sorted newest-first by mtime.
func ListSessions(projectDir string) ([]model.Session, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("discovery: list sessions: %w", err)
	}

	projectName := filepath.Base(projectDir)

	var sessions []model.Session
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, isSubagent, err := ParseSessionFilename(e.Name())
		if err != nil {
			continue // not a session file; skip silently
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sessions = append(sessions, model.Session{
			ID:         id,
			IsSubagent: isSubagent,
			Project:    projectName,
			File: model.FileInfo{
				Path:  filepath.Join(projectDir, e.Name()),
				Size:  info.Size(),
				Mtime: info.ModTime(),
			},
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].File.Mtime.After(sessions[j].File.Mtime)
	})
	return sessions, nil
}

// FindSessionByPrefix returns the single session under projectDir
// whose id begins with prefix. Zero matches is SessionNotFoundError;
// two or more is AmbiguousSessionPrefixError — the core never
// auto-disambiguates by picking the newest.
func FindSessionByPrefix(projectDir, prefix string) (model.Session, error) {
	sessions, err := ListSessions(projectDir)
	if err != nil {
		return model.Session{}, err
	}

	var matches []model.Session
	for _, s := range sessions {
		if hasPrefix(s.ID, prefix) {
			matches = append(matches, s)
		}
	}

	switch len(matches) {
	case 0:
		return model.Session{}, &model.SessionNotFoundError{ID: prefix}
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return model.Session{}, &model.AmbiguousSessionPrefixError{Prefix: prefix, Matches: ids}
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
