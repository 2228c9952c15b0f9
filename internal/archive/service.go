// Package archive keeps a per-user git repository of generated day
// summaries, one Markdown file per day, one commit per generation.
package archive

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Entry describes one archived summary commit.
type Entry struct {
	Day       string
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// SaveSummary writes the day's Markdown document into the user's archive
// repo and commits it, creating the repo on first use. Returns the commit
// hash.
func (s *Service) SaveSummary(userID, day, markdown, author string) (string, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	worktree, err := s.ensureRepo(userID)
	if err != nil {
		return "", err
	}

	filename := day + ".md"
	path := filepath.Join(s.repoPath(userID), filename)
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return "", fmt.Errorf("write summary file: %w", err)
	}
	if _, err := worktree.Add(filename); err != nil {
		return "", fmt.Errorf("git add summary: %w", err)
	}

	if author == "" {
		author = "Agenda"
	}
	hash, err := worktree.Commit(fmt.Sprintf("Resumo do dia %s", day), &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@agenda.local", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit summary: %w", err)
	}
	return hash.String(), nil
}

// GetSummary reads the archived document for a day, if present.
func (s *Service) GetSummary(userID, day string) (string, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	data, err := os.ReadFile(filepath.Join(s.repoPath(userID), day+".md"))
	if err != nil {
		return "", fmt.Errorf("read archived summary: %w", err)
	}
	return string(data), nil
}

// History lists the user's archive commits, newest first.
func (s *Service) History(userID string, limit int) ([]Entry, error) {
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(userID))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open archive repo: %w", err)
	}

	head, err := repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		// initialized but never committed
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	entries := make([]Entry, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		entries = append(entries, toEntry(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return entries, nil
}

func (s *Service) ensureRepo(userID string) (*git.Worktree, error) {
	path := s.repoPath(userID)

	repo, err := git.PlainOpen(path)
	if err == nil {
		worktree, err := repo.Worktree()
		if err != nil {
			return nil, fmt.Errorf("open worktree: %w", err)
		}
		return worktree, nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("open archive repo: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init archive repo: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return nil, fmt.Errorf("set HEAD to main: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	return worktree, nil
}

func (s *Service) repoPath(userID string) string {
	return filepath.Join(s.baseDir, userID)
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	return lock
}

func toEntry(commitObj *object.Commit) Entry {
	message := strings.TrimSpace(commitObj.Message)
	day := ""
	if idx := strings.LastIndex(message, " "); idx >= 0 {
		day = message[idx+1:]
	}
	return Entry{
		Day:       day,
		Hash:      commitObj.Hash.String(),
		Message:   message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	cleaned := strings.ToLower(strings.TrimSpace(input))
	cleaned = strings.ReplaceAll(cleaned, " ", ".")
	var b strings.Builder
	for _, r := range cleaned {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "agenda"
	}
	return b.String()
}
