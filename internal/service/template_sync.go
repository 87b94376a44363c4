package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	githubAPIBase    = "https://api.github.com"
	metadataFileName = "_metadata.json"
	maxSyncDepth     = 10
	maxContentBytes  = 1 << 20
)

var (
	ErrSyncRateLimited = errors.New("GitHub API rate limit exceeded, try again later")
	ErrPathNotFound    = errors.New("path not found")
	ErrNotADirectory   = errors.New("path is not a directory")
	ErrNotAFile        = errors.New("path is a directory")
	ErrFileTooLarge    = errors.New("file too large to display")
	ErrBinaryFile      = errors.New("binary file cannot be displayed")
	ErrInvalidSyncPath = errors.New("invalid path")
)

var allowedExtensions = map[string]bool{
	".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".html": true, ".css": true, ".scss": true, ".json": true,
	".yml": true, ".yaml": true, ".md": true, ".txt": true, ".sh": true,
	".bat": true, ".sql": true, ".toml": true, ".cfg": true, ".ini": true,
	".env": true, ".gitignore": true,
}

var excludedDirs = map[string]bool{
	"node_modules": true, ".git": true, "__pycache__": true,
	".venv": true, "venv": true, "dist": true, "build": true,
}

var allowedHiddenNames = map[string]bool{
	".env.example": true, ".gitignore": true, ".claude": true,
}

type TemplateSyncConfig struct {
	Owner    string
	Repo     string
	Branch   string
	CacheDir string
	Token    string
}

// TemplateSyncService mirrors a GitHub repository into a local cache so
// template files can be browsed without hitting GitHub on every request.
type TemplateSyncService struct {
	config     TemplateSyncConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *logrus.Logger

	// Overridable for tests.
	apiBase string

	mutex sync.Mutex
}

type SyncMetadata struct {
	LastSync  string `json:"last_sync,omitempty"`
	Status    string `json:"status"`
	FileCount int    `json:"file_count"`
	Repo      string `json:"repo,omitempty"`
	Branch    string `json:"branch,omitempty"`
}

type TemplateEntry struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Type      string `json:"type"`
	Size      int64  `json:"size,omitempty"`
	Extension string `json:"extension,omitempty"`
}

type TemplateListing struct {
	Path     string          `json:"path"`
	Items    []TemplateEntry `json:"items"`
	Parent   *string         `json:"parent"`
	LastSync string          `json:"last_sync,omitempty"`
}

type TemplateContent struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	Extension string `json:"extension"`
	Size      int    `json:"size"`
}

func NewTemplateSyncService(config TemplateSyncConfig, log *logrus.Logger) *TemplateSyncService {
	if config.Branch == "" {
		config.Branch = "main"
	}
	return &TemplateSyncService{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		// GitHub allows 60 unauthenticated requests per hour; pace well
		// under the secondary abuse limits.
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     log,
		apiBase: githubAPIBase,
	}
}

func (s *TemplateSyncService) Metadata() SyncMetadata {
	meta := SyncMetadata{Status: "not_synced"}
	data, err := os.ReadFile(filepath.Join(s.config.CacheDir, metadataFileName))
	if err != nil {
		return meta
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return SyncMetadata{Status: "not_synced"}
	}
	return meta
}

func (s *TemplateSyncService) saveMetadata(meta SyncMetadata) error {
	if err := os.MkdirAll(s.config.CacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.config.CacheDir, metadataFileName), data, 0o644)
}

// MarkSyncing flags the cache as mid-sync so status reads reflect the
// in-flight background job.
func (s *TemplateSyncService) MarkSyncing() error {
	meta := s.Metadata()
	meta.Status = "syncing"
	return s.saveMetadata(meta)
}

// Sync clears the cache and re-downloads the whole tree. Only one sync
// runs at a time.
func (s *TemplateSyncService) Sync(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if err := s.clearCache(); err != nil {
		return err
	}
	if err := s.syncDirectory(ctx, "", 0); err != nil {
		return err
	}

	fileCount := 0
	_ = filepath.WalkDir(s.config.CacheDir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() != metadataFileName {
			fileCount++
		}
		return nil
	})

	return s.saveMetadata(SyncMetadata{
		LastSync:  time.Now().Format(time.RFC3339),
		Status:    "synced",
		FileCount: fileCount,
		Repo:      s.config.Owner + "/" + s.config.Repo,
		Branch:    s.config.Branch,
	})
}

func (s *TemplateSyncService) clearCache() error {
	if err := os.MkdirAll(s.config.CacheDir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(s.config.CacheDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == metadataFileName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.config.CacheDir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

type githubContentItem struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func (s *TemplateSyncService) syncDirectory(ctx context.Context, dirPath string, depth int) error {
	if depth > maxSyncDepth {
		return nil
	}

	items, err := s.fetchContents(ctx, dirPath)
	if err != nil {
		return err
	}

	for _, item := range items {
		if item.Type == "dir" && excludedDirs[item.Name] {
			continue
		}
		if strings.HasPrefix(item.Name, ".") && !allowedHiddenNames[item.Name] {
			continue
		}

		local := filepath.Join(s.config.CacheDir, filepath.FromSlash(item.Path))

		if item.Type == "dir" {
			if err := os.MkdirAll(local, 0o755); err != nil {
				return err
			}
			if err := s.syncDirectory(ctx, item.Path, depth+1); err != nil {
				s.logger().WithError(err).WithField("path", item.Path).Warn("failed to sync directory")
			}
			continue
		}

		extension := strings.ToLower(path.Ext(item.Name))
		if !allowedExtensions[extension] && !allowedHiddenNames[item.Name] {
			continue
		}
		if item.DownloadURL == "" {
			continue
		}

		content, err := s.fetchFile(ctx, item.DownloadURL)
		if err != nil {
			s.logger().WithError(err).WithField("path", item.Path).Warn("failed to fetch file")
			continue
		}
		if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(local, content, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (s *TemplateSyncService) fetchContents(ctx context.Context, dirPath string) ([]githubContentItem, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		s.apiBase, s.config.Owner, s.config.Repo, dirPath, url.QueryEscape(s.config.Branch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrSyncRateLimited
	default:
		return nil, fmt.Errorf("failed to fetch from GitHub: status %d: %s", resp.StatusCode, string(body))
	}

	var items []githubContentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse GitHub contents: %w", err)
	}
	return items, nil
}

func (s *TemplateSyncService) fetchFile(ctx context.Context, downloadURL string) ([]byte, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// ListFiles returns the cached entries under relPath, directories first.
func (s *TemplateSyncService) ListFiles(relPath string) (*TemplateListing, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotADirectory
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}

	items := make([]TemplateEntry, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "_") {
			continue
		}
		if strings.HasPrefix(name, ".") && !allowedHiddenNames[name] {
			continue
		}

		item := TemplateEntry{
			Name: name,
			Path: path.Join(relPath, name),
			Type: "file",
		}
		if entry.IsDir() {
			item.Type = "dir"
		} else {
			if fileInfo, err := entry.Info(); err == nil {
				item.Size = fileInfo.Size()
			}
			item.Extension = strings.ToLower(path.Ext(name))
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		if (items[i].Type == "dir") != (items[j].Type == "dir") {
			return items[i].Type == "dir"
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	listing := &TemplateListing{
		Path:     relPath,
		Items:    items,
		LastSync: s.Metadata().LastSync,
	}
	if relPath != "" {
		parent := path.Dir(relPath)
		if parent == "." {
			parent = ""
		}
		listing.Parent = &parent
	}
	return listing, nil
}

// ReadFile returns the content of one cached file, limited to 1MB of
// valid UTF-8.
func (s *TemplateSyncService) ReadFile(relPath string) (*TemplateContent, error) {
	target, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(target)
	if os.IsNotExist(err) {
		return nil, ErrPathNotFound
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotAFile
	}
	if info.Size() > maxContentBytes {
		return nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, ErrBinaryFile
	}
	content := string(data)

	return &TemplateContent{
		Path:      relPath,
		Name:      filepath.Base(target),
		Content:   content,
		Extension: strings.ToLower(path.Ext(target)),
		Size:      len(content),
	}, nil
}

// resolve maps a request path into the cache dir, rejecting traversal.
// Only a whole ".." segment is traversal; names like "CHANGELOG..md"
// are legitimate.
func (s *TemplateSyncService) resolve(relPath string) (string, error) {
	for _, segment := range strings.Split(relPath, "/") {
		if segment == ".." {
			return "", ErrInvalidSyncPath
		}
	}
	cleaned := path.Clean("/" + relPath)
	return filepath.Join(s.config.CacheDir, filepath.FromSlash(strings.TrimPrefix(cleaned, "/"))), nil
}

// RunScheduler syncs once at startup when the cache is cold, then daily
// at 06:00 local time until the context is cancelled.
func (s *TemplateSyncService) RunScheduler(ctx context.Context) {
	if s.Metadata().Status != "synced" {
		s.logger().Info("no cached template data found, performing initial sync")
		if err := s.Sync(ctx); err != nil {
			s.logger().WithError(err).Error("initial template sync failed")
		}
	}

	for {
		next := nextRunAt(time.Now())
		s.logger().WithField("next_run", next.Format(time.RFC3339)).Info("next template sync scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
		}

		s.logger().Info("starting scheduled template sync")
		if err := s.Sync(ctx); err != nil {
			s.logger().WithError(err).Error("scheduled template sync failed")
			continue
		}
		s.logger().WithField("file_count", s.Metadata().FileCount).Info("template sync completed")
	}
}

func nextRunAt(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if !now.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (s *TemplateSyncService) logger() *logrus.Logger {
	if s.log == nil {
		return logrus.StandardLogger()
	}
	return s.log
}
