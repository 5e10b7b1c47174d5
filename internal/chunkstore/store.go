package chunkstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const chunkExt = ".webm"

var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Handle references one stored chunk.
type Handle struct {
	Sequence int64
	Path     string
}

// Metadata is the sidecar written next to a session's chunks once the
// session is finalized, so other services can pick the result up from disk.
type Metadata struct {
	Title       string   `json:"title"`
	Keywords    []string `json:"keywords"`
	DownloadURL string   `json:"downloadUrl,omitempty"`
	AudioURL    string   `json:"audioUrl,omitempty"`
}

// Store persists audio chunks under <root>/<sessionID>/<sequence>.webm.
// The session directory is created lazily on first write. Listing is always
// ordered by numeric sequence, regardless of write order.
type Store struct {
	root string
	mu   sync.Mutex
}

func New(root string) *Store {
	if root == "" {
		root = filepath.Join("data", "recordings")
	}
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// SessionDir returns the directory holding a session's chunks and sidecars.
// It does not create the directory.
func (s *Store) SessionDir(sessionID string) string {
	return filepath.Join(s.root, sessionID)
}

func (s *Store) Put(sessionID string, sequence int64, data []byte) (Handle, error) {
	if !ValidSessionID(sessionID) {
		return Handle{}, fmt.Errorf("invalid session id %q", sessionID)
	}
	if sequence < 0 {
		return Handle{}, fmt.Errorf("negative chunk sequence %d", sequence)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Handle{}, fmt.Errorf("create session dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, strconv.FormatInt(sequence, 10)+chunkExt)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Handle{}, fmt.Errorf("write chunk %d for session %s: %w", sequence, sessionID, err)
	}

	return Handle{Sequence: sequence, Path: path}, nil
}

// ListOrdered returns the session's chunk handles ascending by sequence
// number. A session with no directory yet yields an empty list.
func (s *Store) ListOrdered(sessionID string) ([]Handle, error) {
	if !ValidSessionID(sessionID) {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}

	dir := s.SessionDir(sessionID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session dir %s: %w", dir, err)
	}

	handles := make([]Handle, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, chunkExt) {
			continue
		}
		seq, err := strconv.ParseInt(strings.TrimSuffix(name, chunkExt), 10, 64)
		if err != nil {
			continue
		}
		handles = append(handles, Handle{Sequence: seq, Path: filepath.Join(dir, name)})
	}

	sort.Slice(handles, func(i, j int) bool { return handles[i].Sequence < handles[j].Sequence })
	return handles, nil
}

func (s *Store) ReadAll(h Handle) ([]byte, error) {
	data, err := os.ReadFile(h.Path)
	if err != nil {
		return nil, fmt.Errorf("read chunk %d: %w", h.Sequence, err)
	}
	return data, nil
}

// WriteTranscript stores the finalized transcript as transcript.txt in the
// session directory and returns its path.
func (s *Store) WriteTranscript(sessionID, text string) (string, error) {
	if !ValidSessionID(sessionID) {
		return "", fmt.Errorf("invalid session id %q", sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "transcript.txt")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write transcript for session %s: %w", sessionID, err)
	}
	return path, nil
}

func (s *Store) WriteMetadata(sessionID string, meta Metadata) error {
	if !ValidSessionID(sessionID) {
		return fmt.Errorf("invalid session id %q", sessionID)
	}
	if meta.Keywords == nil {
		meta.Keywords = []string{}
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata for session %s: %w", sessionID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.SessionDir(sessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write metadata for session %s: %w", sessionID, err)
	}
	return nil
}

// ValidSessionID reports whether id is safe to use as a directory name.
func ValidSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}
