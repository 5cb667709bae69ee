package classify

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"gitlab.com/beaubassin/api/canvass-triage-processor/pkg/logger"
)

// Dictionary lifecycle states.
const (
	DictUninitialized = "uninitialized"
	DictLoading       = "loading"
	DictReady         = "ready"
	DictFailed        = "failed"
)

// Source supplies the raw newline-delimited surname list.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPSource fetches the surname list from a configured URL.
type HTTPSource struct {
	client *resty.Client
	url    string
}

// NewHTTPSource creates an HTTPSource with a bounded request timeout.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond)
	return &HTTPSource{client: client, url: url}
}

// Fetch downloads the surname list.
func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch dictionary from %s: %w", s.url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("dictionary fetch returned status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

// FileSource reads the surname list from a local path.
type FileSource struct {
	path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Fetch reads the surname list from disk.
func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dictionary file %s: %w", s.path, err)
	}
	return data, nil
}

// Dictionary is a process-lifetime cache of normalized surnames. Loading is
// lazy, memoized in flight (concurrent callers share one fetch) and terminal
// on failure: a failed load leaves the instance in heuristic-only mode.
type Dictionary struct {
	source Source

	once  sync.Once
	mu    sync.RWMutex
	state string
	names map[string]struct{}
}

// NewDictionary creates an unloaded Dictionary backed by the given source.
// A nil source yields a permanently heuristic-only dictionary.
func NewDictionary(source Source) *Dictionary {
	return &Dictionary{
		source: source,
		state:  DictUninitialized,
		names:  map[string]struct{}{},
	}
}

// Load fetches and parses the surname list. Idempotent: only the first call
// does work, concurrent callers block until it completes. Load never returns
// an error; a failed fetch is logged and the dictionary degrades to
// heuristic-only membership (Contains always false).
func (d *Dictionary) Load(ctx context.Context) {
	d.once.Do(func() {
		log := logger.FromContext(ctx)

		if d.source == nil {
			d.setState(DictFailed)
			log.Warn("No dictionary source configured, running heuristic-only")
			return
		}

		d.setState(DictLoading)
		start := time.Now()

		data, err := d.source.Fetch(ctx)
		if err != nil {
			d.setState(DictFailed)
			log.Warn("Dictionary load failed, continuing heuristic-only", zap.Error(err))
			return
		}

		names := parseDictionary(data)

		d.mu.Lock()
		d.names = names
		d.state = DictReady
		d.mu.Unlock()

		log.Info("Dictionary loaded",
			zap.Int("names", len(names)),
			zap.Duration("duration", time.Since(start)))
	})
}

// Contains reports whether the normalized name is in the loaded dictionary.
// Always false until the dictionary is ready.
func (d *Dictionary) Contains(normalized string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.state != DictReady {
		return false
	}
	_, ok := d.names[normalized]
	return ok
}

// State returns the current lifecycle state.
func (d *Dictionary) State() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// Size returns the number of loaded names.
func (d *Dictionary) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

func (d *Dictionary) setState(state string) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

// parseDictionary splits the raw list into normalized names, one per line,
// skipping blanks.
func parseDictionary(data []byte) map[string]struct{} {
	names := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		name := NormalizeName(scanner.Text())
		if name == "" {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}
