// internal/storage/results/store.go
package results

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/newthinker/stratlab/internal/backtest"
	"github.com/newthinker/stratlab/internal/storage/archive"
)

const (
	// Root is the archive directory holding every saved report.
	Root = "reports"
	// Fixed-width nanoseconds keep names in lexical time order.
	timestampLayout = "20060102T150405.000000000Z"
	suffixLength    = 8
)

// ListFilter defines criteria for listing saved reports.
type ListFilter struct {
	Symbol   string
	Strategy string // strategy kind, e.g. "rsi"
	Limit    int
}

// Store saves backtest results as JSON documents in an archive under
// reports/<symbol>/<strategy>/<timestamp>-<suffix>.json.
type Store struct {
	archive archive.Storage
	now     func() time.Time
	suffix  func() string
}

// NewStore creates a report store backed by s.
func NewStore(s archive.Storage) *Store {
	return &Store{archive: s, now: time.Now, suffix: randomSuffix}
}

// Path returns the archive path for a result saved at t. The suffix tells
// apart reports saved at the same instant.
func Path(r *backtest.Result, t time.Time, suffix string) string {
	name := t.UTC().Format(timestampLayout) + "-" + suffix + ".json"
	return path.Join(Root, sanitize(r.Symbol), string(r.Kind), name)
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLength]
}

// Save writes r and returns the path it was stored under.
func (s *Store) Save(ctx context.Context, r *backtest.Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	p := Path(r, s.now(), s.suffix())
	if err := s.archive.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return p, nil
}

// Load reads the report stored at p.
func (s *Store) Load(ctx context.Context, p string) (*backtest.Result, error) {
	data, err := s.archive.Read(ctx, p)
	if err != nil {
		return nil, err
	}
	var r backtest.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", p, err)
	}
	return &r, nil
}

// List returns saved report paths matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]string, error) {
	prefix := Root
	if filter.Symbol != "" {
		prefix = path.Join(prefix, sanitize(filter.Symbol))
		if filter.Strategy != "" {
			prefix = path.Join(prefix, filter.Strategy)
		}
	}

	paths, err := s.archive.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.HasSuffix(p, ".json") {
			continue
		}
		if filter.Strategy != "" && path.Base(path.Dir(p)) != filter.Strategy {
			continue
		}
		result = append(result, p)
	}

	// Timestamps sort lexically within a directory.
	sort.Slice(result, func(i, j int) bool {
		return path.Base(result[i]) > path.Base(result[j])
	})

	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

// sanitize keeps symbols usable as a single path segment.
func sanitize(symbol string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.ToUpper(symbol))
}
