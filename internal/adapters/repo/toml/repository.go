package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bnema/finagents/internal/domain"
	"github.com/bnema/finagents/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	CacheDirKey      = "cache.dir"
	snapshotFileMode = 0o600
	snapshotDirMode  = 0o700
	cacheConfigDir   = ".finagents"
	cacheDirName     = "cache"
	tempFilePattern  = ".snapshot-*.toml.tmp"
)

// Store is the directory holding one TOML file per snapshot kind and ticker.
type Store struct {
	root string
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

func NewStore(cfg *viper.Viper) (*Store, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(CacheDirKey, filepath.Join(homeDir, cacheConfigDir, cacheDirName))

	root := cfg.GetString(CacheDirKey)
	if root == "" {
		return nil, errors.New("cache directory is empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}

	return &Store{root: filepath.Clean(absRoot)}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(kind domain.SnapshotKind, ticker domain.Ticker) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown snapshot kind %q", kind)
	}
	normalized, err := domain.NormalizeTicker(string(ticker))
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, string(kind), string(normalized)+".toml"), nil
}

// SnapshotRepository persists snapshots of one kind. S is the on-disk
// schema of the snapshot data.
type SnapshotRepository[T any, S any] struct {
	store  *Store
	kind   domain.SnapshotKind
	encode func(T) S
	decode func(S) T
}

var (
	_ ports.SnapshotStore[domain.FactSheet]      = (*SnapshotRepository[domain.FactSheet, factsSchema])(nil)
	_ ports.SnapshotStore[domain.PriceSeries]    = (*SnapshotRepository[domain.PriceSeries, pricesSchema])(nil)
	_ ports.SnapshotStore[domain.CompanyProfile] = (*SnapshotRepository[domain.CompanyProfile, profileSchema])(nil)
)

func NewFactsRepository(store *Store) *SnapshotRepository[domain.FactSheet, factsSchema] {
	return &SnapshotRepository[domain.FactSheet, factsSchema]{store: store, kind: domain.SnapshotFacts, encode: toFactsSchema, decode: fromFactsSchema}
}

func NewPricesRepository(store *Store) *SnapshotRepository[domain.PriceSeries, pricesSchema] {
	return &SnapshotRepository[domain.PriceSeries, pricesSchema]{store: store, kind: domain.SnapshotPrices, encode: toPricesSchema, decode: fromPricesSchema}
}

func NewProfileRepository(store *Store) *SnapshotRepository[domain.CompanyProfile, profileSchema] {
	return &SnapshotRepository[domain.CompanyProfile, profileSchema]{store: store, kind: domain.SnapshotProfile, encode: toProfileSchema, decode: fromProfileSchema}
}

func (r *SnapshotRepository[T, S]) Kind() domain.SnapshotKind {
	return r.kind
}

func (r *SnapshotRepository[T, S]) Get(ctx context.Context, ticker domain.Ticker) (domain.Snapshot[T], error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot[T]{}, err
	}

	path, err := r.store.path(r.kind, ticker)
	if err != nil {
		return domain.Snapshot[T]{}, err
	}

	mu := lockForPath(path)
	mu.RLock()
	defer mu.RUnlock()

	file, err := readSchema[S](path)
	if err != nil {
		return domain.Snapshot[T]{}, err
	}

	return domain.Snapshot[T]{
		Ticker: domain.Ticker(file.Ticker),
		AsOf:   parseTime(file.AsOf),
		Data:   r.decode(file.Data),
	}, nil
}

func (r *SnapshotRepository[T, S]) Save(ctx context.Context, snapshot domain.Snapshot[T]) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := r.store.path(r.kind, snapshot.Ticker)
	if err != nil {
		return err
	}

	mu := lockForPath(path)
	mu.Lock()
	defer mu.Unlock()

	file := fileSchema[S]{
		Kind:   string(r.kind),
		Ticker: string(snapshot.Ticker),
		AsOf:   formatTime(snapshot.AsOf),
		Data:   r.encode(snapshot.Data),
	}

	return writeSchema(path, file)
}

func readSchema[S any](path string) (fileSchema[S], error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema[S]{}, domain.ErrSnapshotNotFound
		}
		return fileSchema[S]{}, fmt.Errorf("read snapshot file: %w", err)
	}

	var file fileSchema[S]
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema[S]{}, fmt.Errorf("decode snapshot file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema[S]{}, err
	}
	file.applyDefaults()

	return file, nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func writeSchema[S any](path string, file fileSchema[S]) error {
	file.applyDefaults()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, snapshotDirMode); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode snapshot file: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp snapshot file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp snapshot file: %w", err)
	}

	if err := tempFile.Chmod(snapshotFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp snapshot file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp snapshot file: %w", err)
	}

	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace snapshot file: %w", err)
	}

	cleanup = false
	return nil
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.UTC().Format(time.RFC3339)
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatDate(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.DateOnly)
}
