// Package wordbank loads the leveled practice word banks and keeps them in memory.
package wordbank

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"galactischevrienden/internal/models"
)

//go:embed data/*.yaml
var embeddedBanks embed.FS

// ErrClosed is returned when the repository is used after Close
var ErrClosed = errors.New("word bank repository is closed")

type bankFile struct {
	Level models.AVILevel    `yaml:"level"`
	Words []models.WordEntry `yaml:"words"`
}

// Repository serves word banks per AVI level. Each level is read once and
// cached until Close; invalid entries are dropped and reported via Issues.
type Repository struct {
	source fs.FS
	root   string

	mu     sync.RWMutex
	cache  map[models.AVILevel][]models.WordEntry
	issues map[models.AVILevel][]Issue
	closed bool
}

// NewRepository serves the banks compiled into the binary
func NewRepository() *Repository {
	return newRepository(embeddedBanks, "data")
}

// NewRepositoryFromDir serves <dir>/<level>.yaml files
func NewRepositoryFromDir(dir string) *Repository {
	return newRepository(os.DirFS(dir), ".")
}

// NewRepositoryFromFS serves <root>/<level>.yaml files from source
func NewRepositoryFromFS(source fs.FS, root string) *Repository {
	return newRepository(source, root)
}

func newRepository(source fs.FS, root string) *Repository {
	return &Repository{
		source: source,
		root:   root,
		cache:  make(map[models.AVILevel][]models.WordEntry),
		issues: make(map[models.AVILevel][]Issue),
	}
}

// LoadAll reads every level up front so content errors surface at startup
func (r *Repository) LoadAll() error {
	for _, level := range models.AVILevels {
		if _, err := r.Level(level); err != nil {
			return err
		}
	}
	return nil
}

// Level returns the valid entries of one level. A level without a bank file is empty.
func (r *Repository) Level(level models.AVILevel) ([]models.WordEntry, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("unknown AVI level %q", level)
	}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return nil, ErrClosed
	}
	words, ok := r.cache[level]
	r.mu.RUnlock()
	if ok {
		return words, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if words, ok := r.cache[level]; ok {
		return words, nil
	}

	words, issues, err := r.read(level)
	if err != nil {
		return nil, err
	}
	r.cache[level] = words
	r.issues[level] = issues
	return words, nil
}

func (r *Repository) read(level models.AVILevel) ([]models.WordEntry, []Issue, error) {
	path := string(level) + ".yaml"
	if r.root != "." {
		path = r.root + "/" + path
	}

	raw, err := fs.ReadFile(r.source, path)
	if errors.Is(err, fs.ErrNotExist) {
		return []models.WordEntry{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read word bank %s: %w", path, err)
	}

	var file bankFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse word bank %s: %w", path, err)
	}
	if file.Level != "" && file.Level != level {
		return nil, nil, fmt.Errorf("word bank %s declares level %q", path, file.Level)
	}

	words := make([]models.WordEntry, 0, len(file.Words))
	var issues []Issue
	seen := make(map[string]bool, len(file.Words))
	for _, entry := range file.Words {
		entry = Normalize(entry, level)
		if err := ValidateEntry(entry); err != nil {
			issues = append(issues, Issue{Level: level, Word: entry.Word, Err: err})
			continue
		}
		if seen[entry.Word] {
			issues = append(issues, Issue{Level: level, Word: entry.Word, Err: fmt.Errorf("%w: duplicate word", ErrInvalidWordEntry)})
			continue
		}
		seen[entry.Word] = true
		words = append(words, entry)
	}
	return words, issues, nil
}

// Issues returns the validation problems found in the levels loaded so far
func (r *Repository) Issues() []Issue {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var all []Issue
	for _, level := range models.AVILevels {
		all = append(all, r.issues[level]...)
	}
	return all
}

// Find looks the word up at the given level first, then at levels of increasing
// distance, easier before harder.
func (r *Repository) Find(word string, level models.AVILevel) (models.WordEntry, bool) {
	for _, candidate := range searchOrder(level) {
		words, err := r.Level(candidate)
		if err != nil {
			continue
		}
		for _, entry := range words {
			if entry.Word == word {
				return entry, true
			}
		}
	}
	return models.WordEntry{}, false
}

func searchOrder(level models.AVILevel) []models.AVILevel {
	idx := level.Index()
	if idx < 0 {
		return nil
	}
	order := []models.AVILevel{level}
	for dist := 1; dist < len(models.AVILevels); dist++ {
		if lower := idx - dist; lower >= 0 {
			order = append(order, models.AVILevels[lower])
		}
		if higher := idx + dist; higher < len(models.AVILevels) {
			order = append(order, models.AVILevels[higher])
		}
	}
	return order
}

// Sample returns up to n distinct entries of the level chosen uniformly at random
func (r *Repository) Sample(level models.AVILevel, n int, rng *rand.Rand) ([]models.WordEntry, error) {
	words, err := r.Level(level)
	if err != nil {
		return nil, err
	}
	if n > len(words) {
		n = len(words)
	}
	out := make([]models.WordEntry, 0, n)
	for _, i := range rng.Perm(len(words))[:n] {
		out = append(out, words[i])
	}
	return out, nil
}

// Close drops the cache; later calls return ErrClosed
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.cache = nil
	r.issues = nil
	return nil
}
