package lessons

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

//go:embed builtin/*.toml
var builtinFS embed.FS

var ErrNotFound = errors.New("lesson not found")

// Catalog is the set of lessons available to play, keyed by id.
type Catalog struct {
	mu      sync.RWMutex
	lessons map[string]Lesson
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{lessons: make(map[string]Lesson)}
}

// Builtin returns a catalog holding the embedded lesson packs.
func Builtin() (*Catalog, error) {
	c := NewCatalog()
	if err := c.loadFS(builtinFS, "builtin", "builtin:"); err != nil {
		return nil, err
	}
	return c, nil
}

// Load returns the built-in lessons with every *.toml pack in dir layered
// over them. A user pack with a built-in id replaces it. An empty dir loads
// only the built-ins.
func Load(dir string) (*Catalog, error) {
	c, err := Builtin()
	if err != nil {
		return nil, err
	}
	if dir == "" {
		return c, nil
	}
	if err := c.loadFS(os.DirFS(dir), ".", dir+string(filepath.Separator)); err != nil {
		return nil, err
	}
	return c, nil
}

// ReadFile parses a single lesson file.
func ReadFile(name string) (Lesson, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return Lesson{}, fmt.Errorf("read lesson: %w", err)
	}
	l, err := Parse(data)
	if err != nil {
		return Lesson{}, fmt.Errorf("%s: %w", name, err)
	}
	l.Source = name
	return l, nil
}

func (c *Catalog) loadFS(fsys fs.FS, dir, prefix string) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("list lessons: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		data, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return fmt.Errorf("read lesson %s: %w", e.Name(), err)
		}
		l, err := Parse(data)
		if err != nil {
			return fmt.Errorf("%s%s: %w", prefix, e.Name(), err)
		}
		l.Source = prefix + e.Name()
		c.Add(l)
	}
	return nil
}

// Add stores l, replacing any lesson with the same id.
func (c *Catalog) Add(l Lesson) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lessons[l.ID] = l
}

// Get returns the lesson with id.
func (c *Catalog) Get(id string) (Lesson, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	l, ok := c.lessons[id]
	if !ok {
		return Lesson{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return l, nil
}

// List returns every lesson sorted by title.
func (c *Catalog) List() []Lesson {
	c.mu.RLock()
	out := make([]Lesson, 0, len(c.lessons))
	for _, l := range c.lessons {
		out = append(out, l)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.lessons)
}
