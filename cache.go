package stache

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Mode selects how a Cache treats compiled templates.
type Mode bool

func (m Mode) String() string {
	if bool(m) {
		return "Production"
	}
	return "Development"
}

const (
	// Development recompiles a template file on every Load, so the latest
	// results are always used.
	Development Mode = false
	// Production compiles a file the first time it is needed and caches
	// the result until the file is written to.
	Production Mode = true
)

// A Cache compiles template files on demand against one descriptor set. In
// Production mode compiled templates are cached per absolute path and a
// file watcher drops an entry when the underlying file is written to.
type Cache struct {
	descs   []VarDescriptor
	mode    Mode
	watcher *fsnotify.Watcher
	errs    chan error

	mu        sync.Mutex
	templates map[string]*Template
	watched   map[string]bool
	locks     map[string]*sync.Mutex
}

func NewCache(descs []VarDescriptor, mode Mode) (*Cache, error) {
	c := &Cache{
		descs:     descs,
		mode:      mode,
		errs:      make(chan error, 1),
		templates: map[string]*Template{},
		watched:   map[string]bool{},
		locks:     map[string]*sync.Mutex{},
	}
	if mode == Development {
		return c, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	c.watcher = watcher
	go c.invalidate()
	return c, nil
}

func (c *Cache) invalidate() {
	for {
		select {
		case event, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				if name, err := filepath.Abs(event.Name); err == nil {
					c.mu.Lock()
					delete(c.templates, name)
					c.mu.Unlock()
				}
			}
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			select {
			case c.errs <- err:
			default:
			}
		}
	}
}

// Errors reports watcher failures. The channel buffers one error; errors
// that arrive while it is full are dropped.
func (c *Cache) Errors() <-chan error {
	return c.errs
}

func (c *Cache) Close() error {
	if c.watcher == nil {
		return nil
	}
	return c.watcher.Close()
}

// lockPath hands out the compile mutex for a path so concurrent Loads of
// the same file compile it once.
func (c *Cache) lockPath(path string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lk, ok := c.locks[path]; ok {
		return lk
	}
	c.locks[path] = new(sync.Mutex)
	return c.locks[path]
}

func (c *Cache) lookup(path string) *Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.templates[path]
}

func (c *Cache) watch(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watched[path] {
		return nil
	}
	if err := c.watcher.Add(path); err != nil {
		return err
	}
	c.watched[path] = true
	return nil
}

// Load returns the compiled template for the file at path, compiling it if
// the cache has no current entry.
func (c *Cache) Load(path string) (*Template, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if c.mode == Development {
		return CompileFile(abs, c.descs)
	}

	if tpl := c.lookup(abs); tpl != nil {
		return tpl, nil
	}

	lk := c.lockPath(abs)
	lk.Lock()
	defer lk.Unlock()

	if tpl := c.lookup(abs); tpl != nil {
		return tpl, nil
	}

	tpl, err := CompileFile(abs, c.descs)
	if err != nil {
		return nil, err
	}
	if err := c.watch(abs); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.templates[abs] = tpl
	c.mu.Unlock()

	return tpl, nil
}
