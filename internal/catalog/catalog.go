package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

const maxNameLen = 64

// Default commands for apps whose manifest entry omits them.
const (
	DefaultDevCommand  = "npm run dev"
	DefaultTestCommand = "npm test"
)

// App is one workshop exercise as declared in the manifest. Immutable value.
type App struct {
	Name        string
	DisplayName string
	FullPath    string // absolute working directory for spawned commands
	DevCommand  string
	TestCommand string
}

// Catalog holds the apps declared in a workshop manifest. Lookups are safe
// for concurrent use; Reload swaps the whole set atomically.
type Catalog struct {
	mu     sync.RWMutex
	path   string
	apps   []App
	byName map[string]int
	log    *log.Logger
}

// Load reads the manifest at path and returns a ready catalog.
func Load(path string, logger *log.Logger) (*Catalog, error) {
	if logger == nil {
		logger = log.Default()
	}
	c := &Catalog{path: path, log: logger.With("component", "catalog")}
	apps, err := c.read()
	if err != nil {
		return nil, err
	}
	c.install(apps)
	return c, nil
}

// Reload re-reads the manifest. The previous app set is kept on error.
func (c *Catalog) Reload() error {
	apps, err := c.read()
	if err != nil {
		return err
	}
	c.install(apps)
	return nil
}

// Lookup returns the app registered under name.
func (c *Catalog) Lookup(name string) (App, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byName[name]
	if !ok {
		return App{}, false
	}
	return c.apps[i], true
}

// Apps returns all apps in manifest order.
func (c *Catalog) Apps() []App {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]App, len(c.apps))
	copy(out, c.apps)
	return out
}

// Len returns the number of registered apps.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.apps)
}

// Path returns the manifest location the catalog was loaded from.
func (c *Catalog) Path() string {
	return c.path
}

func (c *Catalog) install(apps []App) {
	byName := make(map[string]int, len(apps))
	for i, a := range apps {
		byName[a.Name] = i
	}
	c.mu.Lock()
	c.apps = apps
	c.byName = byName
	c.mu.Unlock()
}

type manifest struct {
	Root string        `yaml:"root"`
	Apps []manifestApp `yaml:"apps"`
}

type manifestApp struct {
	Name        string `yaml:"name"`
	DisplayName string `yaml:"display_name"`
	Path        string `yaml:"path"`
	DevCommand  string `yaml:"dev_command"`
	TestCommand string `yaml:"test_command"`
}

func (c *Catalog) read() ([]App, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", c.path, err)
	}

	var m manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", c.path, err)
	}

	base := filepath.Dir(c.path)
	if m.Root != "" {
		if filepath.IsAbs(m.Root) {
			base = m.Root
		} else {
			base = filepath.Join(base, m.Root)
		}
	}

	apps := make([]App, 0, len(m.Apps))
	seen := make(map[string]struct{}, len(m.Apps))
	for i, raw := range m.Apps {
		name, err := validateName(raw.Name)
		if err != nil {
			return nil, fmt.Errorf("manifest app %d: %w", i, err)
		}
		if _, dup := seen[name]; dup {
			c.log.Warn("duplicate app name in manifest, keeping first", "name", name)
			continue
		}
		seen[name] = struct{}{}

		a := App{
			Name:        name,
			DisplayName: raw.DisplayName,
			DevCommand:  raw.DevCommand,
			TestCommand: raw.TestCommand,
		}
		if a.DisplayName == "" {
			a.DisplayName = name
		}
		if a.DevCommand == "" {
			a.DevCommand = DefaultDevCommand
		}
		if a.TestCommand == "" {
			a.TestCommand = DefaultTestCommand
		}
		dir := raw.Path
		if dir == "" {
			dir = name
		}
		if filepath.IsAbs(dir) {
			a.FullPath = filepath.Clean(dir)
		} else {
			a.FullPath = filepath.Join(base, dir)
		}
		apps = append(apps, a)
	}
	return apps, nil
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", fmt.Errorf("app name is required")
	}
	if len(name) > maxNameLen {
		return "", fmt.Errorf("app name %q is too long (max %d characters)", name, maxNameLen)
	}
	for _, r := range name {
		if isAllowedNameRune(r) {
			continue
		}
		return "", fmt.Errorf("app name %q contains invalid character %q (allowed: letters, digits, '.', '-', '_')", name, r)
	}
	return name, nil
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '-', '_', '.':
		return true
	default:
		return false
	}
}
