package workspace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/scolaire-cli/internal/utils"
)

// FileName is the manifest stored at the workspace root.
const FileName = "workspace.json"

// Workspace is a directory of exports with a JSON manifest.
type Workspace struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Artifacts   map[string]*Artifact `json:"artifacts"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`

	// Not serialized: on-disk location of the workspace.json
	rootDir string `json:"-"`
}

// New constructs an in-memory workspace. Call Save() to persist.
func New(name, description, rootDir string) *Workspace {
	now := time.Now()
	return &Workspace{
		Name:        name,
		Description: description,
		Artifacts:   make(map[string]*Artifact),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Load reads workspace.json from dir.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Artifacts == nil {
		w.Artifacts = make(map[string]*Artifact)
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, FileName), data)
}

// Entry describes a file to add.
type Entry struct {
	Page        string
	Kind        string
	Name        string
	Description string
	Source      string
	Write       func(io.Writer) error
}

// Add writes e under the workspace directory and records it. A file of the same name
// is replaced and its previous record dropped. Call Save() to persist the manifest.
func (w *Workspace) Add(e Entry) (*Artifact, error) {
	if e.Name == "" || filepath.Base(e.Name) != e.Name {
		return nil, fmt.Errorf("invalid artifact name %q", e.Name)
	}
	var buf bytes.Buffer
	if err := e.Write(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", e.Name, err)
	}
	if err := utils.EnsureDir(w.rootDir); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	if err := utils.SafeWriteFile(filepath.Join(w.rootDir, e.Name), buf.Bytes()); err != nil {
		return nil, err
	}
	for id, a := range w.Artifacts {
		if a.Path == e.Name {
			delete(w.Artifacts, id)
		}
	}
	a := &Artifact{
		ID:          uuid.NewString(),
		Page:        e.Page,
		Kind:        e.Kind,
		Path:        e.Name,
		Description: e.Description,
		Source:      e.Source,
		Bytes:       buf.Len(),
		CreatedAt:   time.Now(),
	}
	if w.Artifacts == nil {
		w.Artifacts = make(map[string]*Artifact)
	}
	w.Artifacts[a.ID] = a
	w.UpdatedAt = a.CreatedAt
	return a, nil
}

// List returns artifacts oldest first, ties broken by path.
func (w *Workspace) List() []*Artifact {
	out := make([]*Artifact, 0, len(w.Artifacts))
	for _, a := range w.Artifacts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Path < out[j].Path
	})
	return out
}
