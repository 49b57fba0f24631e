// Package resource groups parsed classes loaded from one source (a
// directory, an archive or an object-store prefix) and keeps them queryable
// by name.
package resource

import (
	"sort"
	"sync"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/pkg/utils"
)

// FileInfo is a non-class entry of a resource, such as a manifest or a
// properties file.
type FileInfo struct {
	classfile.ItemInfo
}

// NewFileInfo creates a file entry backed by value.
func NewFileInfo(name string, value []byte) *FileInfo {
	return &FileInfo{ItemInfo: classfile.NewItemInfo(name, value)}
}

// Resource holds the classes and files of one source. It is safe for
// concurrent use.
type Resource struct {
	name   string
	logger utils.Logger

	mu      sync.RWMutex
	classes map[string]*classfile.ClassInfo
	origins map[string]string // class name -> entry path
	byPath  map[string]string // entry path -> class name
	files   map[string]*FileInfo
}

// New creates an empty resource.
func New(name string, logger utils.Logger) *Resource {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Resource{
		name:    name,
		logger:  logger,
		classes: make(map[string]*classfile.ClassInfo),
		origins: make(map[string]string),
		byPath:  make(map[string]string),
		files:   make(map[string]*FileInfo),
	}
}

// Name returns the source name.
func (r *Resource) Name() string {
	return r.name
}

// PutClass adds or replaces a class. origin is the entry path it was read
// from. When a different entry already defined the class, the new one wins
// and a warning is logged. It reports whether a class was replaced.
func (r *Resource) PutClass(ci *classfile.ClassInfo, origin string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ci.Name()
	prevOrigin, replaced := r.origins[name]
	if replaced && prevOrigin != origin {
		r.logger.Warn("Duplicate class %s: %s replaces %s", name, origin, prevOrigin)
		delete(r.byPath, prevOrigin)
	}
	// The entry may previously have held a different class.
	if prevName, ok := r.byPath[origin]; ok && prevName != name {
		delete(r.classes, prevName)
		delete(r.origins, prevName)
	}

	r.classes[name] = ci
	r.origins[name] = origin
	r.byPath[origin] = name
	return replaced
}

// RemoveClass removes a class by name.
func (r *Resource) RemoveClass(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	origin, ok := r.origins[name]
	if !ok {
		return false
	}
	delete(r.classes, name)
	delete(r.origins, name)
	delete(r.byPath, origin)
	return true
}

// RemoveOrigin removes whatever class was read from the entry path and
// returns its name.
func (r *Resource) RemoveOrigin(origin string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byPath[origin]
	if !ok {
		return "", false
	}
	delete(r.classes, name)
	delete(r.origins, name)
	delete(r.byPath, origin)
	return name, true
}

// GetClass returns the class with the given internal name.
func (r *Resource) GetClass(name string) (*classfile.ClassInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ci, ok := r.classes[name]
	return ci, ok
}

// Origin returns the entry path a class was read from.
func (r *Resource) Origin(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.origins[name]
	return o, ok
}

// Classes returns all classes sorted by name.
func (r *Resource) Classes() []*classfile.ClassInfo {
	r.mu.RLock()
	out := make([]*classfile.ClassInfo, 0, len(r.classes))
	for _, ci := range r.classes {
		out = append(out, ci)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ClassNames returns the sorted class names.
func (r *Resource) ClassNames() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.classes))
	for name := range r.classes {
		out = append(out, name)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// Packages returns the sorted distinct internal package names.
func (r *Resource) Packages() []string {
	r.mu.RLock()
	seen := make(map[string]struct{})
	for _, ci := range r.classes {
		seen[ci.PackageName()] = struct{}{}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// PutFile adds or replaces a non-class entry.
func (r *Resource) PutFile(f *FileInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[f.Name()] = f
}

// GetFile returns a non-class entry by path.
func (r *Resource) GetFile(name string) (*FileInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.files[name]
	return f, ok
}

// Files returns the non-class entries sorted by name.
func (r *Resource) Files() []*FileInfo {
	r.mu.RLock()
	out := make([]*FileInfo, 0, len(r.files))
	for _, f := range r.files {
		out = append(out, f)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Len returns the number of classes.
func (r *Resource) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}

// FileCount returns the number of non-class entries.
func (r *Resource) FileCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// TotalSize returns the summed size of all classes in bytes.
func (r *Resource) TotalSize() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, ci := range r.classes {
		n += int64(ci.Size())
	}
	return n
}
