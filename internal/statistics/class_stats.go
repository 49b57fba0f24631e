// Package statistics summarizes the classes of a resource.
package statistics

import (
	"fmt"
	"sort"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/pkg/filter"
)

// DefaultPackageName labels classes in the unnamed package.
const DefaultPackageName = "(default)"

// Calculator computes class statistics.
type Calculator struct {
	topN       int
	classifier *filter.ClassFilter
}

// Option configures the Calculator.
type Option func(*Calculator)

// WithTopN sets the number of packages reported. Zero reports all.
func WithTopN(n int) Option {
	return func(c *Calculator) {
		c.topN = n
	}
}

// WithClassifier sets the filter whose categories are counted.
func WithClassifier(f *filter.ClassFilter) Option {
	return func(c *Calculator) {
		if f != nil {
			c.classifier = f
		}
	}
}

// NewCalculator creates a new Calculator.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{
		topN:       15,
		classifier: filter.NewClassFilter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PackageEntry is the class count of one package.
type PackageEntry struct {
	Name    string  `json:"name"`
	Classes int     `json:"classes"`
	Percent float64 `json:"percent"`
}

// Result holds the statistics of a class set.
type Result struct {
	TotalClasses int            `json:"total_classes"`
	TotalBytes   int64          `json:"total_bytes"`
	Fields       int            `json:"fields"`
	Methods      int            `json:"methods"`
	Packages     int            `json:"packages"`
	TopPackages  []PackageEntry `json:"top_packages"`
	Kinds        map[string]int `json:"kinds"`
	Versions     map[string]int `json:"versions"`
	Categories   map[string]int `json:"categories"`
}

// Calculate computes statistics for classes.
func (c *Calculator) Calculate(classes []*classfile.ClassInfo) *Result {
	result := &Result{
		TopPackages: make([]PackageEntry, 0),
		Kinds:       make(map[string]int),
		Versions:    make(map[string]int),
		Categories:  make(map[string]int),
	}
	if len(classes) == 0 {
		return result
	}

	perPackage := make(map[string]int)
	for _, ci := range classes {
		result.TotalClasses++
		result.TotalBytes += int64(ci.Size())
		result.Fields += ci.NumFields()
		result.Methods += ci.NumMethods()

		pkg := ci.PackageName()
		if pkg == "" {
			pkg = DefaultPackageName
		}
		perPackage[pkg]++

		result.Kinds[ci.Access().TypeKeyword()]++
		result.Versions[VersionLabel(ci.Version())]++
		result.Categories[c.classifier.Classify(ci.Name()).String()]++
	}

	result.Packages = len(perPackage)
	for name, n := range perPackage {
		result.TopPackages = append(result.TopPackages, PackageEntry{
			Name:    name,
			Classes: n,
			Percent: float64(n) * 100 / float64(result.TotalClasses),
		})
	}
	sort.Slice(result.TopPackages, func(i, j int) bool {
		a, b := result.TopPackages[i], result.TopPackages[j]
		if a.Classes != b.Classes {
			return a.Classes > b.Classes
		}
		return a.Name < b.Name
	})
	if c.topN > 0 && len(result.TopPackages) > c.topN {
		result.TopPackages = result.TopPackages[:c.topN]
	}
	return result
}

// VersionLabel renders a class-file version with its Java release,
// e.g. "52.0 (Java 8)".
func VersionLabel(v classfile.Version) string {
	label := fmt.Sprintf("%d.%d (Java %d)", v.Major, v.Minor, v.JavaRelease())
	if v.IsPreview() {
		label += " preview"
	}
	return label
}
