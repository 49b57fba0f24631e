package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/classmeta/internal/classfile"
	"github.com/classmeta/internal/repository"
	"github.com/classmeta/internal/resource"
	"github.com/classmeta/internal/statistics"
	apperrors "github.com/classmeta/pkg/errors"
)

const maxFailures = 20

// TextFormatter writes results for a terminal.
type TextFormatter struct{}

// Name returns "text".
func (f *TextFormatter) Name() string { return "text" }

// Format writes v as text.
func (f *TextFormatter) Format(w io.Writer, v any) error {
	p := &printer{w: w}
	switch v := v.(type) {
	case *classfile.ClassInfo:
		p.class(v)
	case *ScanSummary:
		p.scan(v)
	case *HierarchyView:
		p.hierarchy(v)
	case []repository.MemberRecord:
		p.members(v)
	case []resource.Change:
		p.changes(v)
	case []string:
		for _, s := range v {
			p.line("%s", s)
		}
	case int64:
		p.line("%d", v)
	case fmt.Stringer:
		p.line("%s", v.String())
	default:
		return apperrors.New(apperrors.CodeInvalidInput, fmt.Sprintf("text format does not support %T", v))
	}
	return p.err
}

// printer remembers the first write error.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) class(ci *classfile.ClassInfo) {
	p.line("%s", classHeader(ci))
	v := ci.Version()
	p.line("  version:     %s", statistics.VersionLabel(v))
	if ci.SourceFile() != "" {
		p.line("  source file: %s", ci.SourceFile())
	}
	p.line("  size:        %d bytes", ci.Size())

	fields := ci.Fields()
	p.line("")
	p.line("  fields (%d):", len(fields))
	for _, m := range fields {
		p.line("    %s", m.Declaration())
	}

	methods := ci.Methods()
	p.line("  methods (%d):", len(methods))
	for _, m := range methods {
		decl := m.Declaration()
		if code := m.Code(); code != nil {
			decl += fmt.Sprintf("  [stack=%d, locals=%d, code=%d bytes]",
				code.MaxStack, code.MaxLocals, len(code.Instructions))
		}
		p.line("    %s", decl)
	}
}

// classHeader renders the javap-style declaration line.
func classHeader(ci *classfile.ClassInfo) string {
	var b strings.Builder
	if mods := ci.Access().Format(classfile.KindClass); mods != "" {
		b.WriteString(mods)
		b.WriteByte(' ')
	}
	b.WriteString(ci.Access().TypeKeyword())
	b.WriteByte(' ')
	b.WriteString(ci.JavaName())

	ifaces := javaNames(ci.Interfaces())
	if ci.IsInterface() {
		if len(ifaces) > 0 {
			b.WriteString(" extends " + strings.Join(ifaces, ", "))
		}
		return b.String()
	}
	if ci.HasSuperName() && ci.SuperName() != "java/lang/Object" {
		b.WriteString(" extends " + classfile.JavaName(ci.SuperName()))
	}
	if len(ifaces) > 0 {
		b.WriteString(" implements " + strings.Join(ifaces, ", "))
	}
	return b.String()
}

func javaNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = classfile.JavaName(n)
	}
	return out
}

func (p *printer) scan(s *ScanSummary) {
	r := s.Report
	if r != nil {
		p.line("=== Load Report ===")
		p.line("Source:      %s", r.Source)
		p.line("Entries:     %d", r.Entries)
		p.line("Classes:     %d", r.Classes)
		p.line("Files:       %d", r.Files)
		p.line("Filtered:    %d", r.Filtered)
		p.line("Duplicates:  %d", len(r.Duplicates))
		p.line("Cache hits:  %d", r.CacheHits)
		p.line("Failures:    %d", len(r.Failures))
		p.line("Duration:    %v", r.Duration)
		for i, f := range r.Failures {
			if i >= maxFailures {
				p.line("  ... and %d more failures", len(r.Failures)-maxFailures)
				break
			}
			p.line("  - %s [%s] %s", f.Path, f.Code, truncateString(f.Message, 100))
		}
		p.line("")
	}

	if st := s.Stats; st != nil {
		p.line("=== Class Statistics ===")
		p.line("Packages:    %d", st.Packages)
		p.line("Fields:      %d", st.Fields)
		p.line("Methods:     %d", st.Methods)
		p.line("Total size:  %d bytes", st.TotalBytes)
		p.line("")
		p.line("=== Top Packages ===")
		for i, e := range st.TopPackages {
			p.line("  %2d. %6.2f%%  %5d  %s", i+1, e.Percent, e.Classes, truncateString(e.Name, 80))
		}
		p.counts("Kinds", st.Kinds)
		p.counts("Versions", st.Versions)
		p.counts("Categories", st.Categories)
	}

	if s.ReportURL != "" {
		p.line("")
		p.line("Report: %s", s.ReportURL)
	}
}

func (p *printer) counts(title string, m map[string]int) {
	if len(m) == 0 {
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	p.line("")
	p.line("=== %s ===", title)
	for _, k := range keys {
		p.line("  %-20s %d", k, m[k])
	}
}

func (p *printer) hierarchy(h *HierarchyView) {
	p.line("%s", classfile.JavaName(h.Class))
	p.line("  parents:")
	for _, r := range h.Parents {
		p.line("    %-10s %s", r.Kind, classfile.JavaName(r.Name))
	}
	p.line("  children:")
	for _, r := range h.Children {
		p.line("    %-10s %s", r.Kind, classfile.JavaName(r.Name))
	}
	if len(h.AllParents) > 0 {
		p.line("  all supertypes (%d):", len(h.AllParents))
		for _, n := range h.AllParents {
			p.line("    %s", classfile.JavaName(n))
		}
	}
	if len(h.AllChildren) > 0 {
		p.line("  all subtypes (%d):", len(h.AllChildren))
		for _, n := range h.AllChildren {
			p.line("    %s", classfile.JavaName(n))
		}
	}
}

func (p *printer) members(records []repository.MemberRecord) {
	for _, m := range records {
		member := classfile.NewMemberInfo(m.Name, m.Descriptor, classfile.AccessFlags(m.Access))
		if m.IsMethod() {
			member = classfile.NewMethodInfo(m.Name, m.Descriptor, classfile.AccessFlags(m.Access))
		}
		p.line("%s  %s", classfile.JavaName(m.ClassName), member.Declaration())
	}
}

func (p *printer) changes(changes []resource.Change) {
	for _, c := range changes {
		switch {
		case c.Err != nil:
			p.line("%-8s %s: %v", c.Kind, c.Path, c.Err)
		case c.Class != "":
			p.line("%-8s %s (%s)", c.Kind, classfile.JavaName(c.Class), c.Path)
		default:
			p.line("%-8s %s", c.Kind, c.Path)
		}
	}
}
