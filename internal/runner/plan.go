package runner

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"occubench/internal/checks"
	"occubench/internal/config"
)

// Plan is a checklist resolved against the check registry and the CLI
// overrides. Building it touches no data.
type Plan struct {
	ChecklistPath string
	Steps         []Step
	Scheme        config.SchemeSettings
	StringColumns []string

	// SchemeBaseDir resolves a relative file scheme source. It is the
	// checklist's directory when the source came from the checklist.
	SchemeBaseDir string
}

// Step is one checklist entry bound to its registered kind. Index is the
// entry's position in the checklist file.
type Step struct {
	Index int
	Entry config.CheckEntry
	Kind  checks.Kind
}

// NeedsScheme reports whether any planned step compares against the
// reference scheme.
func (p *Plan) NeedsScheme() bool {
	for _, s := range p.Steps {
		if s.Kind.ID() == checks.KindLookupValues {
			return true
		}
	}
	return false
}

// BuildPlan binds the checklist entries to check kinds, keeping only the
// kinds named by cfg.Checks.Selector when it is set.
func BuildPlan(cfg *config.Config, path string, cl config.Checklist) (*Plan, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	var selected map[string]bool
	if strings.TrimSpace(cfg.Checks.Selector) != "" {
		kinds, err := checks.Resolve(cfg.Checks.Selector)
		if err != nil {
			return nil, err
		}
		selected = make(map[string]bool, len(kinds))
		for _, k := range kinds {
			selected[k.ID()] = true
		}
	}

	plan := &Plan{
		ChecklistPath: path,
		Scheme:        mergeScheme(cl.Scheme, cfg.Scheme),
		StringColumns: mergeColumns(cfg.Data.StringColumns, cl.StringColumns()),
	}
	if cfg.Scheme.Source == "" && cl.Scheme.Source != "" && path != "" {
		plan.SchemeBaseDir = filepath.Dir(path)
	}
	for i, e := range cl.Checks {
		kind, err := checks.Lookup(e.Kind)
		if err != nil {
			return nil, fmt.Errorf("checks[%d]: %w", i, err)
		}
		if selected != nil && !selected[kind.ID()] {
			continue
		}
		plan.Steps = append(plan.Steps, Step{Index: i, Entry: e, Kind: kind})
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("no checks selected (selector %q)", cfg.Checks.Selector)
	}
	if plan.NeedsScheme() && plan.Scheme.Source == "" {
		return nil, fmt.Errorf("%s needs a reference scheme: set scheme.source in the checklist or pass --scheme", checks.KindLookupValues)
	}
	return plan, nil
}

// Print writes the plan as printed by --dry-run.
func (p *Plan) Print(w io.Writer) error {
	var b strings.Builder
	if p.ChecklistPath != "" {
		fmt.Fprintf(&b, "Checklist: %s\n", p.ChecklistPath)
	}
	if p.Scheme.Source != "" {
		fmt.Fprintf(&b, "Scheme: %s", p.Scheme.Source)
		if p.Scheme.Sheet != "" {
			fmt.Fprintf(&b, " (sheet %s)", p.Scheme.Sheet)
		}
		b.WriteString("\n")
	}
	if len(p.StringColumns) > 0 {
		fmt.Fprintf(&b, "String columns: %s\n", strings.Join(p.StringColumns, ", "))
	}
	b.WriteString("Checks:\n")
	for i, s := range p.Steps {
		onFail := s.Entry.OnFail
		if onFail == "" {
			onFail = checks.Continue.String()
		}
		fmt.Fprintf(&b, "  %d. %s", i+1, s.Kind.ID())
		if target := s.Entry.Target(); target != "" {
			fmt.Fprintf(&b, " [%s]", target)
		}
		fmt.Fprintf(&b, " on_fail=%s\n", onFail)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func mergeScheme(fromChecklist config.SchemeSettings, overrides config.Scheme) config.SchemeSettings {
	out := fromChecklist
	if overrides.Source != "" {
		out.Source = overrides.Source
	}
	if overrides.Sheet != "" {
		out.Sheet = overrides.Sheet
	}
	if overrides.CodeColumn != "" {
		out.CodeColumn = overrides.CodeColumn
	}
	if overrides.TitleColumn != "" {
		out.TitleColumn = overrides.TitleColumn
	}
	return out
}

func mergeColumns(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, col := range list {
			if col == "" {
				continue
			}
			if _, dup := seen[col]; dup {
				continue
			}
			seen[col] = struct{}{}
			out = append(out, col)
		}
	}
	return out
}
