package output

import (
	"fmt"
	"sort"
	"strings"

	"occubench/internal/checks"
	"occubench/internal/flags"
)

// kindOrder lists check titles in the order a checklist usually runs them.
var kindOrder = []string{
	checks.TitleRequiredColumns,
	checks.TitleMissingValues,
	checks.TitleUniqueIntegers,
	checks.TitleTextLength,
	checks.TitleLookupValues,
	checks.TitleAllowedValues,
}

// baseTitle strips the " - column" suffix from a result name.
func baseTitle(check string) string {
	if i := strings.Index(check, " - "); i != -1 {
		return check[:i]
	}
	return check
}

type kindStats struct {
	Title   string
	Failed  int
	Columns []string
}

func computeKindStats(results []checks.Result) []*kindStats {
	stats := make(map[string]*kindStats)
	seenColumn := make(map[string]map[string]bool)

	for _, r := range results {
		if r.Success {
			continue
		}
		title := baseTitle(r.Check)
		ks, ok := stats[title]
		if !ok {
			ks = &kindStats{Title: title}
			stats[title] = ks
			seenColumn[title] = make(map[string]bool)
		}
		ks.Failed++
		if r.Column != "" && !seenColumn[title][r.Column] {
			seenColumn[title][r.Column] = true
			ks.Columns = append(ks.Columns, r.Column)
		}
	}

	var out []*kindStats
	for _, title := range kindOrder {
		if ks, ok := stats[title]; ok {
			out = append(out, ks)
			delete(stats, title)
		}
	}
	// Titles outside the catalogue sort after it.
	var rest []string
	for title := range stats {
		rest = append(rest, title)
	}
	sort.Strings(rest)
	for _, title := range rest {
		out = append(out, stats[title])
	}
	return out
}

func formatList(items []string, max int) string {
	if len(items) == 0 {
		return "-"
	}
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s, +%d more", strings.Join(items[:max], ", "), len(items)-max)
}

// escapeCell keeps a value inside one Markdown table cell.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func rerunCommand(data, checklist string) string {
	if data == "" || checklist == "" {
		return ""
	}
	return fmt.Sprintf("occubench check --%s %s --%s %s", flags.FlagData, shellQuote(data), flags.FlagChecklist, shellQuote(checklist))
}

func shellQuote(s string) string {
	if s != "" && !strings.ContainsAny(s, " \t\n'\"$`\\|&;<>()*?[]{}~!#") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
