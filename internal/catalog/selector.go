package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/datapilot/datapilot/internal/rank"
)

// Selector picks the tables most relevant to a question and renders them as
// the schema context handed to the generator. Selection is deterministic:
// score ties fall back to manifest declaration order.
type Selector struct {
	Scorer rank.Scorer
	// MaxTables caps the selection, foreign-key expansion included.
	MaxTables int
	// DescriptionBudget truncates each table and column description.
	DescriptionBudget int
	// ContextCharBudget caps the rendered context. Tables past the budget
	// are dropped whole; the first selected table is always kept.
	ContextCharBudget int
}

// Selection is the outcome of narrowing a dataset to one question.
type Selection struct {
	Tables  []Table
	Context string
}

// Select ranks tables by scored overlap with the question and fills the
// selection in rank order, admitting each pick's foreign-key neighbors
// before lower-ranked tables so generated joins stay expressible. An empty
// dataset yields an empty selection.
func (s *Selector) Select(question string, dataset Dataset) Selection {
	if len(dataset.Tables) == 0 {
		return Selection{}
	}

	type scored struct {
		index int
		score float64
	}
	ranked := make([]scored, len(dataset.Tables))
	for i, table := range dataset.Tables {
		ranked[i] = scored{index: i, score: s.Scorer.Score(question, tableText(table))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	limit := s.capOrAll(len(dataset.Tables))

	// Each scored pick immediately admits the tables its foreign keys
	// reference, one hop, ahead of lower-ranked tables. A table that only
	// got in as a neighbor does not expand further.
	picked := make(map[string]struct{}, limit)
	for _, entry := range ranked {
		if len(picked) >= limit {
			break
		}
		table := dataset.Tables[entry.index]
		if _, ok := picked[table.Name]; ok {
			continue
		}
		picked[table.Name] = struct{}{}
		for _, fk := range table.ForeignKeys {
			if len(picked) >= limit {
				break
			}
			if _, ok := picked[fk.ReferencedTable]; ok {
				continue
			}
			if _, exists := dataset.Table(fk.ReferencedTable); exists {
				picked[fk.ReferencedTable] = struct{}{}
			}
		}
	}

	selection := Selection{Tables: make([]Table, 0, len(picked))}
	for _, table := range dataset.Tables {
		if _, ok := picked[table.Name]; ok {
			selection.Tables = append(selection.Tables, table)
		}
	}
	selection.Tables, selection.Context = s.render(selection.Tables)
	return selection
}

func (s *Selector) capOrAll(total int) int {
	if s.MaxTables <= 0 || s.MaxTables > total {
		return total
	}
	return s.MaxTables
}

func (s *Selector) render(tables []Table) ([]Table, string) {
	var builder strings.Builder
	kept := make([]Table, 0, len(tables))
	for i, table := range tables {
		block := s.renderTable(table)
		if i > 0 && s.ContextCharBudget > 0 && builder.Len()+len(block) > s.ContextCharBudget {
			break
		}
		builder.WriteString(block)
		kept = append(kept, table)
	}
	return kept, strings.TrimRight(builder.String(), "\n")
}

func (s *Selector) renderTable(table Table) string {
	var builder strings.Builder
	builder.WriteString("TABLE ")
	builder.WriteString(table.Name)
	if description := s.truncate(table.Description); description != "" {
		builder.WriteString(": ")
		builder.WriteString(description)
	}
	builder.WriteString("\n")
	for _, column := range table.Columns {
		builder.WriteString("  ")
		builder.WriteString(column.Name)
		builder.WriteString(" ")
		builder.WriteString(column.Type)
		if description := s.truncate(column.Description); description != "" {
			builder.WriteString("  -- ")
			builder.WriteString(description)
		}
		builder.WriteString("\n")
	}
	for _, fk := range table.ForeignKeys {
		fmt.Fprintf(&builder, "  FOREIGN KEY %s REFERENCES %s(%s)\n",
			fk.Column, fk.ReferencedTable, fk.ReferencedColumn)
	}
	builder.WriteString("\n")
	return builder.String()
}

func (s *Selector) truncate(text string) string {
	text = strings.TrimSpace(text)
	if s.DescriptionBudget <= 0 || len(text) <= s.DescriptionBudget {
		return text
	}
	return text[:s.DescriptionBudget]
}

func tableText(table Table) string {
	parts := make([]string, 0, len(table.Columns)+2)
	parts = append(parts, table.Name, table.Description)
	for _, column := range table.Columns {
		parts = append(parts, column.Name, column.Description)
	}
	return strings.Join(parts, " ")
}
