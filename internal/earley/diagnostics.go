package earley

import (
	"fmt"
	"strings"
)

// PrintRow renders every item of row idx as a dotted-rule line, one per
// item, for use by cmd/earleyctl's interactive dump.
func (p *Parser) PrintRow(idx uint32) string {
	row := p.rows[idx]
	var sb strings.Builder
	fmt.Fprintf(&sb, "row %d (%d items):\n", idx, row.Len())
	for i := row.FirstItem; i < row.LastItem; i++ {
		it := p.scratch.items[i]
		fmt.Fprintf(&sb, "  [%d] %s\n", it.Start(), p.grammar.RuleToString(it.Rule()))
	}
	return sb.String()
}
