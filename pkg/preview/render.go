package preview

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// StyleFunc decorates a directory name when rendering the tree
type StyleFunc func(string) string

// RenderTree writes the simulated tree with box-drawing connectors.
// dirStyle may be nil.
func (p *Preview) RenderTree(w io.Writer, dirStyle StyleFunc) error {
	if dirStyle == nil {
		dirStyle = func(s string) string { return s }
	}
	var b strings.Builder
	b.WriteString(dirStyle(p.Tree.Name) + "\n")
	renderChildren(&b, p.Tree, "", dirStyle)
	_, err := io.WriteString(w, b.String())
	return err
}

func renderChildren(b *strings.Builder, n *Node, prefix string, dirStyle StyleFunc) {
	for i, c := range n.Children {
		last := i == len(n.Children)-1
		pointer, extension := "├── ", "│   "
		if last {
			pointer, extension = "└── ", "    "
		}
		name := c.Name
		if c.Dir {
			name = dirStyle(name + "/")
		}
		b.WriteString(prefix + pointer + name + "\n")
		if c.Dir {
			renderChildren(b, c, prefix+extension, dirStyle)
		}
	}
}

// RenderSummary writes the per-folder, per-group and per-extension tables
func (p *Preview) RenderSummary(w io.Writer) error {
	folderRows := make([][]string, 0, len(p.Folders)+1)
	for _, f := range p.Folders {
		folderRows = append(folderRows, []string{
			f.Folder,
			strconv.Itoa(f.Count),
			humanize.Bytes(uint64(f.SourceBytes)),
			humanize.Bytes(uint64(f.EstimatedBytes)),
		})
	}
	folderRows = append(folderRows, []string{
		"Total",
		strconv.Itoa(p.Len()),
		humanize.Bytes(uint64(p.TotalSourceBytes)),
		humanize.Bytes(uint64(p.EstimatedBytes)),
	})

	groupRows := make([][]string, 0, len(p.Groups))
	for _, g := range p.Groups {
		groupRows = append(groupRows, []string{g.Group, strconv.Itoa(g.Count), humanize.Bytes(uint64(g.Bytes))})
	}

	extRows := make([][]string, 0, len(p.Extensions))
	for _, e := range p.Extensions {
		extRows = append(extRows, []string{e.Extension, strconv.Itoa(e.Count)})
	}

	_, err := fmt.Fprintf(w, "%s\n\n%s\n\n%s\n\nLink mode: %s, estimated additional disk usage: %s\n",
		renderTable([]string{"Folder", "Files", "Source size", "Estimated size"}, folderRows, []bool{false, true, true, true}),
		renderTable([]string{"Type", "Files", "Size"}, groupRows, []bool{false, true, true}),
		renderTable([]string{"Extension", "Files"}, extRows, []bool{false, true}),
		p.LinkMode,
		humanize.Bytes(uint64(p.EstimatedBytes)),
	)
	return err
}

func renderTable(headers []string, rows [][]string, rightAligned []bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(rightAligned) && rightAligned[i] {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
