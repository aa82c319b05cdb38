package preview

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Node is one entry of the simulated output tree
type Node struct {
	Name     string
	Dir      bool
	Children []*Node
}

// FolderSummary aggregates the operations of one top-level folder
type FolderSummary struct {
	Folder string
	Count  int

	// SourceBytes is the size of the source files
	SourceBytes int64

	// EstimatedBytes is the additional disk usage: the source size for
	// copies, zero for links
	EstimatedBytes int64
}

// GroupSummary aggregates the operations of one type group
type GroupSummary struct {
	Group string
	Count int
	Bytes int64
}

// ExtensionCount counts the operations of one source extension
type ExtensionCount struct {
	Extension string
	Count     int
}

// Preview is the simulated result of a plan
type Preview struct {
	OutputRoot string
	Mode       models.OrganizeMode
	LinkMode   models.LinkMode

	Tree       *Node
	Folders    []FolderSummary
	Groups     []GroupSummary
	Extensions []ExtensionCount

	// Operations is the full operation list, in plan order
	Operations []models.Operation

	TotalSourceBytes int64
	EstimatedBytes   int64
}

// Simulate builds the preview of a plan. It never touches the filesystem.
func Simulate(plan *models.Plan) *Preview {
	pv := &Preview{
		OutputRoot: plan.OutputRoot,
		Mode:       plan.Mode,
		LinkMode:   plan.LinkMode,
		Tree:       &Node{Name: plan.OutputRoot, Dir: true},
		Operations: append([]models.Operation(nil), plan.Operations...),
	}

	folders := make(map[string]*FolderSummary)
	for _, op := range plan.Operations {
		estimated := EstimateBytes(op)
		pv.TotalSourceBytes += op.Size
		pv.EstimatedBytes += estimated

		fs, ok := folders[op.Folder]
		if !ok {
			fs = &FolderSummary{Folder: op.Folder}
			folders[op.Folder] = fs
		}
		fs.Count++
		fs.SourceBytes += op.Size
		fs.EstimatedBytes += estimated

		pv.Tree.insert(relativeParts(plan.OutputRoot, op.DestinationPath))
	}

	for _, fs := range folders {
		pv.Folders = append(pv.Folders, *fs)
	}
	sort.Slice(pv.Folders, func(i, j int) bool { return pv.Folders[i].Folder < pv.Folders[j].Folder })

	for group, st := range plan.Groups {
		pv.Groups = append(pv.Groups, GroupSummary{Group: group, Count: st.Count, Bytes: st.Bytes})
	}
	sort.Slice(pv.Groups, func(i, j int) bool { return pv.Groups[i].Group < pv.Groups[j].Group })

	for ext, n := range plan.Extensions {
		pv.Extensions = append(pv.Extensions, ExtensionCount{Extension: ext, Count: n})
	}
	sort.Slice(pv.Extensions, func(i, j int) bool {
		if pv.Extensions[i].Count != pv.Extensions[j].Count {
			return pv.Extensions[i].Count > pv.Extensions[j].Count
		}
		return pv.Extensions[i].Extension < pv.Extensions[j].Extension
	})

	pv.Tree.sort()
	return pv
}

// EstimateBytes returns the additional disk usage of one operation
func EstimateBytes(op models.Operation) int64 {
	if op.LinkMode.IsAlias() {
		return 0
	}
	return op.Size
}

// Len returns the number of simulated operations
func (p *Preview) Len() int {
	return len(p.Operations)
}

func relativeParts(root, dest string) []string {
	rel, err := filepath.Rel(root, dest)
	if err != nil {
		rel = dest
	}
	return strings.Split(filepath.ToSlash(rel), "/")
}

func (n *Node) insert(parts []string) {
	cur := n
	for i, part := range parts {
		child := cur.child(part)
		if child == nil {
			child = &Node{Name: part, Dir: i < len(parts)-1}
			cur.Children = append(cur.Children, child)
		}
		cur = child
	}
}

func (n *Node) child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// sort orders children by name, recursively
func (n *Node) sort() {
	sort.Slice(n.Children, func(i, j int) bool { return n.Children[i].Name < n.Children[j].Name })
	for _, c := range n.Children {
		c.sort()
	}
}

// Count returns the number of files below n
func (n *Node) Count() int {
	if !n.Dir {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}
