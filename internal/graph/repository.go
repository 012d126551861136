// Package graph stores IR snapshots of optimization runs in a graph
// database, so original and optimized trees can be queried side by side.
package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// Tree names the two IR snapshots stored per run.
const (
	TreeOriginal  = "original"
	TreeOptimized = "optimized"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one optimization run with its IR snapshots.
type Run struct {
	ID        string
	Language  string
	CreatedAt time.Time
	Stats     optimize.Stats
	Original  ir.Node
	Optimized ir.Node
}

// Repository provides graph storage for IR snapshots.
type Repository interface {
	// StoreRun persists a run and both of its trees.
	StoreRun(ctx context.Context, run *Run) error
	// LoadRun retrieves a run and rebuilds its trees.
	LoadRun(ctx context.Context, id string) (*Run, error)
	// Close releases resources.
	Close(ctx context.Context) error
}

// NodeRow is one IR node in flattened form. IDs are preorder positions,
// so the root is always 0.
type NodeRow struct {
	ID   int
	Kind string
	Text string
	Leaf bool
}

// EdgeRow links a parent to its Index-th child.
type EdgeRow struct {
	Parent int
	Child  int
	Index  int
}

// Flatten lists the nodes and parent-child edges of root in preorder.
func Flatten(root ir.Node) ([]NodeRow, []EdgeRow) {
	var nodes []NodeRow
	var edges []EdgeRow
	var walk func(n ir.Node) int
	walk = func(n ir.Node) int {
		id := len(nodes)
		switch v := n.(type) {
		case *ir.Leaf:
			nodes = append(nodes, NodeRow{ID: id, Kind: v.Type, Text: v.Text, Leaf: true})
		case *ir.Internal:
			nodes = append(nodes, NodeRow{ID: id, Kind: v.Type})
			for i, c := range v.Children {
				child := walk(c)
				edges = append(edges, EdgeRow{Parent: id, Child: child, Index: i})
			}
		}
		return id
	}
	if root != nil {
		walk(root)
	}
	return nodes, edges
}

// Rebuild reverses Flatten.
func Rebuild(nodes []NodeRow, edges []EdgeRow) (ir.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	built := make(map[int]ir.Node, len(nodes))
	for _, n := range nodes {
		if n.Leaf {
			built[n.ID] = &ir.Leaf{Type: n.Kind, Text: n.Text}
		} else {
			built[n.ID] = &ir.Internal{Type: n.Kind}
		}
	}
	sorted := append([]EdgeRow(nil), edges...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Parent != sorted[j].Parent {
			return sorted[i].Parent < sorted[j].Parent
		}
		return sorted[i].Index < sorted[j].Index
	})
	for _, e := range sorted {
		parent, ok := built[e.Parent].(*ir.Internal)
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: parent is not an internal node", e.Parent, e.Child)
		}
		child, ok := built[e.Child]
		if !ok {
			return nil, fmt.Errorf("edge %d->%d: unknown child", e.Parent, e.Child)
		}
		if e.Index != len(parent.Children) {
			return nil, fmt.Errorf("node %d: missing child %d", e.Parent, len(parent.Children))
		}
		parent.Children = append(parent.Children, child)
	}
	root, ok := built[0]
	if !ok {
		return nil, fmt.Errorf("no root node")
	}
	return root, nil
}

// MemoryRepository keeps runs in process memory. It serves tests and
// single-process use without a database.
type MemoryRepository struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{runs: make(map[string]*Run)}
}

func (r *MemoryRepository) StoreRun(_ context.Context, run *Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	stored := *run
	if run.Original != nil {
		stored.Original = ir.Clone(run.Original)
	}
	if run.Optimized != nil {
		stored.Optimized = ir.Clone(run.Optimized)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = &stored
	return nil
}

func (r *MemoryRepository) LoadRun(_ context.Context, id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := *run
	return &out, nil
}

func (r *MemoryRepository) Close(context.Context) error { return nil }

var _ Repository = (*MemoryRepository)(nil)
