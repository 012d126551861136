// Package neo4j stores IR snapshots in Neo4j. Each run becomes a :Run node
// linked to the roots of its trees; tree nodes are :IRNode vertices joined
// by ordered :CHILD relationships.
package neo4j

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/refinery/internal/graph"
	"github.com/efebarandurmaz/refinery/internal/ir"
	"github.com/efebarandurmaz/refinery/internal/optimize"
)

// Repository implements graph.Repository using Neo4j.
type Repository struct {
	driver neo4j.DriverWithContext
}

// New creates a Neo4j-backed repository and checks connectivity.
func New(ctx context.Context, uri, username, password string) (*Repository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Repository{driver: driver}, nil
}

func (r *Repository) StoreRun(ctx context.Context, run *graph.Run) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx,
			"MERGE (r:Run {id: $id}) "+
				"SET r.language = $lang, r.created_at = $created, "+
				"r.folded = $folded, r.eliminated = $eliminated, r.unrolled = $unrolled, "+
				"r.unroll_aborted = $aborted, r.substituted = $substituted "+
				"WITH r OPTIONAL MATCH (n:IRNode {run: $id}) DETACH DELETE n",
			map[string]any{
				"id":          run.ID,
				"lang":        run.Language,
				"created":     run.CreatedAt.UTC().Format(time.RFC3339Nano),
				"folded":      int64(run.Stats.Folded),
				"eliminated":  int64(run.Stats.Eliminated),
				"unrolled":    int64(run.Stats.Unrolled),
				"aborted":     int64(run.Stats.UnrollAborted),
				"substituted": int64(run.Stats.Substituted),
			})
		if err != nil {
			return nil, err
		}
		for _, t := range []struct {
			name string
			root ir.Node
		}{{graph.TreeOriginal, run.Original}, {graph.TreeOptimized, run.Optimized}} {
			if t.root == nil {
				continue
			}
			if err := storeTree(ctx, tx, run.ID, t.name, t.root); err != nil {
				return nil, fmt.Errorf("%s tree: %w", t.name, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store run %s: %w", run.ID, err)
	}
	return nil
}

func storeTree(ctx context.Context, tx neo4j.ManagedTransaction, runID, tree string, root ir.Node) error {
	nodes, edges := graph.Flatten(root)

	nodeRows := make([]any, len(nodes))
	for i, n := range nodes {
		nodeRows[i] = map[string]any{"id": int64(n.ID), "kind": n.Kind, "text": n.Text, "leaf": n.Leaf}
	}
	_, err := tx.Run(ctx,
		"UNWIND $nodes AS n "+
			"CREATE (:IRNode {run: $run, tree: $tree, id: n.id, kind: n.kind, text: n.text, leaf: n.leaf})",
		map[string]any{"run": runID, "tree": tree, "nodes": nodeRows})
	if err != nil {
		return err
	}

	edgeRows := make([]any, len(edges))
	for i, e := range edges {
		edgeRows[i] = map[string]any{"parent": int64(e.Parent), "child": int64(e.Child), "index": int64(e.Index)}
	}
	_, err = tx.Run(ctx,
		"UNWIND $edges AS e "+
			"MATCH (p:IRNode {run: $run, tree: $tree, id: e.parent}) "+
			"MATCH (c:IRNode {run: $run, tree: $tree, id: e.child}) "+
			"CREATE (p)-[:CHILD {index: e.index}]->(c)",
		map[string]any{"run": runID, "tree": tree, "edges": edgeRows})
	if err != nil {
		return err
	}

	rel := "ORIGINAL"
	if tree == graph.TreeOptimized {
		rel = "OPTIMIZED"
	}
	_, err = tx.Run(ctx,
		"MATCH (r:Run {id: $run}) MATCH (n:IRNode {run: $run, tree: $tree, id: 0}) "+
			"MERGE (r)-[:"+rel+"]->(n)",
		map[string]any{"run": runID, "tree": tree})
	return err
}

func (r *Repository) LoadRun(ctx context.Context, id string) (*graph.Run, error) {
	session := r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		records, err := tx.Run(ctx,
			"MATCH (r:Run {id: $id}) RETURN r.language AS lang, r.created_at AS created, "+
				"r.folded AS folded, r.eliminated AS eliminated, r.unrolled AS unrolled, "+
				"r.unroll_aborted AS aborted, r.substituted AS substituted",
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		if !records.Next(ctx) {
			return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, id)
		}
		rec := records.Record()
		run := &graph.Run{ID: id}
		run.Language, _ = getString(rec, "lang")
		if created, ok := getString(rec, "created"); ok {
			run.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		}
		run.Stats = optimize.Stats{
			Folded:        getInt(rec, "folded"),
			Eliminated:    getInt(rec, "eliminated"),
			Unrolled:      getInt(rec, "unrolled"),
			UnrollAborted: getInt(rec, "aborted"),
			Substituted:   getInt(rec, "substituted"),
		}

		if run.Original, err = loadTree(ctx, tx, id, graph.TreeOriginal); err != nil {
			return nil, err
		}
		if run.Optimized, err = loadTree(ctx, tx, id, graph.TreeOptimized); err != nil {
			return nil, err
		}
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*graph.Run), nil
}

func loadTree(ctx context.Context, tx neo4j.ManagedTransaction, runID, tree string) (ir.Node, error) {
	records, err := tx.Run(ctx,
		"MATCH (n:IRNode {run: $run, tree: $tree}) RETURN n.id AS id, n.kind AS kind, n.text AS text, n.leaf AS leaf",
		map[string]any{"run": runID, "tree": tree})
	if err != nil {
		return nil, err
	}
	var nodes []graph.NodeRow
	for records.Next(ctx) {
		rec := records.Record()
		row := graph.NodeRow{ID: getInt(rec, "id")}
		row.Kind, _ = getString(rec, "kind")
		row.Text, _ = getString(rec, "text")
		if leaf, ok := rec.Get("leaf"); ok {
			row.Leaf, _ = leaf.(bool)
		}
		nodes = append(nodes, row)
	}

	records, err = tx.Run(ctx,
		"MATCH (p:IRNode {run: $run, tree: $tree})-[c:CHILD]->(n:IRNode) "+
			"RETURN p.id AS parent, n.id AS child, c.index AS index",
		map[string]any{"run": runID, "tree": tree})
	if err != nil {
		return nil, err
	}
	var edges []graph.EdgeRow
	for records.Next(ctx) {
		rec := records.Record()
		edges = append(edges, graph.EdgeRow{
			Parent: getInt(rec, "parent"),
			Child:  getInt(rec, "child"),
			Index:  getInt(rec, "index"),
		})
	}
	return graph.Rebuild(nodes, edges)
}

func getString(rec *neo4j.Record, key string) (string, bool) {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getInt(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok {
		return 0
	}
	n, _ := v.(int64)
	return int(n)
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.driver.VerifyConnectivity(ctx)
}

func (r *Repository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graph.Repository = (*Repository)(nil)
