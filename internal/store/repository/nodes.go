package repository

import (
	"context"
	"fmt"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/store"
)

// NodeRepository handles node_entries access.
type NodeRepository struct {
	db *store.Database
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(db *store.Database) *NodeRepository {
	return &NodeRepository{db: db}
}

// Upsert inserts a node entry or refreshes its group name.
func (r *NodeRepository) Upsert(ctx context.Context, entry hupu.NodeEntry) error {
	query := `
		INSERT INTO node_entries (out_biz_no, root_node_id, group_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (out_biz_no, root_node_id) DO UPDATE SET
			group_name = EXCLUDED.group_name
	`

	if _, err := r.db.DB().ExecContext(ctx, query, entry.OutBizNo, entry.RootNodeID, entry.GroupName); err != nil {
		return fmt.Errorf("upserting node %s: %w", entry.Key(), err)
	}
	return nil
}

// List returns all stored node entries with their discovery time.
func (r *NodeRepository) List(ctx context.Context) ([]store.StoredNode, error) {
	query := `
		SELECT out_biz_no, root_node_id, group_name, discovered_at
		FROM node_entries
		ORDER BY out_biz_no, root_node_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying nodes: %w", err)
	}
	defer rows.Close()

	var nodes []store.StoredNode
	for rows.Next() {
		var node store.StoredNode
		if err := rows.Scan(&node.OutBizNo, &node.RootNodeID, &node.GroupName, &node.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scanning node: %w", err)
		}
		nodes = append(nodes, node)
	}
	return nodes, rows.Err()
}

// GetAll returns all stored node entries.
func (r *NodeRepository) GetAll(ctx context.Context) ([]hupu.NodeEntry, error) {
	nodes, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]hupu.NodeEntry, 0, len(nodes))
	for _, node := range nodes {
		entries = append(entries, node.NodeEntry)
	}
	return entries, nil
}
