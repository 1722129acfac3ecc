package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fortuna/scoretree/internal/hupu"
	"github.com/fortuna/scoretree/internal/store"
)

// RecordRepository handles player_records access.
type RecordRepository struct {
	db *store.Database
}

// NewRecordRepository creates a new record repository
func NewRecordRepository(db *store.Database) *RecordRepository {
	return &RecordRepository{db: db}
}

// Insert appends one final record. Identical records are stored again.
func (r *RecordRepository) Insert(ctx context.Context, rec hupu.FinalRecord) error {
	query := `
		INSERT INTO player_records (out_biz_no, team, root_node_id, player_name,
			match_score, minutes, pts, ast, reb, stl, blk, plus_minus,
			comment1, comment2, comment3)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.db.DB().ExecContext(ctx, query,
		rec.OutBizNo, rec.Team, rec.RootNodeID, rec.PlayerName,
		rec.MatchScore, rec.Minutes, rec.Pts, rec.Ast, rec.Reb, rec.Stl, rec.Blk, rec.PlusMinus,
		rec.Comments[0], rec.Comments[1], rec.Comments[2],
	)
	if err != nil {
		return fmt.Errorf("inserting record for %s @ %d: %w", rec.PlayerName, rec.RootNodeID, err)
	}
	return nil
}

// ListByMatch returns every record harvested for one match, oldest first.
func (r *RecordRepository) ListByMatch(ctx context.Context, outBizNo int64) ([]store.StoredRecord, error) {
	query := `
		SELECT record_id, out_biz_no, team, root_node_id, player_name,
			match_score, minutes, pts, ast, reb, stl, blk, plus_minus,
			comment1, comment2, comment3, harvested_at
		FROM player_records
		WHERE out_biz_no = $1
		ORDER BY record_id
	`

	rows, err := r.db.DB().QueryContext(ctx, query, outBizNo)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *RecordRepository) scanRecords(rows *sql.Rows) ([]store.StoredRecord, error) {
	var records []store.StoredRecord
	for rows.Next() {
		var s store.StoredRecord
		rec := &s.Record
		err := rows.Scan(
			&s.RecordID, &rec.OutBizNo, &rec.Team, &rec.RootNodeID, &rec.PlayerName,
			&rec.MatchScore, &rec.Minutes, &rec.Pts, &rec.Ast, &rec.Reb, &rec.Stl, &rec.Blk, &rec.PlusMinus,
			&rec.Comments[0], &rec.Comments[1], &rec.Comments[2], &s.HarvestedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		records = append(records, s)
	}
	return records, rows.Err()
}
