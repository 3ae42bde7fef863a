package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/finbrief/trend-curator/internal/core/domain"
)

// ErrNoSnapshot indicates no snapshot exists for the scope.
var ErrNoSnapshot = errors.New("no snapshot found")

const (
	deleteGroupsSQL = `DELETE FROM keyword_groups WHERE snapshot_date = $1 AND scope = $2`

	insertGroupSQL = `INSERT INTO keyword_groups (snapshot_date, scope, rank, keyword, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	insertItemSQL = `INSERT INTO news_items
		(keyword_group_id, title, summary, content, link, image_url, published_at, needs_image_gen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	latestDateSQL = `SELECT snapshot_date FROM keyword_groups
		WHERE scope = $1
		ORDER BY snapshot_date DESC
		LIMIT 1`

	selectGroupsSQL = `SELECT id, snapshot_date, rank, keyword, reason
		FROM keyword_groups
		WHERE snapshot_date = $1 AND scope = $2
		ORDER BY rank`

	selectItemsSQL = `SELECT id, keyword_group_id, title, summary, content, link, image_url, published_at, needs_image_gen
		FROM news_items
		WHERE keyword_group_id = ANY($1)
		ORDER BY id`
)

// ReplaceSnapshot atomically swaps the snapshot for (date, scope): the old
// groups and their items go away in the same transaction that writes the
// new ones, so readers never observe a partial day.
func (db *DB) ReplaceSnapshot(ctx context.Context, date time.Time, scope domain.Scope, groups []domain.KeywordGroup) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		//nolint:errcheck // rollback after commit is a no-op
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, deleteGroupsSQL, date, string(scope)); err != nil {
		return fmt.Errorf("delete old snapshot: %w", err)
	}

	for _, group := range groups {
		var groupID int64

		err := tx.QueryRow(ctx, insertGroupSQL,
			date, string(scope), group.Rank, group.Keyword, group.Reason,
		).Scan(&groupID)
		if err != nil {
			return fmt.Errorf("insert keyword group %q: %w", group.Keyword, err)
		}

		if len(group.Items) == 0 {
			continue
		}

		batch := &pgx.Batch{}

		for _, item := range group.Items {
			batch.Queue(insertItemSQL,
				groupID, item.Title, item.Summary, item.Content,
				item.Link, item.ImageURL, item.PublishedAt, item.NeedsImageGen,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert items for %q: %w", group.Keyword, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	return nil
}

// GetLatestSnapshot returns the most recent snapshot date for the scope and
// its keyword groups with items.
func (db *DB) GetLatestSnapshot(ctx context.Context, scope domain.Scope) (time.Time, []domain.KeywordGroup, error) {
	var date time.Time

	err := db.Pool.QueryRow(ctx, latestDateSQL, string(scope)).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, nil, ErrNoSnapshot
	}

	if err != nil {
		return time.Time{}, nil, fmt.Errorf("query latest snapshot date: %w", err)
	}

	groups, err := db.getSnapshot(ctx, date, scope)
	if err != nil {
		return time.Time{}, nil, err
	}

	return date, groups, nil
}

func (db *DB) getSnapshot(ctx context.Context, date time.Time, scope domain.Scope) ([]domain.KeywordGroup, error) {
	rows, err := db.Pool.Query(ctx, selectGroupsSQL, date, string(scope))
	if err != nil {
		return nil, fmt.Errorf("query keyword groups: %w", err)
	}
	defer rows.Close()

	var (
		groups   []domain.KeywordGroup
		groupIDs []int64
	)

	for rows.Next() {
		group := domain.KeywordGroup{Scope: scope}

		if err := rows.Scan(&group.ID, &group.Date, &group.Rank, &group.Keyword, &group.Reason); err != nil {
			return nil, fmt.Errorf("scan keyword group: %w", err)
		}

		groups = append(groups, group)
		groupIDs = append(groupIDs, group.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keyword groups: %w", err)
	}

	if len(groups) == 0 {
		return groups, nil
	}

	items, err := db.getItems(ctx, groupIDs)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		groups[i].Items = items[groups[i].ID]
	}

	return groups, nil
}

func (db *DB) getItems(ctx context.Context, groupIDs []int64) (map[int64][]domain.NewsItem, error) {
	rows, err := db.Pool.Query(ctx, selectItemsSQL, groupIDs)
	if err != nil {
		return nil, fmt.Errorf("query news items: %w", err)
	}
	defer rows.Close()

	items := make(map[int64][]domain.NewsItem)

	for rows.Next() {
		var (
			item    domain.NewsItem
			groupID int64
		)

		err := rows.Scan(&item.ID, &groupID, &item.Title, &item.Summary, &item.Content,
			&item.Link, &item.ImageURL, &item.PublishedAt, &item.NeedsImageGen)
		if err != nil {
			return nil, fmt.Errorf("scan news item: %w", err)
		}

		items[groupID] = append(items[groupID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate news items: %w", err)
	}

	return items, nil
}
