package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hoanghai1803/faves/faves"
)

// ArticleFavorites returns the favorites store for articles.
func (s *Store) ArticleFavorites() *faves.SQLStore {
	return s.favorites
}

// FavoritedIDs returns which of articleIDs the user has favorited.
func (s *Store) FavoritedIDs(ctx context.Context, userID int64, articleIDs []int64) (map[int64]bool, error) {
	out := make(map[int64]bool, len(articleIDs))
	if userID == 0 || len(articleIDs) == 0 {
		return out, nil
	}

	query, args, err := sqlx.In(
		`SELECT article_id FROM article_favorites WHERE user_id = ? AND article_id IN (?)`,
		userID, articleIDs)
	if err != nil {
		return nil, fmt.Errorf("building favorites lookup: %w", err)
	}

	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("looking up favorites for user %d: %w", userID, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
