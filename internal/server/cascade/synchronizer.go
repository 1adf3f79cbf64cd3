// Package cascade removes entities together with everything that depends on
// them: nested reply subtrees in the primary store and their projections in
// the search index.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/search"
	"github.com/iudanet/gophblog/internal/server/storage"
)

var (
	// ErrEntityNotFound indicates that the deletion target does not exist
	ErrEntityNotFound = errors.New("entity not found")

	// ErrUnknownKind indicates an entity kind without a deletion rule
	ErrUnknownKind = errors.New("unknown entity kind")

	// ErrIndexSync wraps search index failures. It is logged, never returned.
	ErrIndexSync = errors.New("search index sync failed")
)

// Removal описывает результат каскадного удаления
type Removal struct {
	Kind models.EntityKind
	// IDs удаленных из основного хранилища сущностей: корень первым
	IDs []string
	// Comments число удаленных комментариев
	Comments int
}

// Synchronizer performs cascading deletes. index may be nil when search is disabled.
type Synchronizer struct {
	store  storage.Transactor
	index  search.Index
	logger *slog.Logger
}

// NewSynchronizer creates a new cascading deletion synchronizer
func NewSynchronizer(store storage.Transactor, index search.Index, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		store:  store,
		index:  index,
		logger: logger,
	}
}

// OnEntityRemoved deletes the entity with all its dependents in one storage
// transaction, then removes the same set from the search index best-effort.
func (s *Synchronizer) OnEntityRemoved(ctx context.Context, kind models.EntityKind, id string) (*Removal, error) {
	var (
		removal *Removal
		err     error
	)

	switch kind {
	case models.KindPost:
		removal, err = s.removePost(ctx, id)
	case models.KindComment:
		removal, err = s.removeComment(ctx, id)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Entity removed",
		slog.String("kind", string(kind)),
		slog.String("id", id),
		slog.Int("comments", removal.Comments))

	if s.index != nil {
		// Основное хранилище уже закоммичено, отмена запроса не должна прерывать чистку индекса
		if err := s.syncIndex(context.WithoutCancel(ctx), removal); err != nil {
			s.logger.ErrorContext(ctx, "Search index sync failed",
				slog.String("kind", string(kind)),
				slog.String("id", id),
				slog.Any("error", err))
		}
	}

	return removal, nil
}

// removePost удаляет все комментарии поста одним запросом по post_id, затем сам пост
func (s *Synchronizer) removePost(ctx context.Context, postID string) (*Removal, error) {
	removal := &Removal{Kind: models.KindPost, IDs: []string{postID}}

	err := s.store.InTx(ctx, func(tx storage.ContentStorage) error {
		if _, err := tx.GetPost(ctx, postID); err != nil {
			return notFound(err, storage.ErrPostNotFound)
		}

		n, err := tx.DeletePostComments(ctx, postID)
		if err != nil {
			return fmt.Errorf("failed to delete post comments: %w", err)
		}
		removal.Comments = n

		if err := tx.DeletePost(ctx, postID); err != nil {
			return notFound(err, storage.ErrPostNotFound)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removal, nil
}

// removeComment удаляет поддерево ответов обходом в ширину:
// один запрос на уровень дерева, затем одно массовое удаление.
func (s *Synchronizer) removeComment(ctx context.Context, commentID string) (*Removal, error) {
	removal := &Removal{Kind: models.KindComment}

	err := s.store.InTx(ctx, func(tx storage.ContentStorage) error {
		if _, err := tx.GetComment(ctx, commentID); err != nil {
			return notFound(err, storage.ErrCommentNotFound)
		}

		ids, err := collectSubtree(commentID, func(frontier []string) ([]string, error) {
			return tx.GetReplyIDs(ctx, frontier)
		})
		if err != nil {
			return fmt.Errorf("failed to collect replies: %w", err)
		}

		n, err := tx.DeleteComments(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to delete comments: %w", err)
		}
		removal.IDs = ids
		removal.Comments = n
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removal, nil
}

// collectSubtree расширяет frontier уровень за уровнем, пока children возвращает новые ID.
// Уже посещенные ID отбрасываются, поэтому цикл в данных не зацикливает обход.
func collectSubtree(rootID string, children func(frontier []string) ([]string, error)) ([]string, error) {
	ids := []string{rootID}
	seen := map[string]struct{}{rootID: {}}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		found, err := children(frontier)
		if err != nil {
			return nil, err
		}

		frontier = unseen(found, seen)
		ids = append(ids, frontier...)
	}

	return ids, nil
}

// syncIndex удаляет известные ID, затем дочищает документы, которые индекс
// еще связывает с удаленными родителями, пока такие находятся.
func (s *Synchronizer) syncIndex(ctx context.Context, removal *Removal) error {
	if _, err := s.index.DeleteByIDs(ctx, removal.IDs); err != nil {
		return fmt.Errorf("%w: %v", ErrIndexSync, err)
	}

	seen := make(map[string]struct{}, len(removal.IDs))
	for _, id := range removal.IDs {
		seen[id] = struct{}{}
	}

	frontier := removal.IDs
	byPost := removal.Kind == models.KindPost
	stragglers := 0

	for len(frontier) > 0 {
		found, err := s.index.QueryByField(ctx, search.FieldParentCommentID, frontier)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIndexSync, err)
		}
		if byPost {
			ids, err := s.index.QueryByField(ctx, search.FieldPostID, removal.IDs)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrIndexSync, err)
			}
			found = append(found, ids...)
			byPost = false
		}

		frontier = unseen(found, seen)
		if len(frontier) == 0 {
			break
		}

		if _, err := s.index.DeleteByIDs(ctx, frontier); err != nil {
			return fmt.Errorf("%w: %v", ErrIndexSync, err)
		}
		stragglers += len(frontier)
	}

	if stragglers > 0 {
		s.logger.InfoContext(ctx, "Removed stale search documents",
			slog.String("root_id", removal.IDs[0]),
			slog.Int("count", stragglers))
	}

	return nil
}

// unseen возвращает ID из found, которых еще нет в seen, и добавляет их туда
func unseen(found []string, seen map[string]struct{}) []string {
	next := make([]string, 0, len(found))
	for _, id := range found {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		next = append(next, id)
	}
	return next
}

func notFound(err, sentinel error) error {
	if errors.Is(err, sentinel) {
		return ErrEntityNotFound
	}
	return err
}
