package storage

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/contest-tracker/internal/models"
)

type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

func New(ctx context.Context, projectID, collection string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &FirestoreStore{client: client, collection: collection}, nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

// ReplaceContests makes the collection equal to batch in a single transaction:
// every record is written under its (name, platform) key, then documents whose
// key is absent from batch are deleted. Readers never observe an empty window.
func (s *FirestoreStore) ReplaceContests(ctx context.Context, batch []models.ContestRecord) error {
	if len(batch) == 0 {
		return ErrEmptyBatch
	}

	coll := s.client.Collection(s.collection)
	var deleted int
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		// Transaction reads must precede writes.
		existing, err := s.documentIDs(tx, coll)
		if err != nil {
			return err
		}
		stale := staleKeys(existing, batch)

		for _, contest := range batch {
			if err := tx.Set(coll.Doc(contest.Key()), contest); err != nil {
				return fmt.Errorf("failed to stage contest %q: %w", contest.Name, err)
			}
		}
		for _, id := range stale {
			if err := tx.Delete(coll.Doc(id)); err != nil {
				return fmt.Errorf("failed to stage delete of %s: %w", id, err)
			}
		}
		deleted = len(stale)
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.Aborted {
			return fmt.Errorf("contest replace aborted by contention: %w", err)
		}
		return fmt.Errorf("failed to replace contests: %w", err)
	}

	slog.Info("Replaced contest snapshot", "collection", s.collection, "upserted", len(batch), "deleted", deleted)
	return nil
}

func (s *FirestoreStore) documentIDs(tx *firestore.Transaction, coll *firestore.CollectionRef) ([]string, error) {
	iter := tx.Documents(coll.Select())
	defer iter.Stop()

	var ids []string
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list existing contests: %w", err)
		}
		ids = append(ids, doc.Ref.ID)
	}
	return ids, nil
}

// ListContests returns every stored contest ordered by start time.
func (s *FirestoreStore) ListContests(ctx context.Context) ([]models.ContestRecord, error) {
	iter := s.client.Collection(s.collection).Documents(ctx)
	defer iter.Stop()

	contests := []models.ContestRecord{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate contests: %w", err)
		}

		var contest models.ContestRecord
		if err := doc.DataTo(&contest); err != nil {
			slog.Warn("Skipping undecodable contest document", "id", doc.Ref.ID, "error", err)
			continue
		}
		contests = append(contests, contest)
	}

	models.SortByStartTime(contests)
	return contests, nil
}
