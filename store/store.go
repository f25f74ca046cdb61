// Package store persists submissions in a local badger database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/seejho/etude/model"
)

// ErrNotFound reports a submission id with no stored record.
var ErrNotFound = errors.New("submission not found")

const submissionPrefix = "submission/"

// Store wraps the database handle. Safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database under dir.
func Open(dir string) (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// OpenInMemory opens a throwaway database that lives only as long as
// the process.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open in-memory store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// PutSubmission writes a submission record keyed by its id.
func (s *Store) PutSubmission(sub model.Submission) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode submission %s: %w", sub.ID, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(submissionPrefix+sub.ID), raw)
	})
}

// GetSubmission loads one submission, or ErrNotFound.
func (s *Store) GetSubmission(id string) (model.Submission, error) {
	var sub model.Submission
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(submissionPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sub)
		})
	})
	if err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

// ListSubmissions returns submission summaries, newest first. A limit
// of zero or less returns everything.
func (s *Store) ListSubmissions(limit int) ([]model.SubmissionSummary, error) {
	out := make([]model.SubmissionSummary, 0)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(submissionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var sub model.Submission
				if err := json.Unmarshal(val, &sub); err != nil {
					return err
				}
				out = append(out, model.SubmissionSummary{
					ID:                sub.ID,
					CreatedAt:         sub.CreatedAt,
					PlayerName:        sub.PlayerName,
					ReferenceName:     sub.ReferenceName,
					OverallSimilarity: sub.Metrics.OverallSimilarity,
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
