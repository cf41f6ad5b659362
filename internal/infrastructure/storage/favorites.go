package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/boltdb/bolt"

	"arxivdigest/internal/domain"
	"arxivdigest/internal/ports"
)

var favoritesBucket = []byte("favorites")

// BoltFavoriteStore keeps favorites in a bolt database, one sub-bucket per
// user keyed by paper id. Bolt serializes update transactions, which removes
// the read-modify-write race a shared JSON file would have.
type BoltFavoriteStore struct {
	db  *bolt.DB
	now func() time.Time
}

var _ ports.FavoriteStore = (*BoltFavoriteStore)(nil)

// OpenFavoriteStore opens (or creates) the database at path.
func OpenFavoriteStore(path string) (*BoltFavoriteStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open favorites db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(favoritesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init favorites bucket: %w", err)
	}

	return &BoltFavoriteStore{db: db, now: time.Now}, nil
}

// Close releases the underlying database.
func (s *BoltFavoriteStore) Close() error {
	return s.db.Close()
}

// Save stores the paper under the user's bucket with a saved_at stamp. Saving
// an id the user already has is a no-op and returns false.
func (s *BoltFavoriteStore) Save(user string, paper domain.Paper) (bool, error) {
	if !paper.Valid() {
		return false, fmt.Errorf("paper has no id")
	}

	saved := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.Bucket(favoritesBucket).CreateBucketIfNotExists([]byte(user))
		if err != nil {
			return err
		}

		if bucket.Get([]byte(paper.ID)) != nil {
			return nil
		}

		favorite := domain.Favorite{
			Paper:   paper,
			SavedAt: s.now().Format(time.RFC3339),
		}
		data, err := json.Marshal(favorite)
		if err != nil {
			return err
		}

		saved = true
		return bucket.Put([]byte(paper.ID), data)
	})
	if err != nil {
		return false, fmt.Errorf("save favorite: %w", err)
	}

	return saved, nil
}

// List returns the user's favorites, most recently saved first.
func (s *BoltFavoriteStore) List(user string) ([]domain.Favorite, error) {
	var favorites []domain.Favorite

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(favoritesBucket).Bucket([]byte(user))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(_, data []byte) error {
			var favorite domain.Favorite
			if err := json.Unmarshal(data, &favorite); err != nil {
				return err
			}
			favorites = append(favorites, favorite)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}

	sort.SliceStable(favorites, func(i, j int) bool {
		return favorites[i].SavedAt > favorites[j].SavedAt
	})
	return favorites, nil
}

// Delete removes exactly the favorite with the given id; returns false when
// the user had no such entry.
func (s *BoltFavoriteStore) Delete(user, id string) (bool, error) {
	deleted := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(favoritesBucket).Bucket([]byte(user))
		if bucket == nil || bucket.Get([]byte(id)) == nil {
			return nil
		}
		deleted = true
		return bucket.Delete([]byte(id))
	})
	if err != nil {
		return false, fmt.Errorf("delete favorite: %w", err)
	}
	return deleted, nil
}

// DeleteByDate removes entries whose saved_at starts with the given date.
// Entries with malformed or differently dated saved_at stay untouched.
func (s *BoltFavoriteStore) DeleteByDate(user, date string) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(favoritesBucket).Bucket([]byte(user))
		if bucket == nil {
			return nil
		}

		var keys [][]byte
		err := bucket.ForEach(func(key, data []byte) error {
			var favorite domain.Favorite
			if err := json.Unmarshal(data, &favorite); err != nil {
				return nil
			}
			if strings.HasPrefix(favorite.SavedAt, date) {
				keys = append(keys, append([]byte(nil), key...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, key := range keys {
			if err := bucket.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("delete favorites by date: %w", err)
	}
	return removed, nil
}
