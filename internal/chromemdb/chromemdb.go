package chromemdb

import (
	"context"
	"fmt"
	"time"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"profile-qa/internal/models"
)

const compress = false

// RecordStore appends question/answer records to a chromem-go collection.
// Documents are embedded through the collection's embedding function.
type RecordStore struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewRecordStore opens a persistent DB at dbPath, or an in-memory one when
// dbPath is empty.
func NewRecordStore(dbPath, collectionName string, embed chromem.EmbeddingFunc) (*RecordStore, error) {
	var db *chromem.DB
	var err error
	if dbPath == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %v", err)
		}
	}

	c, err := db.GetOrCreateCollection(collectionName, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %v", err)
	}
	log.Debug().Str("path", dbPath).Str("collection", collectionName).Int("records", c.Count()).Msg("Opened record collection")

	return &RecordStore{db: db, collection: c}, nil
}

func (s *RecordStore) StoreRecord(ctx context.Context, rec models.Record) error {
	doc := chromem.Document{
		ID:      rec.RequestID,
		Content: rec.Question + "\n" + rec.Answer,
		Metadata: map[string]string{
			"username":   rec.Username,
			"question":   rec.Question,
			"created_at": rec.CreatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := s.collection.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to add document: %v", err)
	}
	return nil
}

func (s *RecordStore) Count() int {
	return s.collection.Count()
}
