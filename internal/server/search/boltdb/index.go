// Package boltdb implements search.Index on top of an embedded BoltDB file.
package boltdb

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/search"
)

var (
	// BoltDB bucket names
	bucketDocuments = []byte("documents")
	bucketFields    = []byte("fields")
	bucketTerms     = []byte("terms")
)

// separator разделяет значение и ID документа в ключах индексов
const separator = 0x00

// Index is a BoltDB-backed search index
type Index struct {
	db *bbolt.DB
}

// Compile-time check
var _ search.Index = (*Index)(nil)

// New opens (or creates) the index file at dbPath
func New(ctx context.Context, dbPath string) (*Index, error) {
	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	idx := &Index{db: db}

	if err := idx.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}

	return idx, nil
}

// Close closes the database file
func (i *Index) Close() error {
	if i.db == nil {
		return nil
	}
	return i.db.Close()
}

// initBuckets создает необходимые buckets если они не существуют
func (i *Index) initBuckets() error {
	return i.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDocuments); err != nil {
			return fmt.Errorf("failed to create documents bucket: %w", err)
		}

		fields, err := tx.CreateBucketIfNotExists(bucketFields)
		if err != nil {
			return fmt.Errorf("failed to create fields bucket: %w", err)
		}
		// Отдельный вложенный bucket на каждое keyword поле
		for _, f := range search.Fields {
			if _, err := fields.CreateBucketIfNotExists([]byte(f)); err != nil {
				return fmt.Errorf("failed to create %s field bucket: %w", f, err)
			}
		}

		if _, err := tx.CreateBucketIfNotExists(bucketTerms); err != nil {
			return fmt.Errorf("failed to create terms bucket: %w", err)
		}

		return nil
	})
}

// Upsert indexes doc, replacing the previous version if any
func (i *Index) Upsert(ctx context.Context, doc *models.SearchDocument) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc == nil || doc.ID == "" {
		return fmt.Errorf("document id cannot be empty")
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	return i.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs == nil {
			return fmt.Errorf("documents bucket not found")
		}

		// Удаляем записи индексов старой версии документа
		if prev := docs.Get([]byte(doc.ID)); prev != nil {
			var old models.SearchDocument
			if err := json.Unmarshal(prev, &old); err != nil {
				return fmt.Errorf("failed to unmarshal document %s: %w", doc.ID, err)
			}
			if err := unindex(tx, &old); err != nil {
				return err
			}
		}

		if err := docs.Put([]byte(doc.ID), data); err != nil {
			return fmt.Errorf("failed to put document: %w", err)
		}

		return index(tx, doc)
	})
}

// Get returns an indexed document by ID
func (i *Index) Get(ctx context.Context, id string) (*models.SearchDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc models.SearchDocument
	err := i.db.View(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs == nil {
			return fmt.Errorf("documents bucket not found")
		}

		data := docs.Get([]byte(id))
		if data == nil {
			return search.ErrDocumentNotFound
		}

		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("failed to unmarshal document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

// DeleteByIDs removes documents by ID. Unknown IDs are ignored.
func (i *Index) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	deleted := 0
	err := i.db.Update(func(tx *bbolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		if docs == nil {
			return fmt.Errorf("documents bucket not found")
		}

		for _, id := range ids {
			data := docs.Get([]byte(id))
			if data == nil {
				continue
			}

			var doc models.SearchDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to unmarshal document %s: %w", id, err)
			}
			if err := unindex(tx, &doc); err != nil {
				return err
			}
			if err := docs.Delete([]byte(id)); err != nil {
				return fmt.Errorf("failed to delete document %s: %w", id, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return deleted, nil
}

// QueryByField returns IDs of documents whose field matches any of values
func (i *Index) QueryByField(ctx context.Context, field search.Field, values []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ids []string
	err := i.db.View(func(tx *bbolt.Tx) error {
		b, err := fieldBucket(tx, field)
		if err != nil {
			return err
		}

		c := b.Cursor()
		for _, value := range values {
			if value == "" {
				continue
			}
			prefix := key(value, "")
			for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
				ids = append(ids, string(k[len(prefix):]))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ids, nil
}

// Search runs a full-text query. Hits are sorted by score descending then by ID.
func (i *Index) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := q.Size
	if size == 0 {
		size = search.DefaultSize
	}
	if size < 0 || size > search.MaxSize {
		return nil, fmt.Errorf("%w: size must be between 1 and %d", search.ErrInvalidQuery, search.MaxSize)
	}

	terms := uniqueTerms(q.Text)
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: query text is empty", search.ErrInvalidQuery)
	}

	var after *position
	if q.After != "" {
		p, err := decodeCursor(q.After)
		if err != nil {
			return nil, err
		}
		after = &p
	}

	var hits []search.Hit
	err := i.db.View(func(tx *bbolt.Tx) error {
		termsBucket := tx.Bucket(bucketTerms)
		docs := tx.Bucket(bucketDocuments)
		if termsBucket == nil || docs == nil {
			return fmt.Errorf("index buckets not found")
		}

		// Суммируем частоты термов по документам
		counts := make(map[string]int)
		c := termsBucket.Cursor()
		for _, term := range terms {
			prefix := key(term, "")
			for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
				counts[string(k[len(prefix):])] += int(binary.BigEndian.Uint32(v))
			}
		}

		hits = make([]search.Hit, 0, len(counts))
		for id, count := range counts {
			data := docs.Get([]byte(id))
			if data == nil {
				continue
			}
			var doc models.SearchDocument
			if err := json.Unmarshal(data, &doc); err != nil {
				return fmt.Errorf("failed to unmarshal document %s: %w", id, err)
			}

			score := float64(count)
			if doc.Kind == models.KindPost {
				score *= search.PostBoost
			}
			hits = append(hits, search.Hit{Document: &doc, Score: score})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(hits, func(a, b int) bool {
		return less(position{score: hits[a].Score, id: hits[a].Document.ID},
			position{score: hits[b].Score, id: hits[b].Document.ID})
	})

	if after != nil {
		start := sort.Search(len(hits), func(n int) bool {
			return less(*after, position{score: hits[n].Score, id: hits[n].Document.ID})
		})
		hits = hits[start:]
	}

	result := &search.Result{Hits: hits}
	if len(hits) > size {
		result.Hits = hits[:size]
	}
	for n := range result.Hits {
		h := &result.Hits[n]
		h.Cursor = encodeCursor(position{score: h.Score, id: h.Document.ID})
	}
	if len(hits) > size {
		result.Next = result.Hits[size-1].Cursor
	}

	return result, nil
}

// index добавляет записи keyword и term индексов для doc
func index(tx *bbolt.Tx, doc *models.SearchDocument) error {
	for _, f := range search.Fields {
		value := f.Value(doc)
		if value == "" {
			continue
		}
		b, err := fieldBucket(tx, f)
		if err != nil {
			return err
		}
		if err := b.Put(key(value, doc.ID), []byte{}); err != nil {
			return fmt.Errorf("failed to index field %s: %w", f, err)
		}
	}

	terms := tx.Bucket(bucketTerms)
	if terms == nil {
		return fmt.Errorf("terms bucket not found")
	}
	for term, count := range search.Terms(doc) {
		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, uint32(count))
		if err := terms.Put(key(term, doc.ID), v); err != nil {
			return fmt.Errorf("failed to index term: %w", err)
		}
	}

	return nil
}

// unindex удаляет записи индексов, созданные index для doc
func unindex(tx *bbolt.Tx, doc *models.SearchDocument) error {
	for _, f := range search.Fields {
		value := f.Value(doc)
		if value == "" {
			continue
		}
		b, err := fieldBucket(tx, f)
		if err != nil {
			return err
		}
		if err := b.Delete(key(value, doc.ID)); err != nil {
			return fmt.Errorf("failed to unindex field %s: %w", f, err)
		}
	}

	terms := tx.Bucket(bucketTerms)
	if terms == nil {
		return fmt.Errorf("terms bucket not found")
	}
	for term := range search.Terms(doc) {
		if err := terms.Delete(key(term, doc.ID)); err != nil {
			return fmt.Errorf("failed to unindex term: %w", err)
		}
	}

	return nil
}

func fieldBucket(tx *bbolt.Tx, field search.Field) (*bbolt.Bucket, error) {
	fields := tx.Bucket(bucketFields)
	if fields == nil {
		return nil, fmt.Errorf("fields bucket not found")
	}
	b := fields.Bucket([]byte(field))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", search.ErrUnknownField, field)
	}
	return b, nil
}

// key собирает ключ индекса "value\x00id"
func key(value, id string) []byte {
	k := make([]byte, 0, len(value)+1+len(id))
	k = append(k, value...)
	k = append(k, separator)
	return append(k, id...)
}

func uniqueTerms(text string) []string {
	seen := make(map[string]struct{})
	var terms []string
	for _, t := range search.Tokenize(text) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// position место документа в выдаче
type position struct {
	id    string
	score float64
}

// less: score по убыванию, затем id по возрастанию
func less(a, b position) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	return a.id < b.id
}

func encodeCursor(p position) string {
	raw := strconv.FormatFloat(p.score, 'g', -1, 64) + ":" + p.id
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (position, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return position{}, fmt.Errorf("%w: malformed cursor", search.ErrInvalidQuery)
	}

	scorePart, id, ok := strings.Cut(string(raw), ":")
	if !ok || id == "" {
		return position{}, fmt.Errorf("%w: malformed cursor", search.ErrInvalidQuery)
	}

	score, err := strconv.ParseFloat(scorePart, 64)
	if err != nil {
		return position{}, fmt.Errorf("%w: malformed cursor", search.ErrInvalidQuery)
	}

	return position{score: score, id: id}, nil
}
