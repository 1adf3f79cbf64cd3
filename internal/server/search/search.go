// Package search defines the secondary full-text index that mirrors posts and
// comments. The index is a non-authoritative projection of the primary store.
package search

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/iudanet/gophblog/internal/models"
)

var (
	// ErrDocumentNotFound indicates that document is not in the index
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidQuery indicates a malformed search request
	ErrInvalidQuery = errors.New("invalid search query")

	// ErrUnknownField indicates a QueryByField on a field that is not indexed
	ErrUnknownField = errors.New("unknown index field")
)

// Field имя поля с точным (keyword) индексом
type Field string

const (
	// FieldPostID индекс по post_id комментариев
	FieldPostID Field = "post_id"
	// FieldParentCommentID индекс по parent_comment_id комментариев
	FieldParentCommentID Field = "parent_comment_id"
)

// Fields lists every keyword-indexed field
var Fields = []Field{FieldPostID, FieldParentCommentID}

// Value returns the document value for the keyword field
func (f Field) Value(doc *models.SearchDocument) string {
	switch f {
	case FieldPostID:
		return doc.PostID
	case FieldParentCommentID:
		return doc.ParentCommentID
	}
	return ""
}

const (
	// DefaultSize размер страницы поиска по умолчанию
	DefaultSize = 10
	// MaxSize максимальный размер страницы поиска
	MaxSize = 50
	// PostBoost множитель релевантности постов относительно комментариев
	PostBoost = 2
)

// Query параметры полнотекстового поиска
type Query struct {
	Text  string // поисковая строка
	After string // курсор последнего результата предыдущей страницы
	Size  int    // размер страницы, 1..MaxSize
}

// Hit один результат поиска
type Hit struct {
	Document *models.SearchDocument `json:"document"`
	Cursor   string                 `json:"cursor"`
	Score    float64                `json:"score"`
}

// Result страница результатов поиска
type Result struct {
	Next string `json:"next,omitempty"` // курсор следующей страницы, пусто если страниц больше нет
	Hits []Hit  `json:"hits"`
}

// Index is the secondary search index collaborator
type Index interface {
	// Upsert indexes the document, replacing any previous version with the same ID
	Upsert(ctx context.Context, doc *models.SearchDocument) error

	// Get returns a document by ID
	// Returns ErrDocumentNotFound if document isn't indexed
	Get(ctx context.Context, id string) (*models.SearchDocument, error)

	// DeleteByIDs removes documents by ID, ignoring unknown IDs
	// Returns number of deleted documents
	DeleteByIDs(ctx context.Context, ids []string) (int, error)

	// QueryByField returns IDs of documents whose field equals any of values
	QueryByField(ctx context.Context, field Field, values []string) ([]string, error)

	// Search runs a full-text query over title, content and author name
	Search(ctx context.Context, q Query) (*Result, error)
}

// Tokenize разбивает текст на термы в нижнем регистре
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Terms returns term frequencies of the searchable fields of doc
func Terms(doc *models.SearchDocument) map[string]int {
	terms := make(map[string]int)
	for _, text := range []string{doc.Title, doc.Content, doc.Author.Name} {
		for _, term := range Tokenize(text) {
			terms[term]++
		}
	}
	return terms
}
