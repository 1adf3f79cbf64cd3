package models

import "time"

// Post представляет пост в блоге
type Post struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`        // UUID поста
	AuthorID  string    `json:"author_id"` // ID автора
	Title     string    `json:"title"`     // заголовок (до 100 символов)
	Content   string    `json:"content"`   // текст поста
}

// Comment представляет комментарий к посту или ответ на другой комментарий.
// PostID всегда указывает на пост корня ветки, даже для вложенных ответов.
type Comment struct {
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty"` // nil для комментария верхнего уровня
	ID              string    `json:"id"`
	AuthorID        string    `json:"author_id"`
	PostID          string    `json:"post_id"`
	Content         string    `json:"content"`
}

// IsReply reports whether the comment answers another comment
func (c *Comment) IsReply() bool {
	return c.ParentCommentID != nil && *c.ParentCommentID != ""
}

// EntityKind определяет тип сущности контента
type EntityKind string

const (
	// KindPost пост
	KindPost EntityKind = "post"
	// KindComment комментарий
	KindComment EntityKind = "comment"
)

// SearchAuthor краткая информация об авторе внутри поискового документа
type SearchAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SearchDocument денормализованная проекция поста или комментария в поисковом индексе.
// Ключ документа совпадает с ID исходной сущности.
type SearchDocument struct {
	Author          SearchAuthor `json:"author"`
	ID              string       `json:"id"`
	Kind            EntityKind   `json:"kind"`
	Title           string       `json:"title,omitempty"`
	Content         string       `json:"content"`
	PostID          string       `json:"post_id,omitempty"`
	ParentCommentID string       `json:"parent_comment_id,omitempty"`
}

// PostDocument builds the search projection of a post
func PostDocument(p *Post, author *User) *SearchDocument {
	return &SearchDocument{
		ID:      p.ID,
		Kind:    KindPost,
		Title:   p.Title,
		Content: p.Content,
		Author:  SearchAuthor{ID: author.ID, Name: author.Name},
	}
}

// CommentDocument builds the search projection of a comment
func CommentDocument(c *Comment, author *User) *SearchDocument {
	doc := &SearchDocument{
		ID:      c.ID,
		Kind:    KindComment,
		Content: c.Content,
		PostID:  c.PostID,
		Author:  SearchAuthor{ID: author.ID, Name: author.Name},
	}
	if c.IsReply() {
		doc.ParentCommentID = *c.ParentCommentID
	}
	return doc
}
