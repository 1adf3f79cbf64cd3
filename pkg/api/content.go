package api

import "time"

// PostRequest создание или обновление поста
type PostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// PostResponse пост в ответе API
type PostResponse struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
}

// PostListResponse страница постов
type PostListResponse struct {
	Posts  []PostResponse `json:"posts"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// CommentRequest создание комментария: к посту (post_id) или ответ (parent_comment_id)
type CommentRequest struct {
	PostID          string `json:"post_id,omitempty"`
	ParentCommentID string `json:"parent_comment_id,omitempty"`
	Content         string `json:"content"`
}

// CommentResponse комментарий в ответе API
type CommentResponse struct {
	CreatedAt       time.Time `json:"created_at"`
	ParentCommentID *string   `json:"parent_comment_id,omitempty"`
	ID              string    `json:"id"`
	AuthorID        string    `json:"author_id"`
	PostID          string    `json:"post_id"`
	Content         string    `json:"content"`
}

// CommentListResponse страница комментариев поста
type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// DeleteResponse результат каскадного удаления
type DeleteResponse struct {
	DeletedIDs      []string `json:"deleted_ids"`
	CommentsDeleted int      `json:"comments_deleted"`
}

// SearchHit один результат поиска
type SearchHit struct {
	ID              string  `json:"id"`
	Kind            string  `json:"kind"`
	Title           string  `json:"title,omitempty"`
	Content         string  `json:"content"`
	PostID          string  `json:"post_id,omitempty"`
	ParentCommentID string  `json:"parent_comment_id,omitempty"`
	AuthorID        string  `json:"author_id"`
	AuthorName      string  `json:"author_name"`
	Cursor          string  `json:"cursor"`
	Score           float64 `json:"score"`
}

// SearchResponse страница результатов поиска
type SearchResponse struct {
	Next string      `json:"next,omitempty"` // передается как after для следующей страницы
	Hits []SearchHit `json:"hits"`
}
