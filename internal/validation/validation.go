package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is wrapped by every validation failure
var ErrInvalidInput = errors.New("invalid input")

const (
	// MinPasswordLen минимальная длина пароля
	MinPasswordLen = 8
	// MaxEmailLen максимальная длина email
	MaxEmailLen = 254
	// MaxTitleLen максимальная длина заголовка поста
	MaxTitleLen = 100
	// MaxContentLen максимальная длина текста поста или комментария
	MaxContentLen = 50000
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// NormalizeEmail приводит email к каноническому виду (trim + lower-case)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail проверяет формат email
func ValidateEmail(email string) error {
	if email == "" {
		return invalid("email cannot be empty")
	}

	if len(email) > MaxEmailLen {
		return invalid("email must not exceed %d characters", MaxEmailLen)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not a valid address")
	}

	return nil
}

// ValidatePassword проверяет минимальные требования к паролю
// Минимум 8 символов
func ValidatePassword(password string) error {
	if password == "" {
		return invalid("password cannot be empty")
	}

	if utf8.RuneCountInString(password) < MinPasswordLen {
		return invalid("password must be at least %d characters long", MinPasswordLen)
	}

	return nil
}

// RegisterInput входные данные регистрации
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// ValidateRegister проверяет данные регистрации.
// Email должен быть уже нормализован через NormalizeEmail.
func ValidateRegister(in RegisterInput) error {
	if err := ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.ConfirmPassword {
		return invalid("passwords do not match")
	}
	return nil
}

// PostInput входные данные создания/обновления поста (после trim)
type PostInput struct {
	Title   string
	Content string
}

// ValidatePost проверяет заголовок и текст поста
func ValidatePost(in PostInput) error {
	if in.Title == "" {
		return invalid("title cannot be empty")
	}
	if utf8.RuneCountInString(in.Title) > MaxTitleLen {
		return invalid("title must not exceed %d characters", MaxTitleLen)
	}
	return ValidateContent(in.Content)
}

// ValidateContent проверяет текст поста или комментария
func ValidateContent(content string) error {
	if content == "" {
		return invalid("content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return invalid("content must not exceed %d characters", MaxContentLen)
	}
	return nil
}

// CommentInput входные данные создания комментария.
// Должен быть указан PostID или ParentCommentID.
type CommentInput struct {
	PostID          string
	ParentCommentID string
	Content         string
}

// ValidateComment проверяет данные комментария
func ValidateComment(in CommentInput) error {
	if in.PostID == "" && in.ParentCommentID == "" {
		return invalid("either post_id or parent_comment_id is required")
	}
	return ValidateContent(in.Content)
}

const (
	// DefaultPageLimit размер страницы по умолчанию
	DefaultPageLimit = 10
	// MaxPageLimit максимальный размер страницы
	MaxPageLimit = 50
)

// Page параметры пагинации
type Page struct {
	Limit  int
	Offset int
	Desc   bool
}

// NormalizePage применяет значения по умолчанию и проверяет границы
func NormalizePage(limit, offset int, sort string) (Page, error) {
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > MaxPageLimit {
		return Page{}, invalid("limit must be between 1 and %d", MaxPageLimit)
	}
	if offset < 0 {
		return Page{}, invalid("offset cannot be negative")
	}

	page := Page{Limit: limit, Offset: offset, Desc: true}
	switch strings.ToLower(sort) {
	case "", "desc":
	case "asc":
		page.Desc = false
	default:
		return Page{}, invalid("sort must be asc or desc")
	}

	return page, nil
}
