// Package cli implements the gophblog command line client commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/iudanet/gophblog/internal/client/iocli"
	"github.com/iudanet/gophblog/internal/client/storage"
	"github.com/iudanet/gophblog/pkg/api"
)

// ErrUsage неверные аргументы команды
var ErrUsage = errors.New("invalid usage")

// Session клиентская сессия (internal/client/auth.Service)
type Session interface {
	Register(ctx context.Context, email, password, confirm string) (*api.UserResponse, error)
	Login(ctx context.Context, email, password string) (*storage.AuthData, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (*storage.AuthData, error)
	WithToken(ctx context.Context, fn func(accessToken string) error) error
}

// BlogAPI методы сервера для работы с контентом (internal/client/api.Client)
type BlogAPI interface {
	Me(ctx context.Context, accessToken string) (*api.UserResponse, error)
	ListPosts(ctx context.Context, limit, offset int, sort string) (*api.PostListResponse, error)
	GetPost(ctx context.Context, postID string) (*api.PostResponse, error)
	CreatePost(ctx context.Context, accessToken string, req api.PostRequest) (*api.PostResponse, error)
	UpdatePost(ctx context.Context, accessToken, postID string, req api.PostRequest) (*api.PostResponse, error)
	DeletePost(ctx context.Context, accessToken, postID string) (*api.DeleteResponse, error)
	ListComments(ctx context.Context, postID string, limit, offset int, sort string) (*api.CommentListResponse, error)
	CreateComment(ctx context.Context, accessToken string, req api.CommentRequest) (*api.CommentResponse, error)
	DeleteComment(ctx context.Context, accessToken, commentID string) (*api.DeleteResponse, error)
	Search(ctx context.Context, query string, size int, after string) (*api.SearchResponse, error)
}

// Cli выполняет команды клиента
type Cli struct {
	io   iocli.IO
	auth Session
	api  BlogAPI
}

// New creates CLI with the given IO, session and API client
func New(io iocli.IO, auth Session, api BlogAPI) *Cli {
	return &Cli{io: io, auth: auth, api: api}
}

// Run выполняет команду с аргументами
func (c *Cli) Run(ctx context.Context, command string, args []string) error {
	switch command {
	case "register":
		return c.runRegister(ctx)
	case "login":
		return c.runLogin(ctx)
	case "logout":
		return c.runLogout(ctx)
	case "status":
		return c.runStatus(ctx)
	case "whoami":
		return c.runWhoami(ctx)
	case "posts":
		return c.runPosts(ctx, args)
	case "post":
		return c.runPost(ctx, args)
	case "publish":
		return c.runPublish(ctx, args)
	case "edit":
		return c.runEdit(ctx, args)
	case "delete-post":
		return c.runDeletePost(ctx, args)
	case "comments":
		return c.runComments(ctx, args)
	case "comment":
		return c.runComment(ctx, args)
	case "delete-comment":
		return c.runDeleteComment(ctx, args)
	case "search":
		return c.runSearch(ctx, args)
	case "help":
		PrintUsage(c.io)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", ErrUsage, command)
	}
}

// PrintUsage печатает справку по командам
func PrintUsage(out iocli.IO) {
	out.Println("Gophblog Client")
	out.Println()
	out.Println("Usage:")
	out.Println("  gophblog [OPTIONS] COMMAND [ARGS]")
	out.Println()
	out.Println("Options:")
	out.Println("  --version        Show version information")
	out.Println("  --server URL     Server URL (default: http://localhost:8080)")
	out.Println("  --db PATH        Path to local session file (default: gophblog-client.db)")
	out.Println()
	out.Println("Commands:")
	out.Println("  register                          Register new user")
	out.Println("  login                             Login to server")
	out.Println("  logout                            Logout and revoke the session")
	out.Println("  status                            Show local session")
	out.Println("  whoami                            Show profile from server")
	out.Println("  posts [--limit N] [--offset N] [--sort asc|desc]")
	out.Println("  post <id>                         Show post with comments")
	out.Println("  publish --title T [--content C]   Create post (content prompted if omitted)")
	out.Println("  edit <id> --title T --content C   Update own post")
	out.Println("  delete-post <id>                  Delete own post and its comments")
	out.Println("  comments <post-id> [--limit N] [--offset N] [--sort asc|desc]")
	out.Println("  comment (--post ID | --reply ID) TEXT")
	out.Println("  delete-comment <id>               Delete own comment and all replies")
	out.Println("  search [--size N] [--after CURSOR] QUERY")
}

// newFlagSet набор флагов команды, ошибки разбора возвращаются как ErrUsage
func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUsage, fs.Name(), err)
	}
	return nil
}

// singleArg возвращает единственный позиционный аргумент (обычно ID)
func singleArg(command string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s requires exactly one argument", ErrUsage, command)
	}
	return args[0], nil
}
