package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/iudanet/readshare/internal/client/iocli"
	"github.com/iudanet/readshare/internal/client/storage"
	"github.com/iudanet/readshare/pkg/api"
)

// ErrUnknownCommand возвращается для неизвестной команды
var ErrUnknownCommand = errors.New("unknown command")

// AuthService управляет локальной сессией
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*api.User, error)
	Login(ctx context.Context, email, password string) (*storage.Session, error)
	Logout(ctx context.Context) error
	Session(ctx context.Context) (*storage.Session, error)
}

// FeedClient выполняет авторизованные запросы к ленте
type FeedClient interface {
	Me(ctx context.Context) (*api.MeResponse, error)
	ListPosts(ctx context.Context, page, limit int) (*api.PostListResponse, error)
	CreatePost(ctx context.Context, req api.CreatePostRequest) (*api.Post, error)
	Like(ctx context.Context, postID string) (*api.LikeResponse, error)
	AddComment(ctx context.Context, postID, content string) (*api.Comment, error)
}

// Cli исполняет команды клиента
type Cli struct {
	io       iocli.IO
	auth     AuthService
	feed     FeedClient
	pageSize int
}

// New создает Cli
func New(console iocli.IO, auth AuthService, feed FeedClient) *Cli {
	return &Cli{
		io:       console,
		auth:     auth,
		feed:     feed,
		pageSize: 10,
	}
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
	case "feed":
		return c.runFeed(ctx, args)
	case "post":
		return c.runPost(ctx)
	case "like":
		return c.runLike(ctx, args)
	case "comment":
		return c.runComment(ctx, args)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}
}

// PrintUsage печатает справку
func PrintUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `ReadShare Client

Usage:
  readshare [OPTIONS] COMMAND [ARGS]

Options:
  --version          Show version information
  --server URL       Server URL (default: http://localhost:8080)
  --db PATH          Path to local session database (default: readshare-client.db)
  --scheme NAME      Authorization scheme, must match the server's AUTH_SCHEMES (default: Bearer)

Commands:
  register               Create a new account
  login                  Log in and save the session
  logout                 Revoke the session and delete it locally
  status                 Show local session status
  whoami                 Show your profile
  feed [page]            Show the feed, newest first
  post                   Share what you are reading
  like <post-id>         Like a post
  comment <post-id> <text>
                         Comment on a post

Examples:
  readshare register
  readshare --server https://readshare.example.com login
  readshare feed 2
  readshare comment 01HZX3K8Q2 "loved the ending"
`)
}
