package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/iudanet/gophblog/pkg/api"
)

func (c *Cli) runPosts(ctx context.Context, args []string) error {
	fs := newFlagSet("posts")
	limit := fs.Int("limit", 0, "page size")
	offset := fs.Int("offset", 0, "page offset")
	sort := fs.String("sort", "", "asc or desc")
	if err := parse(fs, args); err != nil {
		return err
	}

	page, err := c.api.ListPosts(ctx, *limit, *offset, *sort)
	if err != nil {
		return err
	}

	if len(page.Posts) == 0 {
		c.io.Println("No posts.")
		return nil
	}
	for _, p := range page.Posts {
		c.io.Printf("%s  %s  %s\n", p.ID, p.CreatedAt.Format(time.DateTime), p.Title)
	}
	return nil
}

func (c *Cli) runPost(ctx context.Context, args []string) error {
	id, err := singleArg("post", args)
	if err != nil {
		return err
	}

	post, err := c.api.GetPost(ctx, id)
	if err != nil {
		return err
	}

	c.io.Printf("# %s\n", post.Title)
	c.io.Printf("id=%s author=%s created=%s\n\n", post.ID, post.AuthorID, post.CreatedAt.Format(time.DateTime))
	c.io.Println(post.Content)

	comments, err := c.api.ListComments(ctx, id, 0, 0, "asc")
	if err != nil {
		return err
	}
	if len(comments.Comments) > 0 {
		c.io.Println()
		c.io.Println("Comments:")
		c.printComments(comments.Comments)
	}
	return nil
}

func (c *Cli) runPublish(ctx context.Context, args []string) error {
	fs := newFlagSet("publish")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	if err := parse(fs, args); err != nil {
		return err
	}

	if *content == "" {
		text, err := c.io.ReadInput("Content: ")
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		*content = text
	}

	var post *api.PostResponse
	err := c.auth.WithToken(ctx, func(token string) error {
		var err error
		post, err = c.api.CreatePost(ctx, token, api.PostRequest{Title: *title, Content: *content})
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Post published: %s\n", post.ID)
	return nil
}

func (c *Cli) runEdit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: edit requires a post id", ErrUsage)
	}
	id := args[0]

	fs := newFlagSet("edit")
	title := fs.String("title", "", "post title")
	content := fs.String("content", "", "post content")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	var post *api.PostResponse
	err := c.auth.WithToken(ctx, func(token string) error {
		var err error
		post, err = c.api.UpdatePost(ctx, token, id, api.PostRequest{Title: *title, Content: *content})
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Post updated: %s\n", post.ID)
	return nil
}

func (c *Cli) runDeletePost(ctx context.Context, args []string) error {
	id, err := singleArg("delete-post", args)
	if err != nil {
		return err
	}

	var removal *api.DeleteResponse
	err = c.auth.WithToken(ctx, func(token string) error {
		var err error
		removal, err = c.api.DeletePost(ctx, token, id)
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Post deleted with %d comment(s)\n", removal.CommentsDeleted)
	return nil
}
