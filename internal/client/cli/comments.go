package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iudanet/gophblog/pkg/api"
)

func (c *Cli) runComments(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: comments requires a post id", ErrUsage)
	}
	postID := args[0]

	fs := newFlagSet("comments")
	limit := fs.Int("limit", 0, "page size")
	offset := fs.Int("offset", 0, "page offset")
	sort := fs.String("sort", "", "asc or desc")
	if err := parse(fs, args[1:]); err != nil {
		return err
	}

	page, err := c.api.ListComments(ctx, postID, *limit, *offset, *sort)
	if err != nil {
		return err
	}

	if len(page.Comments) == 0 {
		c.io.Println("No comments.")
		return nil
	}
	c.printComments(page.Comments)
	return nil
}

func (c *Cli) runComment(ctx context.Context, args []string) error {
	fs := newFlagSet("comment")
	postID := fs.String("post", "", "post id")
	replyTo := fs.String("reply", "", "parent comment id")
	if err := parse(fs, args); err != nil {
		return err
	}

	if (*postID == "") == (*replyTo == "") {
		return fmt.Errorf("%w: comment requires exactly one of --post or --reply", ErrUsage)
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		return fmt.Errorf("%w: comment text is empty", ErrUsage)
	}

	var comment *api.CommentResponse
	err := c.auth.WithToken(ctx, func(token string) error {
		var err error
		comment, err = c.api.CreateComment(ctx, token, api.CommentRequest{
			PostID:          *postID,
			ParentCommentID: *replyTo,
			Content:         text,
		})
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Comment added: %s\n", comment.ID)
	return nil
}

func (c *Cli) runDeleteComment(ctx context.Context, args []string) error {
	id, err := singleArg("delete-comment", args)
	if err != nil {
		return err
	}

	var removal *api.DeleteResponse
	err = c.auth.WithToken(ctx, func(token string) error {
		var err error
		removal, err = c.api.DeleteComment(ctx, token, id)
		return err
	})
	if err != nil {
		return err
	}

	c.io.Printf("✓ Deleted %d comment(s)\n", removal.CommentsDeleted)
	return nil
}

func (c *Cli) printComments(comments []api.CommentResponse) {
	for _, cm := range comments {
		reply := ""
		if cm.ParentCommentID != nil {
			reply = " ↳ " + *cm.ParentCommentID
		}
		c.io.Printf("- %s%s [%s] %s\n", cm.ID, reply, cm.CreatedAt.Format(time.DateTime), cm.Content)
	}
}
