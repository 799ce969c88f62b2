package cli

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/spf13/cobra"
)

func (r *root) newArticleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "article",
		Aliases: []string{"articles"},
		Short:   "Create, read, update and delete articles",
	}
	cmd.AddCommand(
		r.newArticleCreateCmd(),
		r.newArticleGetCmd(),
		r.newArticleListCmd(),
		r.newArticleUpdateCmd(),
		r.newArticleDeleteCmd(),
	)
	return cmd
}

func (r *root) newArticleCreateCmd() *cobra.Command {
	req := &api.CreateArticleRequest{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish an article; title and body are prompted when not given",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			var err error
			if req.Title, err = a.promptIfEmpty(req.Title, "Enter title"); err != nil {
				return err
			}
			if req.Body == "" {
				if req.Body, err = PromptBody(a.reader, a.out, "Enter body"); err != nil {
					return err
				}
			}

			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			art, err := a.client.CreateArticle(ctx, req)
			if err != nil {
				return a.unauthorized(err)
			}
			return a.printArticle(art)
		}),
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "article title")
	cmd.Flags().StringVar(&req.Body, "body", "", "article body")
	cmd.Flags().StringVar(&req.Slug, "slug", "", "article slug, derived from the title when empty")
	cmd.Flags().StringSliceVar(&req.TagList, "tag", nil, "tag to attach, repeatable")
	return cmd
}

func (r *root) newArticleGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show an article",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			art, err := a.client.GetArticle(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printArticle(art)
		}),
	}
}

func (r *root) newArticleListCmd() *cobra.Command {
	req := &api.ListArticlesRequest{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List articles",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			resp, err := a.client.ListArticles(ctx, req)
			if err != nil {
				return err
			}
			return a.printArticles(resp)
		}),
	}

	cmd.Flags().StringVar(&req.Author, "author", "", "only articles by this username")
	cmd.Flags().StringVar(&req.Tag, "tag", "", "only articles with this tag")
	cmd.Flags().StringVar(&req.Favorited, "favorited", "", "only articles favorited by this username")
	cmd.Flags().IntVar(&req.Limit, "limit", 0, "page size, server default when 0")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "number of articles to skip")
	cmd.Flags().StringVar(&req.OrderBy, "order-by", "", "createdAt, updatedAt or title")
	cmd.Flags().StringVar(&req.Order, "order", "", "ASC or DESC")
	return cmd
}

func (r *root) newArticleUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <slug>",
		Short: "Change an article you authored; only the given flags are changed",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			req := &api.UpdateArticleRequest{
				Slug:    args[0],
				Title:   changed(cmd, "title"),
				Body:    changed(cmd, "body"),
				NewSlug: changed(cmd, "slug"),
			}
			if req.Title == nil && req.Body == nil && req.NewSlug == nil {
				return fmt.Errorf("nothing to update, pass at least one flag")
			}

			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			art, err := a.client.UpdateArticle(ctx, req)
			if err != nil {
				return a.unauthorized(err)
			}
			return a.printArticle(art)
		}),
	}

	cmd.Flags().String("title", "", "new title")
	cmd.Flags().String("body", "", "new body")
	cmd.Flags().String("slug", "", "new slug")
	return cmd
}

func (r *root) newArticleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an article you authored",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			if err := a.client.DeleteArticle(ctx, args[0]); err != nil {
				return a.unauthorized(err)
			}
			return a.printLine("Deleted %s", args[0])
		}),
	}
}

func parseArticleID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid article id %q", s)
	}
	return id, nil
}
