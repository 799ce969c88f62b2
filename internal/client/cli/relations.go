package cli

import (
	"context"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/spf13/cobra"
)

// toggleFunc is one of the favorite or tag calls of the client.
type toggleFunc func(ctx context.Context, a *App, articleID int64, args []string) (*api.Article, error)

// toggleCmd builds a command whose first argument is an article id.
func (r *root) toggleCmd(use, short string, nargs int, fn toggleFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(nargs),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			id, err := parseArticleID(args[0])
			if err != nil {
				return err
			}
			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			art, err := fn(ctx, a, id, args[1:])
			if err != nil {
				return a.unauthorized(err)
			}
			return a.printArticle(art)
		}),
	}
}

func (r *root) newFavoriteCmd() *cobra.Command {
	return r.toggleCmd("favorite <article-id>", "Favorite an article", 1,
		func(ctx context.Context, a *App, id int64, _ []string) (*api.Article, error) {
			return a.client.Favorite(ctx, id)
		})
}

func (r *root) newUnfavoriteCmd() *cobra.Command {
	return r.toggleCmd("unfavorite <article-id>", "Remove an article from favorites", 1,
		func(ctx context.Context, a *App, id int64, _ []string) (*api.Article, error) {
			return a.client.Unfavorite(ctx, id)
		})
}

func (r *root) newTagCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Attach or detach tags",
	}
	cmd.AddCommand(
		r.toggleCmd("add <article-id> <tag>", "Attach a tag to an article", 2,
			func(ctx context.Context, a *App, id int64, args []string) (*api.Article, error) {
				return a.client.AddTag(ctx, id, args[0])
			}),
		r.toggleCmd("remove <article-id> <tag>", "Detach a tag from an article", 2,
			func(ctx context.Context, a *App, id int64, args []string) (*api.Article, error) {
				return a.client.RemoveTag(ctx, id, args[0])
			}),
	)
	return cmd
}

func (r *root) newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			tags, err := a.client.ListTags(ctx)
			if err != nil {
				return err
			}
			return a.printTags(tags)
		}),
	}
}
