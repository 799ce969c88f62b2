package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/conduit/internal/api"
)

func (a *App) printLine(format string, args ...any) error {
	_, err := fmt.Fprintf(a.out, format+"\n", args...)
	return err
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *App) printProfile(p *api.Profile) error {
	if a.jsonOut {
		return a.printJSON(p)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", p.ID)
	fmt.Fprintf(w, "Username:\t%s\n", p.Username)
	fmt.Fprintf(w, "Email:\t%s\n", p.Email)
	if p.Bio != "" {
		fmt.Fprintf(w, "Bio:\t%s\n", p.Bio)
	}
	if p.Image != "" {
		fmt.Fprintf(w, "Image:\t%s\n", p.Image)
	}
	return w.Flush()
}

func (a *App) printPublicProfile(p *api.PublicProfile) error {
	if a.jsonOut {
		return a.printJSON(p)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", p.ID)
	fmt.Fprintf(w, "Username:\t%s\n", p.Username)
	if p.Bio != "" {
		fmt.Fprintf(w, "Bio:\t%s\n", p.Bio)
	}
	if p.Image != "" {
		fmt.Fprintf(w, "Image:\t%s\n", p.Image)
	}
	return w.Flush()
}

func (a *App) printProfiles(resp *api.ListProfilesResponse) error {
	if a.jsonOut {
		return a.printJSON(resp)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tBIO")
	for _, p := range resp.Profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Username, p.Bio)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return a.printLine("%d of %d users", len(resp.Profiles), resp.Total)
}

func usernames(refs []api.UserRef) string {
	names := make([]string, 0, len(refs))
	for _, r := range refs {
		names = append(names, r.Username)
	}
	return strings.Join(names, ", ")
}

func (a *App) printArticle(art *api.Article) error {
	if a.jsonOut {
		return a.printJSON(art)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%d\n", art.ID)
	fmt.Fprintf(w, "Slug:\t%s\n", art.Slug)
	fmt.Fprintf(w, "Title:\t%s\n", art.Title)
	fmt.Fprintf(w, "Author:\t%s\n", art.Author.Username)
	fmt.Fprintf(w, "Tags:\t%s\n", strings.Join(art.TagList, ", "))
	fmt.Fprintf(w, "Favorites:\t%d\n", art.FavoritesCount)
	if len(art.FavoritedBy) > 0 {
		fmt.Fprintf(w, "Favorited by:\t%s\n", usernames(art.FavoritedBy))
	}
	fmt.Fprintf(w, "Updated:\t%s\n", art.UpdatedAt.Local().Format(time.DateTime))
	if err := w.Flush(); err != nil {
		return err
	}
	if art.Body != "" {
		return a.printLine("\n%s", art.Body)
	}
	return nil
}

func (a *App) printArticles(resp *api.ListArticlesResponse) error {
	if a.jsonOut {
		return a.printJSON(resp)
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tAUTHOR\tFAVORITES\tTAGS")
	for _, art := range resp.Articles {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			art.ID, art.Slug, art.Author.Username, art.FavoritesCount, strings.Join(art.TagList, ","))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return a.printLine("%d of %d articles", len(resp.Articles), resp.Total)
}

func (a *App) printTags(tags []string) error {
	if a.jsonOut {
		return a.printJSON(tags)
	}
	for _, t := range tags {
		if err := a.printLine("%s", t); err != nil {
			return err
		}
	}
	return nil
}
