package cli

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/conduit/internal/api"
	"github.com/dmitrijs2005/conduit/internal/netx"
	"github.com/spf13/cobra"
)

func (r *root) newMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the logged in profile",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			p, err := a.client.Me(ctx)
			if err != nil {
				return a.unauthorized(err)
			}
			return a.printProfile(p)
		}),
	}
}

func (r *root) newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the profile",
	}
	cmd.AddCommand(
		r.newProfileGetCmd(),
		r.newProfileListCmd(),
		r.newProfileUpdateCmd(),
	)
	return cmd
}

func (r *root) newProfileGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <username|id>",
		Short: "Show another user's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			p, err := a.client.GetProfile(ctx, args[0])
			if err != nil {
				return err
			}
			return a.printPublicProfile(p)
		}),
	}
}

func (r *root) newProfileListCmd() *cobra.Command {
	req := &api.ListProfilesRequest{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			resp, err := a.client.ListProfiles(ctx, req)
			if err != nil {
				return err
			}
			return a.printProfiles(resp)
		}),
	}

	cmd.Flags().IntVar(&req.Limit, "limit", 0, "page size, server default when 0")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "number of users to skip")
	return cmd
}

// changed returns a pointer to the flag value when the flag was given.
func changed(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func (r *root) newProfileUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields; only the given flags are changed",
		Args:  cobra.NoArgs,
		RunE: r.run(func(a *App, cmd *cobra.Command, _ []string) error {
			req := &api.UpdateProfileRequest{
				Email:    changed(cmd, "email"),
				Username: changed(cmd, "username"),
				Bio:      changed(cmd, "bio"),
				Image:    changed(cmd, "image"),
			}
			if req.Email == nil && req.Username == nil && req.Bio == nil && req.Image == nil {
				return errors.New("nothing to update, pass at least one flag")
			}

			sess, err := a.authorize()
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			p, err := a.client.UpdateProfile(ctx, req)
			if err != nil {
				return a.unauthorized(err)
			}

			if sess.Email != p.Email || sess.Username != p.Username {
				sess.Email, sess.Username = p.Email, p.Username
				if err := a.sessions.Save(sess); err != nil {
					return err
				}
			}
			return a.printProfile(p)
		}),
	}

	cmd.Flags().String("email", "", "new email")
	cmd.Flags().String("username", "", "new username")
	cmd.Flags().String("bio", "", "new bio")
	cmd.Flags().String("image", "", "new image reference")
	return cmd
}

func (r *root) newAvatarCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avatar",
		Short: "Manage the profile avatar",
	}
	cmd.AddCommand(r.newAvatarUploadCmd())
	return cmd
}

// detectContentType prefers the file extension and falls back to sniffing.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err == nil {
			return mt
		}
	}
	return http.DetectContentType(data)
}

func (r *root) newAvatarUploadCmd() *cobra.Command {
	var contentType string

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and set it as the avatar",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(a *App, cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if contentType == "" {
				contentType = detectContentType(args[0], data)
			}

			if _, err := a.authorize(); err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			upload, err := a.client.AvatarUploadURL(ctx, contentType)
			if err != nil {
				return a.unauthorized(err)
			}

			if err := netx.UploadToPresignedURL(ctx, a.http, upload.URL, contentType, data); err != nil {
				return fmt.Errorf("upload avatar: %w", err)
			}

			p, err := a.client.UpdateProfile(ctx, &api.UpdateProfileRequest{Image: &upload.Key})
			if err != nil {
				return a.unauthorized(err)
			}
			return a.printProfile(p)
		}),
	}

	cmd.Flags().StringVar(&contentType, "content-type", "", "image content type, detected when empty")
	return cmd
}
