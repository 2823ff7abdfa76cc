package main

import (
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"storefront/internal/gallery"
	"storefront/internal/tui"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Browse the photos of the page's product",
	Long: `Opens the interactive photo viewer for the product given by --page.
Thumbnails are selected with 1-9, arrows switch photos, enter or space opens
the full-screen viewer and esc closes it. Mouse drags work as swipes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := current.page.Product
		if p == nil {
			return errors.New("gallery needs --page with a product")
		}
		photos := make([]string, 0, len(p.Photos))
		for _, ph := range p.Photos {
			photos = append(photos, current.api.Resolve(ph))
		}
		g := gallery.New(photos)
		return tui.RunGallery(cmd.Context(), g, p.Title)
	},
}
