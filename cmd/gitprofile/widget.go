package main

import (
	"fmt"
	"os"

	"github.com/alimgiray/gitprofile/internal/services"
	"github.com/spf13/cobra"
)

var widgetOpts struct {
	out   string
	theme string
	color string
	repo  string
}

var widgetCmd = &cobra.Command{
	Use:   "widget <profile|repository|language-stats> <username>",
	Short: "Render a 600x200 PNG widget.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := services.ParseWidgetKind(args[0])
		if err != nil {
			return err
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		img, err := a.widgets.Render(cmd.Context(), kind, args[1], services.WidgetOptions{
			Theme: widgetOpts.theme,
			Color: widgetOpts.color,
			Repo:  widgetOpts.repo,
		})
		if err != nil {
			return err
		}

		out := widgetOpts.out
		if out == "" {
			out = fmt.Sprintf("%s-%s.png", args[1], kind)
		}
		if err := os.WriteFile(out, img, 0o644); err != nil {
			return fmt.Errorf("could not write widget: %w", err)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return err
	},
}

func init() {
	widgetCmd.Flags().StringVarP(&widgetOpts.out, "out", "o", "", "output file (default <username>-<kind>.png)")
	widgetCmd.Flags().StringVar(&widgetOpts.theme, "theme", "light", "light or dark")
	widgetCmd.Flags().StringVar(&widgetOpts.color, "color", services.DefaultWidgetColor, "accent color")
	widgetCmd.Flags().StringVar(&widgetOpts.repo, "repo", "", "repository shown by the repository widget")
}
