package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var (
	titleColor  = color.New(color.FgCyan, color.Bold)
	streakColor = color.New(color.FgGreen, color.Bold)
	mutedColor  = color.New(color.FgHiBlack)
)

var summaryCmd = &cobra.Command{
	Use:   "summary <username>",
	Short: "Print a profile, activity and language summary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		profile, err := a.profiles.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		dashboard, err := a.profiles.BuildDashboard(cmd.Context(), profile)
		if err != nil {
			return err
		}

		return printSummary(os.Stdout, dashboard)
	},
}

// printSummary writes the dashboard as a header followed by three tables.
func printSummary(w io.Writer, d *models.Dashboard) error {
	if d.User != nil {
		fmt.Fprintln(w, titleColor.Sprint(d.User.DisplayName()), mutedColor.Sprint("@"+d.User.Login))
		if d.User.Bio != "" {
			fmt.Fprintln(w, d.User.Bio)
		}
		fmt.Fprintf(w, "%d repositories, %d followers, %d following, %d stars\n\n",
			d.User.PublicRepos, d.User.Followers, d.User.Following, d.TotalStars)
	}

	summary := d.Contributions.Summary
	fmt.Fprintf(w, "%s contributions in the last year, current streak %s, longest streak %s\n\n",
		streakColor.Sprint(summary.TotalContributions),
		streakColor.Sprintf("%d days", summary.CurrentStreak),
		streakColor.Sprintf("%d days", summary.LongestStreak))

	if err := printRepositories(w, d.TopRepositories); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := printLanguages(w, d.Languages); err != nil {
		return err
	}
	fmt.Fprintln(w)
	return printMonths(w, summary.ContributionsByMonth)
}

func printRepositories(w io.Writer, repos []*models.Repository) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Repository", "Language", "Stars", "Forks"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})

	var data [][]string
	for _, repo := range repos {
		data = append(data, []string{
			repo.Name,
			repo.PrimaryLanguage(),
			strconv.Itoa(repo.Stars),
			strconv.Itoa(repo.Forks),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printLanguages(w io.Writer, languages []models.LanguageEntry) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Language", "Bytes", "Share"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, lang := range languages {
		data = append(data, []string{
			lang.Name,
			strconv.FormatInt(lang.Value, 10),
			fmt.Sprintf("%.1f%%", lang.Percentage),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func printMonths(w io.Writer, months []models.MonthlyContributions) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Month", "Contributions"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, m := range months {
		data = append(data, []string{m.Month, strconv.Itoa(m.Contributions)})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
