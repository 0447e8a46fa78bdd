package services

import (
	"bytes"
	"fmt"

	"github.com/alimgiray/gitprofile/internal/models"
	"github.com/xuri/excelize/v2"
)

// Sheet names of the exported workbook.
const (
	SheetProfile       = "Profile"
	SheetRepositories  = "Repositories"
	SheetLanguages     = "Languages"
	SheetContributions = "Contributions"
	SheetMonthly       = "Monthly"
)

// ExportService writes dashboards as XLSX workbooks.
type ExportService struct{}

func NewExportService() *ExportService {
	return &ExportService{}
}

// Workbook renders the dashboard into a workbook with one sheet per section.
func (s *ExportService) Workbook(dashboard *models.Dashboard) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetProfile); err != nil {
		return nil, fmt.Errorf("failed to rename default sheet: %w", err)
	}
	for _, name := range []string{SheetRepositories, SheetLanguages, SheetContributions, SheetMonthly} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	w := &sheetWriter{f: f, headerStyle: headerStyle}
	w.profile(dashboard)
	w.repositories(dashboard.TopRepositories)
	w.languages(dashboard.Languages)
	w.contributions(dashboard.Contributions.Days)
	w.monthly(dashboard.Contributions.Summary.ContributionsByMonth)
	if w.err != nil {
		return nil, w.err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf, nil
}

// sheetWriter keeps the first error so the section writers stay linear.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
	err         error
}

func (w *sheetWriter) row(sheet string, n int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, n, err)
	}
}

func (w *sheetWriter) header(sheet string, width float64, values ...interface{}) {
	w.row(sheet, 1, values...)
	if w.err != nil {
		return
	}

	lastCol, err := excelize.ColumnNumberToName(len(values))
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetRowStyle(sheet, 1, 1, w.headerStyle); err != nil {
		w.err = err
		return
	}
	if err := w.f.SetColWidth(sheet, "A", lastCol, width); err != nil {
		w.err = err
	}
}

func (w *sheetWriter) profile(d *models.Dashboard) {
	w.header(SheetProfile, 22, "Field", "Value")

	rows := [][]interface{}{}
	if user := d.User; user != nil {
		rows = append(rows,
			[]interface{}{"Login", user.Login},
			[]interface{}{"Name", user.DisplayName()},
			[]interface{}{"Bio", user.Bio},
			[]interface{}{"Public repositories", user.PublicRepos},
			[]interface{}{"Followers", user.Followers},
			[]interface{}{"Following", user.Following},
		)
		if user.Company != nil {
			rows = append(rows, []interface{}{"Company", *user.Company})
		}
		if user.Location != nil {
			rows = append(rows, []interface{}{"Location", *user.Location})
		}
		if !user.CreatedAt.IsZero() {
			rows = append(rows, []interface{}{"Member since", user.CreatedAt.Format(models.DateLayout)})
		}
	}

	summary := d.Contributions.Summary
	rows = append(rows,
		[]interface{}{"Total stars", d.TotalStars},
		[]interface{}{"Total contributions", summary.TotalContributions},
		[]interface{}{"Longest streak", summary.LongestStreak},
		[]interface{}{"Current streak", summary.CurrentStreak},
	)

	for i, r := range rows {
		w.row(SheetProfile, i+2, r...)
	}
}

func (w *sheetWriter) repositories(repos []*models.Repository) {
	w.header(SheetRepositories, 18, "Name", "Language", "Stars", "Forks", "Open issues", "Updated", "URL")
	for i, repo := range repos {
		w.row(SheetRepositories, i+2,
			repo.Name,
			repo.PrimaryLanguage(),
			repo.Stars,
			repo.Forks,
			repo.OpenIssues,
			repo.GithubUpdatedAt.Format(models.DateLayout),
			repo.HTMLURL,
		)
	}
}

func (w *sheetWriter) languages(entries []models.LanguageEntry) {
	w.header(SheetLanguages, 14, "Language", "Bytes", "Percentage", "Color")
	for i, entry := range entries {
		w.row(SheetLanguages, i+2, entry.Name, entry.Value, fmt.Sprintf("%.1f", entry.Percentage), entry.Color)
	}
}

func (w *sheetWriter) contributions(days []models.ContributionDay) {
	w.header(SheetContributions, 13, "Date", "Count", "Level", "Commits", "Pull requests", "Issues", "Reviews")
	for i, day := range days {
		w.row(SheetContributions, i+2,
			day.Date,
			day.Count,
			day.Level,
			day.Details.Commits,
			day.Details.PullRequests,
			day.Details.Issues,
			day.Details.Reviews,
		)
	}
}

func (w *sheetWriter) monthly(months []models.MonthlyContributions) {
	w.header(SheetMonthly, 14, "Month", "Contributions")
	for i, month := range months {
		w.row(SheetMonthly, i+2, month.Month, month.Contributions)
	}
}
