package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

func ToCSV(sessions []store.TimerSession, projects map[string]store.Project, categories map[string]store.Category, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Project", "Category", "Type", "Start", "End", "Planned (min)", "Actual (min)", "Completed"}); err != nil {
		return err
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}

		row := []string{
			s.ID,
			projectName(projects, s.ProjectID),
			categoryName(categories, s.CategoryID),
			s.Type,
			s.StartTime.Local().Format(time.RFC3339),
			endStr,
			formatMinutes(s.PlannedMs),
			formatMinutes(s.ActualMs),
			fmt.Sprintf("%t", s.Completed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func projectName(projects map[string]store.Project, id string) string {
	if p, ok := projects[id]; ok {
		return p.Name
	}
	return "Unknown"
}

func categoryName(categories map[string]store.Category, id string) string {
	if c, ok := categories[id]; ok {
		return c.Name
	}
	return "Unknown"
}

func formatMinutes(ms int64) string {
	return fmt.Sprintf("%.1f", float64(ms)/60000)
}
