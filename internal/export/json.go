package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	ID        string `json:"id"`
	Project   string `json:"project"`
	ProjectID string `json:"project_id"`
	Category  string `json:"category"`
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	PlannedMs int64  `json:"planned_ms"`
	ActualMs  int64  `json:"actual_ms"`
	Completed bool   `json:"completed"`
}

func ToJSON(sessions []store.TimerSession, projects map[string]store.Project, categories map[string]store.Category, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	for _, s := range sessions {
		endStr := ""
		if s.EndTime != nil {
			endStr = s.EndTime.Local().Format(time.RFC3339)
		}

		export.Sessions = append(export.Sessions, jsonSession{
			ID:        s.ID,
			Project:   projectName(projects, s.ProjectID),
			ProjectID: s.ProjectID,
			Category:  categoryName(categories, s.CategoryID),
			Type:      s.Type,
			StartTime: s.StartTime.Local().Format(time.RFC3339),
			EndTime:   endStr,
			PlannedMs: s.PlannedMs,
			ActualMs:  s.ActualMs,
			Completed: s.Completed,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
