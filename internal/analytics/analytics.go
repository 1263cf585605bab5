// Package analytics derives summary statistics from persisted timer
// sessions. Everything is recomputed from scratch on each call; there is no
// cached aggregation state.
package analytics

import (
	"sort"
	"time"

	"github.com/sadopc/tomato/internal/store"
)

// Summary is the read-side view over a set of sessions. Focus totals and
// breakdowns count work sessions only; counts and the completion rate cover
// every session type.
type Summary struct {
	TotalFocusMs   int64
	SessionCount   int
	CompletedCount int
	CompletionRate float64 // percent
	AvgSessionMs   int64

	Projects   []ProjectBreakdown
	Categories []CategoryBreakdown
	ByDay      []DayBucket
	ByHour     [24]int64 // focus ms per local hour of day
}

type ProjectBreakdown struct {
	ProjectID string
	Name      string
	Color     string
	TotalMs   int64
	Sessions  int
}

type CategoryBreakdown struct {
	CategoryID string
	ProjectID  string
	Name       string
	TotalMs    int64
	Sessions   int
}

type DayBucket struct {
	Date    string // YYYY-MM-DD, local time
	TotalMs int64
}

// Compute aggregates sessions into a Summary. The project and category maps
// supply display names; unknown ids still aggregate, under an empty name.
func Compute(sessions []store.TimerSession, projects map[string]store.Project, categories map[string]store.Category) Summary {
	var sum Summary
	sum.SessionCount = len(sessions)

	byProject := make(map[string]*ProjectBreakdown)
	byCategory := make(map[string]*CategoryBreakdown)
	byDay := make(map[string]int64)

	var totalActual int64
	for _, s := range sessions {
		totalActual += s.ActualMs
		if s.Completed {
			sum.CompletedCount++
		}
		if s.Type != store.SessionWork {
			continue
		}

		sum.TotalFocusMs += s.ActualMs

		pb, ok := byProject[s.ProjectID]
		if !ok {
			pb = &ProjectBreakdown{ProjectID: s.ProjectID}
			if p, ok := projects[s.ProjectID]; ok {
				pb.Name = p.Name
				pb.Color = p.Color
			}
			byProject[s.ProjectID] = pb
		}
		pb.TotalMs += s.ActualMs
		pb.Sessions++

		cb, ok := byCategory[s.CategoryID]
		if !ok {
			cb = &CategoryBreakdown{CategoryID: s.CategoryID, ProjectID: s.ProjectID}
			if c, ok := categories[s.CategoryID]; ok {
				cb.Name = c.Name
			}
			byCategory[s.CategoryID] = cb
		}
		cb.TotalMs += s.ActualMs
		cb.Sessions++

		local := s.StartTime.Local()
		byDay[local.Format("2006-01-02")] += s.ActualMs
		sum.ByHour[local.Hour()] += s.ActualMs
	}

	if sum.SessionCount > 0 {
		sum.CompletionRate = float64(sum.CompletedCount) / float64(sum.SessionCount) * 100
		sum.AvgSessionMs = totalActual / int64(sum.SessionCount)
	}

	for _, pb := range byProject {
		sum.Projects = append(sum.Projects, *pb)
	}
	sort.Slice(sum.Projects, func(i, j int) bool {
		if sum.Projects[i].TotalMs != sum.Projects[j].TotalMs {
			return sum.Projects[i].TotalMs > sum.Projects[j].TotalMs
		}
		return sum.Projects[i].Name < sum.Projects[j].Name
	})

	for _, cb := range byCategory {
		sum.Categories = append(sum.Categories, *cb)
	}
	sort.Slice(sum.Categories, func(i, j int) bool {
		if sum.Categories[i].TotalMs != sum.Categories[j].TotalMs {
			return sum.Categories[i].TotalMs > sum.Categories[j].TotalMs
		}
		return sum.Categories[i].Name < sum.Categories[j].Name
	})

	for date, ms := range byDay {
		sum.ByDay = append(sum.ByDay, DayBucket{Date: date, TotalMs: ms})
	}
	sort.Slice(sum.ByDay, func(i, j int) bool { return sum.ByDay[i].Date < sum.ByDay[j].Date })

	return sum
}

// Range loads sessions for [from, to) and computes their summary.
func Range(s *store.Store, from, to *time.Time) (Summary, error) {
	sessions, err := s.ListSessions(store.SessionFilter{From: from, To: to})
	if err != nil {
		return Summary{}, err
	}

	projects := make(map[string]store.Project)
	plist, err := s.ListProjects(true)
	if err != nil {
		return Summary{}, err
	}
	categories := make(map[string]store.Category)
	for _, p := range plist {
		projects[p.ID] = p
		clist, err := s.ListCategories(p.ID)
		if err != nil {
			return Summary{}, err
		}
		for _, c := range clist {
			categories[c.ID] = c
		}
	}

	return Compute(sessions, projects, categories), nil
}
