package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tomato/internal/store"
)

var projectColors = []string{"#E0544C", "#2EC4B6", "#6C63FF", "#F39C12", "#2ECC71", "#9B59B6", "#3498DB", "#E74C3C"}

// Product guard, not a data-layer invariant: the form refuses an 11th active
// project but the store itself doesn't care.
const maxActiveProjects = 10

type projectsModel struct {
	store  *store.Store
	width  int
	height int

	projects       []store.Project
	categories     []store.Category
	cursor         int
	categoryCursor int
	viewingCats    bool

	formActive bool
	form       *huh.Form
	formType   string // "project", "edit_project", "category", "delete"

	// Form field pointers (survive value copies)
	formName    *string
	formDesc    *string
	formColor   *string
	formConfirm *bool

	editingID string
}

func newProjectsModel(s *store.Store) projectsModel {
	name, desc, color := "", "", projectColors[0]
	confirm := false
	return projectsModel{
		store:       s,
		formName:    &name,
		formDesc:    &desc,
		formColor:   &color,
		formConfirm: &confirm,
	}
}

func (p *projectsModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type projectsDataMsg struct {
	projects []store.Project
}

type categoriesDataMsg struct {
	categories []store.Category
}

func (p projectsModel) refresh() tea.Cmd {
	return func() tea.Msg {
		projects, _ := p.store.ListProjects(false)
		return projectsDataMsg{projects: projects}
	}
}

func (p projectsModel) refreshCategories() tea.Cmd {
	if p.cursor >= len(p.projects) {
		return nil
	}
	pid := p.projects[p.cursor].ID
	return func() tea.Msg {
		categories, _ := p.store.ListCategories(pid)
		return categoriesDataMsg{categories: categories}
	}
}

func (p projectsModel) update(msg tea.Msg) (projectsModel, tea.Cmd) {
	if p.formActive && p.form != nil {
		return p.updateForm(msg)
	}

	switch msg := msg.(type) {
	case projectsDataMsg:
		p.projects = msg.projects
		if p.cursor >= len(p.projects) {
			p.cursor = max(0, len(p.projects)-1)
		}
		return p, nil

	case categoriesDataMsg:
		p.categories = msg.categories
		if p.categoryCursor >= len(p.categories) {
			p.categoryCursor = max(0, len(p.categories)-1)
		}
		return p, nil

	case tea.KeyMsg:
		if p.viewingCats {
			return p.updateCategoryList(msg)
		}
		return p.updateProjectList(msg)
	}
	return p, nil
}

func (p projectsModel) updateProjectList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(msg, keys.Down):
		if p.cursor < len(p.projects)-1 {
			p.cursor++
		}
	case key.Matches(msg, keys.Enter):
		if len(p.projects) > 0 {
			p.viewingCats = true
			p.categoryCursor = 0
			return p, p.refreshCategories()
		}
	case key.Matches(msg, keys.New):
		if len(p.projects) >= maxActiveProjects {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Limit of %d active projects reached — archive one first", maxActiveProjects), isError: true}
			}
		}
		return p.showProjectForm("project")
	case key.Matches(msg, keys.Edit):
		if len(p.projects) > 0 {
			return p.showProjectForm("edit_project")
		}
	case key.Matches(msg, keys.Delete):
		if len(p.projects) > 0 {
			return p.showDeleteForm()
		}
	}
	return p, nil
}

func (p projectsModel) updateCategoryList(msg tea.KeyMsg) (projectsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Back):
		p.viewingCats = false
		return p, nil
	case key.Matches(msg, keys.Up):
		if p.categoryCursor > 0 {
			p.categoryCursor--
		}
	case key.Matches(msg, keys.Down):
		if p.categoryCursor < len(p.categories)-1 {
			p.categoryCursor++
		}
	case key.Matches(msg, keys.New):
		return p.showCategoryForm()
	case key.Matches(msg, keys.Delete):
		if len(p.categories) > 0 {
			cat := p.categories[p.categoryCursor]
			if err := p.store.DeleteCategory(cat.ID); err != nil {
				return p, func() tea.Msg {
					return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
				}
			}
			return p, p.refreshCategories()
		}
	}
	return p, nil
}

func (p projectsModel) showProjectForm(formType string) (projectsModel, tea.Cmd) {
	*p.formName = ""
	*p.formDesc = ""
	*p.formColor = projectColors[0]
	if formType == "edit_project" {
		proj := p.projects[p.cursor]
		*p.formName = proj.Name
		*p.formDesc = proj.Description
		*p.formColor = proj.Color
		p.editingID = proj.ID
	}
	p.formType = formType

	colorOptions := make([]huh.Option[string], len(projectColors))
	for i, c := range projectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Project Name").Value(p.formName),
			huh.NewInput().Title("Description").Value(p.formDesc),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(p.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showCategoryForm() (projectsModel, tea.Cmd) {
	*p.formName = ""
	p.formType = "category"

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Category Name").Value(p.formName),
		),
	).WithShowHelp(true).WithShowErrors(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) showDeleteForm() (projectsModel, tea.Cmd) {
	proj := p.projects[p.cursor]
	*p.formConfirm = false
	p.formType = "delete"
	p.editingID = proj.ID

	p.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %q?", proj.Name)).
				Description("This removes its categories and every recorded session.").
				Value(p.formConfirm),
		),
	).WithShowHelp(true)

	p.formActive = true
	return p, p.form.Init()
}

func (p projectsModel) updateForm(msg tea.Msg) (projectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			p.formActive = false
			p.form = nil
			return p, nil
		}
	}

	form, cmd := p.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		p.form = f
	}

	if p.form.State == huh.StateCompleted {
		p.formActive = false
		return p.submitForm()
	}

	return p, cmd
}

func (p projectsModel) submitForm() (projectsModel, tea.Cmd) {
	switch p.formType {
	case "project":
		name := strings.TrimSpace(*p.formName)
		if name == "" {
			return p, func() tea.Msg {
				return statusMsg{text: "Project name cannot be empty", isError: true}
			}
		}
		if _, err := p.store.CreateProject(name, *p.formDesc, *p.formColor); err != nil {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return p, p.refresh()

	case "edit_project":
		if err := p.store.UpdateProject(p.editingID, strings.TrimSpace(*p.formName), *p.formDesc, *p.formColor); err != nil {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return p, p.refresh()

	case "category":
		name := strings.TrimSpace(*p.formName)
		if name == "" {
			return p, func() tea.Msg {
				return statusMsg{text: "Category name cannot be empty", isError: true}
			}
		}
		proj := p.projects[p.cursor]
		if _, err := p.store.CreateCategory(proj.ID, name); err != nil {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return p, p.refreshCategories()

	case "delete":
		if !*p.formConfirm {
			return p, nil
		}
		if err := p.store.DeleteProject(p.editingID); err != nil {
			return p, func() tea.Msg {
				return statusMsg{text: fmt.Sprintf("Error: %v", err), isError: true}
			}
		}
		return p, tea.Batch(p.refresh(), func() tea.Msg {
			return statusMsg{text: "Project deleted"}
		})
	}
	return p, nil
}

func (p projectsModel) view() string {
	w := p.width - 4

	if p.formActive && p.form != nil {
		title := titleStyle.Render("Projects")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", p.form.View()),
		)
	}

	if p.viewingCats {
		return p.categoriesView(w)
	}

	title := titleStyle.Render("Projects")
	var rows []string
	rows = append(rows, title, "")

	if len(p.projects) == 0 {
		rows = append(rows, mutedStyle.Render("  No projects. Press n to create one."))
	}
	for i, proj := range p.projects {
		cursor, style := "  ", normalItemStyle
		if i == p.cursor {
			cursor, style = "> ", selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(proj.Color)).Render("●")
		line := fmt.Sprintf("%s%s %s", style.Render(cursor), dot, style.Render(proj.Name))
		if proj.Description != "" {
			line += mutedStyle.Render("  — " + proj.Description)
		}
		rows = append(rows, line)
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  e: edit  d: delete  enter: categories"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (p projectsModel) categoriesView(w int) string {
	proj := p.projects[p.cursor]
	title := titleStyle.Render("Categories — " + proj.Name)

	var rows []string
	rows = append(rows, title, "")
	if len(p.categories) == 0 {
		rows = append(rows, mutedStyle.Render("  No categories. Press n to create one."))
	}
	for i, c := range p.categories {
		cursor, style := "  ", normalItemStyle
		if i == p.categoryCursor {
			cursor, style = "> ", selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+c.Name))
	}

	rows = append(rows, "", mutedStyle.Render("  n: new  d: delete  esc: back"))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
