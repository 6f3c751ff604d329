// Package dashboard builds the role-based navigation of the portal.
package dashboard

import (
	"github.com/trezcool/classbook/core"
	"github.com/trezcool/classbook/core/catalog"
	"github.com/trezcool/classbook/core/user"
)

type MenuID string

const (
	MenuDashboard         MenuID = "dashboard"
	MenuLearningResources MenuID = "learning-resources"
	MenuAssessments       MenuID = "assessments"
	MenuLessonPlans       MenuID = "lesson-plans"
	MenuReports           MenuID = "reports"
)

type MenuItem struct {
	ID    MenuID `json:"id"`
	Label string `json:"label"`
}

var menu = []MenuItem{
	{ID: MenuDashboard, Label: "Dashboard"},
	{ID: MenuLearningResources, Label: "Learning Resources"},
	{ID: MenuAssessments, Label: "Assessments"},
	{ID: MenuLessonPlans, Label: "Lesson Plans"},
	{ID: MenuReports, Label: "Reports"},
}

// Menu returns the sidebar entries of role. Lesson plans are for teachers only.
func Menu(role user.Role) []MenuItem {
	items := make([]MenuItem, 0, len(menu))
	for _, item := range menu {
		if item.ID == MenuLessonPlans && role != user.RoleTeacher {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Tile is a parent dashboard shortcut into a ward's student view.
type Tile string

const (
	TileEbook             Tile = "ebook"
	TileLearningResources Tile = "learning-resources"
	TileAssessments       Tile = "assessments"
	TileReports           Tile = "reports"
)

type TileItem struct {
	ID    Tile   `json:"id"`
	Label string `json:"label"`
}

var tiles = []TileItem{
	{ID: TileEbook, Label: "eBook"},
	{ID: TileLearningResources, Label: "Learning Resources"},
	{ID: TileAssessments, Label: "Assessments"},
	{ID: TileReports, Label: "Reports"},
}

func Tiles() []TileItem {
	return append([]TileItem(nil), tiles...)
}

func IsTile(t Tile) bool {
	for _, item := range tiles {
		if item.ID == t {
			return true
		}
	}
	return false
}

func ParseTile(s string) (Tile, bool) {
	t := Tile(core.CleanString(s, true /* lower */))
	return t, IsTile(t)
}

// Dashboard is the landing data of one role.
type Dashboard struct {
	Role              user.Role          `json:"role"`
	Menu              []MenuItem         `json:"menu"`
	Tiles             []TileItem         `json:"tiles,omitempty"`
	Classes           []catalog.Class    `json:"classes"`
	Subjects          []catalog.Subject  `json:"subjects"`
	AssessmentClasses []catalog.Class    `json:"assessment_classes,omitempty"`
	Activities        []catalog.Activity `json:"activities,omitempty"`
}

// For builds the dashboard of role from cat. Teachers also get the assessment panel data;
// parents get the ward tiles.
func For(role user.Role, cat *catalog.Catalog) Dashboard {
	d := Dashboard{
		Role:     role,
		Menu:     Menu(role),
		Classes:  cat.Classes,
		Subjects: cat.Subjects,
	}
	switch role {
	case user.RoleTeacher:
		d.AssessmentClasses = cat.AssessmentClasses
		d.Activities = cat.Activities
	case user.RoleParent:
		d.Tiles = Tiles()
	}
	return d
}
