// Package render формирует HTML-страницу каталога.
//
// Все пользовательские поля проходят через html/template, поэтому
// имена и описания плагов экранируются в любом контексте.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lemiel/internal/model"
)

// FilterAll - значение фильтра для всех департаментов
const FilterAll = "all"

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer рендерит страницы каталога
type Renderer struct {
	tmpl *template.Template
}

// New разбирает встроенные шаблоны
func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"stars":  Stars,
		"rating": FormatRating,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// DepartmentOption - пункт фильтра департаментов
type DepartmentOption struct {
	Code     string
	Label    string
	Emoji    string
	Count    int
	Selected bool
}

// PlugCard - карточка плага на странице
type PlugCard struct {
	ID          int
	Name        string
	Emoji       string
	Image       string
	Description string
	Rating      float64
	Departments []string
	Handle      string
	ContactURL  string
}

// DirectoryPage - данные страницы каталога
type DirectoryPage struct {
	Title       string
	Selected    string
	AllSelected bool
	Departments []DepartmentOption
	Plugs       []PlugCard
}

// Directory рендерит страницу каталога
func (r *Renderer) Directory(w io.Writer, page DirectoryPage) error {
	return r.tmpl.ExecuteTemplate(w, "directory.html", page)
}

// BuildDirectoryPage собирает данные страницы из состояния каталога
func BuildDirectoryPage(departments []model.Department, counts map[string]int, plugs []model.Plug, selected string) DirectoryPage {
	if selected == "" {
		selected = FilterAll
	}

	page := DirectoryPage{
		Title:       "Lemiel",
		Selected:    selected,
		AllSelected: selected == FilterAll,
		Departments: make([]DepartmentOption, 0, len(departments)),
		Plugs:       make([]PlugCard, 0, len(plugs)),
	}

	for _, dept := range departments {
		page.Departments = append(page.Departments, DepartmentOption{
			Code:     dept.Code,
			Label:    DepartmentLabel(dept),
			Emoji:    dept.Emoji,
			Count:    counts[dept.Code],
			Selected: dept.Code == selected,
		})
	}

	for _, plug := range plugs {
		page.Plugs = append(page.Plugs, PlugCard{
			ID:          plug.ID,
			Name:        plug.Name,
			Emoji:       plug.Emoji,
			Image:       plug.Image,
			Description: plug.Description,
			Rating:      plug.Rating,
			Departments: plug.DepartmentCodes(),
			Handle:      plug.TelegramHandle(),
			ContactURL:  ContactPath(plug.Telegram),
		})
	}
	return page
}

// DepartmentLabel возвращает подпись вида "55 - Meuse"
func DepartmentLabel(dept model.Department) string {
	name := cases.Title(language.French).String(strings.TrimSpace(dept.Name))
	if name == "" {
		return dept.Code
	}
	return dept.Code + " - " + name
}

// Stars возвращает ⭐ за каждый целый балл и ✨ при дробной части
func Stars(rating float64) string {
	if rating <= 0 || math.IsNaN(rating) {
		return ""
	}
	whole := math.Floor(rating)
	stars := strings.Repeat("⭐", int(whole))
	if rating != whole {
		stars += "✨"
	}
	return stars
}

// FormatRating печатает оценку без лишних нулей: 4.5, 4
func FormatRating(rating float64) string {
	return strconv.FormatFloat(rating, 'f', -1, 64)
}

// ContactPath возвращает ссылку на контакт через проверку /open
func ContactPath(telegram string) string {
	return "/open?url=" + url.QueryEscape(telegram)
}
