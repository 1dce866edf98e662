// Package tui provides the Bubble Tea form used by the interactive mode to
// collect credentials and the book request before a run starts.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/shelfmark/shelfmark/config"
	"github.com/shelfmark/shelfmark/dates"
	"github.com/shelfmark/shelfmark/models"
)

// ErrCancelled is returned by Run when the user quits without submitting.
var ErrCancelled = errors.New("cancelled by user")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F8B500")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4")).
			Width(14)

	focusedLabelStyle = labelStyle.
				Bold(true).
				Foreground(lipgloss.Color("#FFE66D"))

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))
)

// field identifies one row of the form, in focus order.
type field int

const (
	fieldEmail field = iota
	fieldPassword
	fieldMode
	fieldBook
	fieldFormat
	fieldDate
	fieldRating
	fieldReview
	fieldSave
	fieldCount
)

var formats = []models.Format{
	models.Paperback,
	models.Hardcover,
	models.Kindle,
	models.Ebook,
}

// Model is the Bubble Tea model for the entry form.
type Model struct {
	inputs map[field]textinput.Model
	focus  field

	mode    models.RequestMode
	format  int
	rating  int
	savePwd bool

	validationErr string
	submitted     bool
	cancelled     bool

	request models.BookRequest
}

// NewModel builds the form, prefilled from settings.
func NewModel(settings config.Settings) Model {
	m := Model{
		inputs:  make(map[field]textinput.Model),
		mode:    models.ModeSearch,
		rating:  settings.DefaultRating,
		savePwd: settings.Password != "",
	}
	if def, err := models.ParseFormat(settings.DefaultFormat); err == nil {
		for i, f := range formats {
			if f == def {
				m.format = i
			}
		}
	}

	newInput := func(placeholder string, width int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 500
		ti.Width = width
		return ti
	}

	email := newInput("you@example.com", 40)
	email.SetValue(settings.Email)
	m.inputs[fieldEmail] = email

	password := newInput("password", 40)
	password.EchoMode = textinput.EchoPassword
	password.SetValue(settings.Password)
	m.inputs[fieldPassword] = password

	m.inputs[fieldBook] = newInput("title author", 60)

	date := newInput("t, y or DD/MM/YY", 20)
	date.SetValue("t")
	m.inputs[fieldDate] = date

	m.inputs[fieldReview] = newInput("optional", 60)

	m.focusField(fieldEmail)
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			if m.focus == fieldCount-1 {
				if err := m.buildRequest(); err != nil {
					m.validationErr = err.Error()
					return m, nil
				}
				m.submitted = true
				return m, tea.Quit
			}
			m.advance(1)
			return m, nil

		case "tab", "down":
			m.advance(1)
			return m, nil

		case "shift+tab", "up":
			m.advance(-1)
			return m, nil

		case "left", "right":
			if m.isChoice(m.focus) {
				m.cycle(msg.String() == "right")
				return m, nil
			}

		case " ":
			if m.isChoice(m.focus) {
				m.cycle(true)
				return m, nil
			}
		}
	}

	if ti, ok := m.inputs[m.focus]; ok {
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[m.focus] = ti
		return m, cmd
	}
	return m, nil
}

func (m Model) isChoice(f field) bool {
	switch f {
	case fieldMode, fieldFormat, fieldRating, fieldSave:
		return true
	}
	return false
}

func (m *Model) cycle(forward bool) {
	step := -1
	if forward {
		step = 1
	}
	switch m.focus {
	case fieldMode:
		if m.mode == models.ModeSearch {
			m.mode = models.ModeURL
		} else {
			m.mode = models.ModeSearch
		}
	case fieldFormat:
		m.format = (m.format + step + len(formats)) % len(formats)
	case fieldRating:
		m.rating += step
		if m.rating < 1 {
			m.rating = 5
		}
		if m.rating > 5 {
			m.rating = 1
		}
	case fieldSave:
		m.savePwd = !m.savePwd
	}
}

func (m *Model) advance(step int) {
	next := m.focus
	for {
		next = (next + field(step) + fieldCount) % fieldCount
		// The format row only applies to search mode.
		if next == fieldFormat && m.mode == models.ModeURL {
			continue
		}
		break
	}
	m.focusField(next)
}

func (m *Model) focusField(f field) {
	if ti, ok := m.inputs[m.focus]; ok {
		ti.Blur()
		m.inputs[m.focus] = ti
	}
	m.focus = f
	if ti, ok := m.inputs[f]; ok {
		ti.Focus()
		m.inputs[f] = ti
	}
}

// buildRequest validates the form and assembles the book request.
func (m *Model) buildRequest() error {
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	book := strings.TrimSpace(m.inputs[fieldBook].Value())
	date := dates.Resolve(m.inputs[fieldDate].Value(), time.Now())
	if _, err := dates.Split(date); err != nil {
		return err
	}
	review := m.inputs[fieldReview].Value()

	var req models.BookRequest
	var err error
	if m.mode == models.ModeSearch {
		req, err = models.BySearch(book, formats[m.format], date, m.rating, review)
	} else {
		req, err = models.ByURL(book, date, m.rating, review)
	}
	if err != nil {
		return err
	}
	m.request = req
	return nil
}

// View renders the form.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Shelfmark"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Mark a book as read on Goodreads and log it"))
	b.WriteString("\n\n")

	b.WriteString(m.inputRow(fieldEmail, "Email"))
	b.WriteString(m.inputRow(fieldPassword, "Password"))
	b.WriteString(m.choiceRow(fieldMode, "Find by", m.modeLabel()))
	if m.mode == models.ModeSearch {
		b.WriteString(m.inputRow(fieldBook, "Search"))
		b.WriteString(m.choiceRow(fieldFormat, "Format", string(formats[m.format])))
	} else {
		b.WriteString(m.inputRow(fieldBook, "Book URL"))
	}
	b.WriteString(m.inputRow(fieldDate, "Date read"))
	b.WriteString(m.choiceRow(fieldRating, "Rating", strings.Repeat("★", m.rating)+strings.Repeat("☆", 5-m.rating)))
	b.WriteString(m.inputRow(fieldReview, "Review"))
	b.WriteString(m.choiceRow(fieldSave, "Save password", yesNo(m.savePwd)))

	if m.validationErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("✗ " + m.validationErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab/↑↓: move • ←/→: change choice • enter on last row: start • esc: quit"))
	b.WriteString("\n")

	return b.String()
}

func (m Model) inputRow(f field, label string) string {
	return m.label(f, label) + m.inputs[f].View() + "\n"
}

func (m Model) choiceRow(f field, label, value string) string {
	marker := "  "
	if m.focus == f {
		marker = "‹ "
		value += " ›"
	}
	return m.label(f, label) + choiceStyle.Render(marker+value) + "\n"
}

func (m Model) label(f field, text string) string {
	if m.focus == f {
		return focusedLabelStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (m Model) modeLabel() string {
	if m.mode == models.ModeSearch {
		return "Search"
	}
	return "URL"
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

// Run shows the form and blocks until it is submitted or cancelled.
func Run(settings config.Settings) (models.BookRequest, models.Credentials, error) {
	p := tea.NewProgram(NewModel(settings))
	final, err := p.Run()
	if err != nil {
		return models.BookRequest{}, models.Credentials{}, fmt.Errorf("run form: %w", err)
	}

	m, ok := final.(Model)
	if !ok || !m.submitted {
		return models.BookRequest{}, models.Credentials{}, ErrCancelled
	}

	creds := models.Credentials{
		Email:        strings.TrimSpace(m.inputs[fieldEmail].Value()),
		Password:     m.inputs[fieldPassword].Value(),
		SavePassword: m.savePwd,
	}
	return m.request, creds, nil
}
