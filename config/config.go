// Package config reads and writes the settings file backing a run.
package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/shelfmark/shelfmark/models"
)

// DefaultFile is the settings file used when no override is given.
const DefaultFile = "settings.ini"

// Settings holds everything a run needs from the settings file.
type Settings struct {
	Email    string
	Password string

	// SpreadsheetPath locates the workbook rows are appended to.
	SpreadsheetPath string
	// Prompt controls whether a freshly typed password triggers the
	// save-password question at the end of credential entry.
	Prompt   bool
	Headless bool

	// UI defaults prefilled into the gui form.
	DefaultRating int
	DefaultFormat string

	// WaitTimeout bounds every explicit wait in the workflow.
	WaitTimeout time.Duration
}

// DefaultSettings returns the values written on first run.
func DefaultSettings() *Settings {
	return &Settings{
		SpreadsheetPath: "books.xlsx",
		Prompt:          true,
		Headless:        false,
		DefaultRating:   4,
		DefaultFormat:   "Kindle",
		WaitTimeout:     10 * time.Second,
	}
}

// Validate ensures the settings are coherent enough to start a run.
func (s *Settings) Validate() error {
	if s.SpreadsheetPath == "" {
		return fmt.Errorf("spreadsheet path cannot be empty")
	}
	if s.DefaultRating < 1 || s.DefaultRating > 5 {
		return fmt.Errorf("default rating must be between 1 and 5, got %d", s.DefaultRating)
	}
	if _, err := models.ParseFormat(s.DefaultFormat); err != nil {
		return fmt.Errorf("default format: %w", err)
	}
	if s.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	return nil
}

// Load reads path, creating it with defaults first when it does not exist.
func Load(path string) (*Settings, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := DefaultSettings().Save(path); err != nil {
			return nil, fmt.Errorf("write initial settings: %w", err)
		}
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load settings %q: %w", path, err)
	}

	s := DefaultSettings()
	user := file.Section("User")
	s.Email = user.Key("Email").String()
	s.Password = user.Key("Password").String()

	settings := file.Section("Settings")
	if v := settings.Key("Path").String(); v != "" {
		s.SpreadsheetPath = v
	}
	s.Prompt = settings.Key("Prompt").MustBool(s.Prompt)
	s.Headless = settings.Key("Headless").MustBool(s.Headless)

	defaults := file.Section("Defaults")
	s.DefaultRating = defaults.Key("Rating").MustInt(s.DefaultRating)
	if v := defaults.Key("Format").String(); v != "" {
		s.DefaultFormat = v
	}

	return s, nil
}

// Save writes the settings back to path.
func (s *Settings) Save(path string) error {
	file := ini.Empty()

	user := file.Section("User")
	user.Key("Email").SetValue(s.Email)
	user.Key("Password").SetValue(s.Password)

	settings := file.Section("Settings")
	settings.Key("Path").SetValue(s.SpreadsheetPath)
	settings.Key("Prompt").SetValue(boolString(s.Prompt))
	settings.Key("Headless").SetValue(boolString(s.Headless))

	defaults := file.Section("Defaults")
	defaults.Key("Rating").SetValue(fmt.Sprintf("%d", s.DefaultRating))
	defaults.Key("Format").SetValue(s.DefaultFormat)

	if err := file.SaveTo(path); err != nil {
		return fmt.Errorf("save settings %q: %w", path, err)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// PromptCredentials fills in missing credentials from in, asking whether a
// typed password should be persisted unless prompting is disabled. The
// returned Credentials record the user's persistence choices; the settings
// themselves are not modified.
func PromptCredentials(s *Settings, in io.Reader, out io.Writer) (models.Credentials, error) {
	creds := models.Credentials{
		Email:          s.Email,
		Password:       s.Password,
		SavePassword:   s.Password != "",
		PromptDisabled: !s.Prompt,
	}
	reader := bufio.NewReader(in)

	if creds.Email == "" {
		fmt.Fprint(out, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return creds, fmt.Errorf("read email: %w", err)
		}
		creds.Email = strings.TrimSpace(line)
	}

	if creds.Password == "" {
		fmt.Fprint(out, "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return creds, fmt.Errorf("read password: %w", err)
		}
		creds.Password = strings.TrimSpace(line)

		if !s.Prompt {
			creds.SavePassword = false
			return creds, validateCredentials(creds)
		}

		fmt.Fprint(out, "Save password? (y/n): ")
		answer, err := reader.ReadString('\n')
		if err != nil {
			return creds, fmt.Errorf("read save choice: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			creds.SavePassword = true
		default:
			creds.SavePassword = false
			fmt.Fprint(out, "Disable save-password prompt? (y/n): ")
			answer, err := reader.ReadString('\n')
			if err != nil {
				return creds, fmt.Errorf("read prompt choice: %w", err)
			}
			if answer = strings.ToLower(strings.TrimSpace(answer)); answer == "y" || answer == "yes" {
				creds.PromptDisabled = true
			}
		}
	}

	return creds, validateCredentials(creds)
}

func validateCredentials(creds models.Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return fmt.Errorf("email and password are required")
	}
	return nil
}

// ApplyCredentials folds the run's persistence choices back into the settings
// before they are saved: the password is stored only when requested.
func (s *Settings) ApplyCredentials(creds models.Credentials) {
	s.Email = creds.Email
	if creds.SavePassword {
		s.Password = creds.Password
	} else {
		s.Password = ""
	}
	s.Prompt = !creds.PromptDisabled
}
