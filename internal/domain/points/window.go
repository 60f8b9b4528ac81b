package points

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type WindowKind string

const (
	WindowSeason   WindowKind = "season"
	WindowGameweek WindowKind = "gameweek"
	WindowMonth    WindowKind = "month"
)

// Window selects the slice of fixtures a classification contributes to:
// the whole season, a single gameweek, or a calendar month.
type Window struct {
	Kind     WindowKind
	Gameweek int
	Month    string
}

func SeasonWindow() Window {
	return Window{Kind: WindowSeason}
}

func GameweekWindow(gameweek int) Window {
	return Window{Kind: WindowGameweek, Gameweek: gameweek}
}

// MonthWindow takes a month in "2006-01" form.
func MonthWindow(month string) Window {
	return Window{Kind: WindowMonth, Month: month}
}

func MonthOf(ts time.Time) string {
	return ts.UTC().Format("2006-01")
}

// Key is the stable identifier used in document keys and storage.
func (w Window) Key() string {
	switch w.Kind {
	case WindowGameweek:
		return fmt.Sprintf("gw:%d", w.Gameweek)
	case WindowMonth:
		return fmt.Sprintf("month:%s", w.Month)
	default:
		return "season"
	}
}

// Label is the human description used in history documents.
func (w Window) Label() string {
	switch w.Kind {
	case WindowGameweek:
		return fmt.Sprintf("Gameweek %d", w.Gameweek)
	case WindowMonth:
		if ts, err := time.Parse("2006-01", w.Month); err == nil {
			return ts.Format("January 2006")
		}
		return w.Month
	default:
		return "Season"
	}
}

func (w Window) Validate() error {
	switch w.Kind {
	case WindowSeason:
		return nil
	case WindowGameweek:
		if w.Gameweek < 1 {
			return fmt.Errorf("gameweek window requires a positive gameweek")
		}
		return nil
	case WindowMonth:
		if _, err := time.Parse("2006-01", w.Month); err != nil {
			return fmt.Errorf("parse month window %q: %w", w.Month, err)
		}
		return nil
	default:
		return fmt.Errorf("unknown window kind %q", w.Kind)
	}
}

// ParseWindowKey inverts Key.
func ParseWindowKey(key string) (Window, error) {
	switch {
	case key == "season":
		return SeasonWindow(), nil
	case strings.HasPrefix(key, "gw:"):
		n, err := strconv.Atoi(strings.TrimPrefix(key, "gw:"))
		if err != nil {
			return Window{}, fmt.Errorf("parse gameweek window key %q: %w", key, err)
		}
		return GameweekWindow(n), nil
	case strings.HasPrefix(key, "month:"):
		w := MonthWindow(strings.TrimPrefix(key, "month:"))
		if err := w.Validate(); err != nil {
			return Window{}, err
		}
		return w, nil
	default:
		return Window{}, fmt.Errorf("unknown window key %q", key)
	}
}
