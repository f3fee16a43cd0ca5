package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// NewAccessibleForm builds a huh form that honors the ACCESSIBLE environment
// variable, falling back to plain text prompts for screen readers.
func NewAccessibleForm(groups ...*huh.Group) *huh.Form {
	return huh.NewForm(groups...).WithAccessible(os.Getenv("ACCESSIBLE") != "")
}

// isInteractive reports whether stdin is a terminal. Confirmation prompts are
// skipped in pipelines; callers must then pass an explicit override flag.
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// confirmProceed shows a yes/no prompt with the given title and description.
// Returns false when the user aborts the form.
func confirmProceed(title, description string) (bool, error) {
	var confirmed bool
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&confirmed),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get confirmation: %w", err)
	}
	return confirmed, nil
}
