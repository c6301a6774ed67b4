package main

import (
	"os"

	"github.com/manifoldco/promptui"

	"github.com/hpungsan/saveslot/internal/errors"
	"github.com/hpungsan/saveslot/internal/ops"
	"github.com/hpungsan/saveslot/internal/profile"
)

// choice is one line of the interactive profile menu.
type choice struct {
	Label string
	Input ops.RunInput
}

// selectFunc shows items and returns the chosen index.
type selectFunc func(label string, items []choice, cursor int) (int, error)

// buildChoices lists the profiles in order followed by the no-profile entry.
// The cursor starts on the last-used profile when there is one.
func buildChoices(list *ops.ListProfilesOutput) ([]choice, int) {
	choices := make([]choice, 0, len(list.Items)+1)
	cursor := 0
	for i, item := range list.Items {
		if item.Name == list.LastUsed {
			cursor = i
		}
		choices = append(choices, choice{
			Label: item.Name,
			Input: ops.RunInput{Profile: item.Name},
		})
	}
	choices = append(choices, choice{
		Label: profile.Reserved,
		Input: ops.RunInput{NoProfile: true},
	})
	return choices, cursor
}

// chooseRun asks which profile to play. A single saved profile is picked
// without asking.
func chooseRun(list *ops.ListProfilesOutput, pick selectFunc) (ops.RunInput, error) {
	switch len(list.Items) {
	case 0:
		return ops.RunInput{}, errors.NewInvalidRequest("no saved profiles (run `saveslot init` first)")
	case 1:
		return ops.RunInput{Profile: list.Items[0].Name}, nil
	}

	choices, cursor := buildChoices(list)
	i, err := pick("Select profile", choices, cursor)
	if err != nil {
		return ops.RunInput{}, err
	}
	if i < 0 || i >= len(choices) {
		return ops.RunInput{}, errors.NewInvalidSelection("", "selection out of range")
	}
	return choices[i].Input, nil
}

func promptChooser(list *ops.ListProfilesOutput) (ops.RunInput, error) {
	return chooseRun(list, promptSelect)
}

// promptSelect renders the menu on stderr so stdout stays JSON.
func promptSelect(label string, items []choice, cursor int) (int, error) {
	prompt := promptui.Select{
		Label:     label,
		Items:     items,
		CursorPos: cursor,
		Size:      10,
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "-> {{ .Label | cyan }}",
			Inactive: "   {{ .Label }}",
			Selected: "{{ .Label | green }}",
		},
		HideSelected: true,
		Stdout:       &bellSkipper{},
	}

	i, _, err := prompt.Run()
	if err == promptui.ErrInterrupt || err == promptui.ErrEOF {
		return -1, errors.NewInvalidRequest("no profile chosen")
	}
	if err != nil {
		return -1, errors.NewInternal(err)
	}
	return i, nil
}

// bellSkipper drops the terminal bell promptui rings on every keystroke.
type bellSkipper struct{}

func (bs *bellSkipper) Write(b []byte) (int, error) {
	const bell = 7
	filtered := make([]byte, 0, len(b))
	for _, c := range b {
		if c != bell {
			filtered = append(filtered, c)
		}
	}
	if _, err := os.Stderr.Write(filtered); err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close leaves stderr open for the logger.
func (bs *bellSkipper) Close() error {
	return nil
}
