package cli

import (
	"context"
	"fmt"
	"strings"
)

const resolveBatch = 200

// resolveEntryID expands an entry ID prefix to the full ID. Input that
// matches nothing is passed through unchanged so the command decides how
// a missing entry is handled.
func resolveEntryID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("entry ID is required")
	}

	var matches []string
	for page := 0; ; page++ {
		entries, err := app.Catalog.ListTimeEntries(ctx, page, resolveBatch)
		if err != nil {
			return "", err
		}
		for _, e := range entries {
			if e.ID == input {
				return e.ID, nil
			}
			if strings.HasPrefix(e.ID, input) {
				matches = append(matches, e.ID)
			}
		}
		if len(entries) < resolveBatch {
			break
		}
	}

	switch len(matches) {
	case 0:
		return input, nil
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("entry ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveProjectID accepts a project name (case-insensitive), a full ID,
// or an unambiguous ID prefix.
func resolveProjectID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project is required")
	}

	projects, err := app.Projects.List(ctx)
	if err != nil {
		return "", err
	}

	for _, p := range projects {
		if strings.EqualFold(p.Name, input) || p.ID == input {
			return p.ID, nil
		}
	}

	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}
