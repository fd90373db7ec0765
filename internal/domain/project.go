package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultProjectColor is used when a project is created without a color.
const DefaultProjectColor = "#928374"

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

type Project struct {
	ID    string
	Name  string
	Color string
}

// Validate checks that Name is non-blank and Color is a #rgb or #rrggbb token.
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name is required")
	}
	if !colorPattern.MatchString(p.Color) {
		return fmt.Errorf("project color %q must be a hex token such as #8ec07c", p.Color)
	}
	return nil
}

// DisplayID returns the first 8 characters of ID.
func (p *Project) DisplayID() string {
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}
