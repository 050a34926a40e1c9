package github

import (
	"fmt"
	"strconv"
	"strings"

	"profile-qa/internal/models"
)

// RenderProfile builds the context text: six labeled profile lines, a blank
// line, then one line per repository. Missing values render as a placeholder.
func RenderProfile(p *models.Profile, repos []models.Repository) string {
	if p == nil {
		p = &models.Profile{}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Name: %s\n", str(p.Name))
	fmt.Fprintf(&sb, "Bio: %s\n", str(p.Bio))
	fmt.Fprintf(&sb, "Location: %s\n", str(p.Location))
	fmt.Fprintf(&sb, "Public Repos: %s\n", num(p.PublicRepos))
	fmt.Fprintf(&sb, "Followers: %s\n", num(p.Followers))
	fmt.Fprintf(&sb, "Following: %s\n", num(p.Following))

	sb.WriteString("\nRepositories:\n")
	for _, r := range repos {
		fmt.Fprintf(&sb, "- %s (⭐ %s): %s\n", str(r.Name), num(r.StargazersCount), str(r.Description))
	}
	return sb.String()
}

func str(s *string) string {
	if s == nil || *s == "" {
		return models.ValuePlaceholder
	}
	return *s
}

func num(n *int) string {
	if n == nil {
		return models.ValuePlaceholder
	}
	return strconv.Itoa(*n)
}
