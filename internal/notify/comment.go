package notify

import (
	"fmt"
	"strings"

	"github.com/tmkelly/issuebot/internal/model"
	"github.com/tmkelly/issuebot/internal/search"
)

// maxListedSimilar caps how many matches the comment lists.
const maxListedSimilar = 5

// RenderComment builds the markdown body of the automated reply.
// Works with zero similar issues - search is best-effort and may have
// been skipped or failed.
func RenderComment(issue model.Issue, similar []search.SimilarIssue) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Thanks for opening this, @%s! A maintainer will follow up shortly.\n", issue.Author)

	if len(similar) > 0 {
		b.WriteString("\nThese existing issues look related and may already have an answer:\n\n")
		for i, s := range similar {
			if i == maxListedSimilar {
				break
			}
			if s.URL != "" {
				fmt.Fprintf(&b, "- [#%d %s](%s)\n", s.Number, s.Title, s.URL)
			} else {
				fmt.Fprintf(&b, "- #%d %s\n", s.Number, s.Title)
			}
		}
	}

	b.WriteString("\n<sub>This reply was generated automatically.</sub>\n")
	return b.String()
}
