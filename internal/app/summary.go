package app

import (
	"fmt"
	"strings"

	"github.com/netquity/mergebot/internal/merge"
)

// RenderOutcome formats a merge outcome for the messaging collaborator. A
// merged outcome carries the labeled Receiver/Giver branch fields; rejections
// and dry runs render their detail line alone.
func RenderOutcome(outcome merge.Outcome) string {
	var builder strings.Builder

	builder.WriteString(outcome.Detail)
	builder.WriteString("\n")

	if outcome.Status == merge.StatusMerged {
		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("Receiver Branch: %s\n", outcome.ReceiverBranch))
		builder.WriteString(fmt.Sprintf("Giver Branch: %s\n", outcome.GiverBranch))
	}

	return builder.String()
}
