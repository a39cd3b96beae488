package cli

import (
	"fmt"
	"strings"

	"github.com/snapjot/snapjot/internal/model"
)

// kindIcons maps record kinds to display icons.
var kindIcons = map[model.RecordKind]string{
	model.KindTask:    TaskIcon,
	model.KindEvent:   EventIcon,
	model.KindExpense: MoneyIcon,
	model.KindIncome:  MoneyIcon,
	model.KindNote:    NoteIcon,
}

// kindLabels maps record kinds to past-tense capture descriptions.
var kindLabels = map[model.RecordKind]string{
	model.KindTask:    "Task created",
	model.KindEvent:   "Event scheduled",
	model.KindExpense: "Expense recorded",
	model.KindIncome:  "Income recorded",
	model.KindNote:    "Note saved",
}

// FormatCaptureResult renders the outcome of a capture for the terminal,
// including any degradation warnings.
func FormatCaptureResult(result model.CaptureResult) string {
	icon := kindIcons[result.Kind]
	label := kindLabels[result.Kind]
	if result.Kind == model.KindNote && result.Merged {
		label = "Added to existing list"
	}

	var b strings.Builder
	b.WriteString(FormatSuccess(fmt.Sprintf("%s %s (%s)", icon, label, result.RecordID)))
	for _, warning := range result.Warnings {
		b.WriteString("\n")
		b.WriteString(FormatWarning(warning))
	}
	return b.String()
}
