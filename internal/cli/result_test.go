package cli

import (
	"strings"
	"testing"

	"github.com/snapjot/snapjot/internal/model"
)

func TestFormatCaptureResult(t *testing.T) {
	tests := []struct {
		name   string
		result model.CaptureResult
		want   []string
	}{
		{
			name:   "task created",
			result: model.CaptureResult{Kind: model.KindTask, RecordID: "abc"},
			want:   []string{"Task created", "abc"},
		},
		{
			name:   "merged note",
			result: model.CaptureResult{Kind: model.KindNote, RecordID: "n1", Merged: true},
			want:   []string{"Added to existing list"},
		},
		{
			name: "warnings rendered",
			result: model.CaptureResult{
				Kind:     model.KindExpense,
				RecordID: "t1",
				Warnings: []string{"record saved without photo: upload failed"},
			},
			want: []string{"Expense recorded", "without photo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatCaptureResult(tt.result)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("output %q missing %q", got, want)
				}
			}
		})
	}
}
