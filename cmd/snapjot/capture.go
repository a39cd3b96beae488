package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/snapjot/snapjot/internal/cli"
	"github.com/snapjot/snapjot/internal/model"
)

func captureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capture [text]",
		Short: "Capture a thought and file it automatically",
		Long: `Classify one piece of free-form text and save it as a task, event,
expense, income, or note.

Examples:
  snapjot capture "call the dentist tomorrow"
  snapjot capture "dinner with Ana friday 7pm at Luigi's"
  snapjot capture "spent $45 on groceries"
  snapjot capture "Groceries: oat milk"
  snapjot capture "warranty receipt" --photo receipt.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: runCapture,
	}

	cmd.Flags().String("photo", "", "attach an image file to the captured record")

	return cmd
}

func runCapture(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	input := model.CaptureInput{
		UserID:     currentUserID(),
		Text:       args[0],
		CapturedAt: time.Now(),
	}

	photoPath, _ := cmd.Flags().GetString("photo")
	if photoPath != "" {
		photo, err := loadPhoto(photoPath)
		if err != nil {
			return err
		}
		input.Photo = photo
	}

	orchestrator, cleanup, err := initOrchestrator(ctx, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := orchestrator.Capture(ctx, input)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatCaptureResult(result))
	return nil
}

// loadPhoto reads an image file into a photo blob, sniffing the content type
// from the file bytes rather than trusting the extension.
func loadPhoto(path string) (*model.PhotoBlob, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-supplied attachment path
	if err != nil {
		return nil, fmt.Errorf("failed to read photo %s: %w", path, err)
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%s is not an image (detected %s)", path, contentType)
	}

	return &model.PhotoBlob{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}
