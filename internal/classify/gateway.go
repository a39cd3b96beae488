package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

const systemPrompt = `You are a personal productivity assistant that classifies free-form text into structured records. You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON. Start your response directly with { and end with }.`

const promptTemplate = `Classify the following input as exactly one of: task, event, expense, income, note.

Current date and time: %s

Respond with one of these JSON shapes, choosing fields from the input:
- task: {"type":"task","title":"...","description":"...","dueDate":"RFC3339 or empty","priority":"high|medium|low","isRecurring":false,"recurrenceRule":""}
- event: {"type":"event","title":"...","description":"...","startTime":"RFC3339","endTime":"RFC3339","location":"...","isRecurring":false,"recurrenceRule":""}
- expense: {"type":"expense","amount":0.0,"category":"...","description":"...","date":"RFC3339 or empty"}
- income: {"type":"income","amount":0.0,"category":"...","description":"...","date":"RFC3339 or empty"}
- note: {"type":"note","title":"...","content":"...","tags":["..."]}

Resolve relative dates ("tomorrow", "next Friday at 2pm") against the current date and time above. Omit fields you cannot infer.

Input: %s`

// Gateway turns free-form capture text into a validated ClassifiedCapture.
type Gateway struct {
	client      Client
	logger      *slog.Logger
	rateLimiter *rateLimiter
}

// NewGateway creates a classifier gateway for the configured provider.
func NewGateway(cfg Config, logger *slog.Logger) (*Gateway, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	return &Gateway{
		client:      client,
		logger:      logger,
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}, nil
}

// NewGatewayWithClient creates a gateway around an existing client.
func NewGatewayWithClient(client Client, logger *slog.Logger) *Gateway {
	return &Gateway{
		client:      client,
		logger:      logger,
		rateLimiter: newRateLimiter(0),
	}
}

// Close releases the gateway's background resources.
func (g *Gateway) Close() {
	g.rateLimiter.Close()
}

// Classify sends text to the external classifier and validates the result.
// now anchors relative-date resolution. Any transport, parse, or shape
// failure is reported as common.ErrClassificationFailed; callers do not
// retry automatically.
func (g *Gateway) Classify(ctx context.Context, text string, now time.Time) (model.ClassifiedCapture, error) {
	if strings.TrimSpace(text) == "" {
		return model.ClassifiedCapture{}, common.ErrEmptyCapture
	}

	if err := g.rateLimiter.wait(ctx); err != nil {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	prompt := fmt.Sprintf(promptTemplate, now.Format("Monday, January 2, 2006 at 3:04 PM MST"), text)

	content, err := g.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		g.logger.Error("classifier request failed", "error", err)
		return model.ClassifiedCapture{}, fmt.Errorf("%w: %v", common.ErrClassificationFailed, err)
	}

	capture, err := parseCapture(content, now)
	if err != nil {
		g.logger.Error("classifier response rejected", "error", err)
		return model.ClassifiedCapture{}, err
	}

	g.logger.Debug("classified capture", "kind", capture.Kind)
	return capture, nil
}

// rawCapture is the superset of fields across the five response shapes.
type rawCapture struct {
	Type           string   `json:"type"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Content        string   `json:"content"`
	DueDate        string   `json:"dueDate"`
	Priority       string   `json:"priority"`
	StartTime      string   `json:"startTime"`
	EndTime        string   `json:"endTime"`
	Location       string   `json:"location"`
	Date           string   `json:"date"`
	Category       string   `json:"category"`
	RecurrenceRule string   `json:"recurrenceRule"`
	Tags           []string `json:"tags"`
	Amount         float64  `json:"amount"`
	IsRecurring    bool     `json:"isRecurring"`
}

// parseCapture validates the classifier's JSON into the tagged union. The
// discriminant must be one of the five known kinds; everything else is a
// classification failure rather than a best-effort guess.
func parseCapture(content string, now time.Time) (model.ClassifiedCapture, error) {
	content = cleanMarkdownWrapper(content)

	var raw rawCapture
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: unparseable response: %v", common.ErrClassificationFailed, err)
	}

	kind := model.RecordKind(strings.ToLower(strings.TrimSpace(raw.Type)))
	if !kind.Valid() {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: %q", common.ErrUnknownKind, raw.Type)
	}

	switch kind {
	case model.KindTask:
		return parseTask(raw, now)
	case model.KindEvent:
		return parseEvent(raw, now)
	case model.KindExpense, model.KindIncome:
		return parseTransaction(kind, raw, now)
	case model.KindNote:
		return parseNote(raw)
	}

	return model.ClassifiedCapture{}, fmt.Errorf("%w: %q", common.ErrUnknownKind, raw.Type)
}

func parseTask(raw rawCapture, now time.Time) (model.ClassifiedCapture, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: task missing title", common.ErrClassificationFailed)
	}

	task := model.ParsedTask{
		Title:          title,
		Description:    strings.TrimSpace(raw.Description),
		Priority:       normalizePriority(raw.Priority),
		IsRecurring:    raw.IsRecurring,
		RecurrenceRule: strings.TrimSpace(raw.RecurrenceRule),
	}

	if raw.DueDate != "" {
		due, err := resolveTimestamp(raw.DueDate, now)
		if err != nil {
			return model.ClassifiedCapture{}, fmt.Errorf("%w: bad due date %q: %v", common.ErrClassificationFailed, raw.DueDate, err)
		}
		task.DueDate = &due
	}

	return model.ClassifiedCapture{Kind: model.KindTask, Task: &task}, nil
}

// defaultEventDuration applies when the classifier supplies a start but no end.
const defaultEventDuration = time.Hour

func parseEvent(raw rawCapture, now time.Time) (model.ClassifiedCapture, error) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: event missing title", common.ErrClassificationFailed)
	}
	if raw.StartTime == "" {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: event missing start time", common.ErrClassificationFailed)
	}

	start, err := resolveTimestamp(raw.StartTime, now)
	if err != nil {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: bad start time %q: %v", common.ErrClassificationFailed, raw.StartTime, err)
	}

	var end time.Time
	if raw.EndTime == "" {
		end = start.Add(defaultEventDuration)
	} else {
		end, err = resolveTimestamp(raw.EndTime, now)
		if err != nil {
			return model.ClassifiedCapture{}, fmt.Errorf("%w: bad end time %q: %v", common.ErrClassificationFailed, raw.EndTime, err)
		}
	}

	if !end.After(start) {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: event end %s is not after start %s", common.ErrClassificationFailed, end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	event := model.ParsedEvent{
		Title:          title,
		Description:    strings.TrimSpace(raw.Description),
		Location:       strings.TrimSpace(raw.Location),
		StartTime:      start,
		EndTime:        end,
		IsRecurring:    raw.IsRecurring,
		RecurrenceRule: strings.TrimSpace(raw.RecurrenceRule),
	}

	return model.ClassifiedCapture{Kind: model.KindEvent, Event: &event}, nil
}

func parseTransaction(kind model.RecordKind, raw rawCapture, now time.Time) (model.ClassifiedCapture, error) {
	if raw.Amount <= 0 {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: %s amount must be positive, got %v", common.ErrClassificationFailed, kind, raw.Amount)
	}

	category := strings.TrimSpace(raw.Category)
	if category == "" {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: %s missing category", common.ErrClassificationFailed, kind)
	}

	direction := model.DirectionExpense
	if kind == model.KindIncome {
		direction = model.DirectionIncome
	}

	txn := model.ParsedTransaction{
		Direction:   direction,
		Amount:      raw.Amount,
		Category:    category,
		Description: strings.TrimSpace(raw.Description),
		Date:        now,
	}

	if raw.Date != "" {
		date, err := resolveTimestamp(raw.Date, now)
		if err != nil {
			return model.ClassifiedCapture{}, fmt.Errorf("%w: bad date %q: %v", common.ErrClassificationFailed, raw.Date, err)
		}
		txn.Date = date
	}

	return model.ClassifiedCapture{Kind: kind, Transaction: &txn}, nil
}

// noteTitleLimit is how many characters of content seed a missing note title.
const noteTitleLimit = 50

func parseNote(raw rawCapture) (model.ClassifiedCapture, error) {
	content := strings.TrimSpace(raw.Content)
	if content == "" {
		return model.ClassifiedCapture{}, fmt.Errorf("%w: note missing content", common.ErrClassificationFailed)
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = deriveNoteTitle(content)
	}

	note := model.ParsedNote{
		Title:   title,
		Content: content,
		Tags:    raw.Tags,
	}

	return model.ClassifiedCapture{Kind: model.KindNote, Note: &note}, nil
}

// deriveNoteTitle takes the first noteTitleLimit characters of content.
func deriveNoteTitle(content string) string {
	runes := []rune(content)
	if len(runes) <= noteTitleLimit {
		return content
	}
	return string(runes[:noteTitleLimit])
}

// normalizePriority lowercases and validates a priority, defaulting to medium.
func normalizePriority(s string) model.Priority {
	p := model.Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return model.PriorityMedium
	}
	return p
}

// timestampLayouts are the date formats the classifier is known to emit.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// resolveTimestamp parses a classifier date string into an absolute instant.
// Layouts without an offset are interpreted in now's location.
func resolveTimestamp(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)

	for i, layout := range timestampLayouts {
		if i == 0 {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", s)
}
