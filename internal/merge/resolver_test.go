package merge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapjot/snapjot/internal/common"
	"github.com/snapjot/snapjot/internal/model"
)

// fakeNoteFinder returns notes by lowercased title.
type fakeNoteFinder struct {
	notes map[string]*model.Note
}

func (f *fakeNoteFinder) GetNoteByTitle(_ context.Context, _, title string) (*model.Note, error) {
	note, ok := f.notes[strings.ToLower(title)]
	if !ok {
		return nil, fmt.Errorf("note %q: %w", title, common.ErrNotFound)
	}
	return note, nil
}

func newResolver(notes ...*model.Note) *Resolver {
	finder := &fakeNoteFinder{notes: make(map[string]*model.Note)}
	for _, n := range notes {
		finder.notes[strings.ToLower(n.Title)] = n
	}
	return NewResolver(finder, slog.Default())
}

func TestSplitBucketEntry(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantBucket string
		wantEntry  string
		wantOK     bool
	}{
		{"colon separator", "Groceries: milk", "Groceries", "milk", true},
		{"hyphen separator", "Groceries - milk", "Groceries", "milk", true},
		{"first separator wins", "Books: sci-fi: Dune", "Books", "sci-fi: Dune", true},
		{"no separator", "just a plain thought", "", "", false},
		{"empty entry", "Groceries:   ", "", "", false},
		{"empty bucket", ": milk", "", "", false},
		{"multiline entry", "Ideas: first line\nsecond line", "Ideas", "first line\nsecond line", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, entry, ok := SplitBucketEntry(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantEntry, entry)
		})
	}
}

func TestResolveNoPatternCreatesNew(t *testing.T) {
	r := newResolver()

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "meeting thoughts",
		Content: "meeting thoughts",
	})
	require.NoError(t, err)

	assert.Equal(t, CreateNew, decision.Action)
	assert.Equal(t, "meeting thoughts", decision.Title)
	assert.Equal(t, "meeting thoughts", decision.Content)
}

func TestResolveUnseenBucketCreatesFirstItem(t *testing.T) {
	r := newResolver()

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "Groceries: milk",
		Content: "Groceries: milk",
	})
	require.NoError(t, err)

	assert.Equal(t, CreateNew, decision.Action)
	assert.Equal(t, "Groceries", decision.Title)
	assert.Equal(t, "<li>milk</li>", decision.Content)
}

func TestResolveAppendsToExistingBucket(t *testing.T) {
	r := newResolver(&model.Note{
		ID:      "note-1",
		Title:   "Groceries",
		Content: "<li>milk</li>",
	})

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "groceries: eggs",
		Content: "groceries: eggs",
	})
	require.NoError(t, err)

	assert.Equal(t, AppendTo, decision.Action)
	assert.Equal(t, "note-1", decision.NoteID)
	assert.Equal(t, "<li>milk</li>\n<li>eggs</li>", decision.Content)
}

func TestResolveBucketMatchIsExactNotSubstring(t *testing.T) {
	r := newResolver(&model.Note{
		ID:      "note-1",
		Title:   "Groceries",
		Content: "<li>milk</li>",
	})

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "My Groceries: eggs",
		Content: "My Groceries: eggs",
	})
	require.NoError(t, err)

	// "My Groceries" is a different bucket and starts its own list.
	assert.Equal(t, CreateNew, decision.Action)
	assert.Equal(t, "My Groceries", decision.Title)
	assert.Equal(t, "<li>eggs</li>", decision.Content)
}

func TestResolveNoDeduplication(t *testing.T) {
	bucket := &model.Note{ID: "note-1", Title: "Groceries", Content: ""}
	r := newResolver(bucket)

	note := model.ParsedNote{Title: "Groceries: milk", Content: "Groceries: milk"}

	first, err := r.Resolve(context.Background(), "user-1", note)
	require.NoError(t, err)
	bucket.Content = first.Content

	second, err := r.Resolve(context.Background(), "user-1", note)
	require.NoError(t, err)

	// Two identical captures produce two list items.
	assert.Equal(t, "<li>milk</li>\n<li>milk</li>", second.Content)
}

func TestResolveEscapesEntryHTML(t *testing.T) {
	r := newResolver(&model.Note{ID: "note-1", Title: "Snippets", Content: "<li>safe</li>"})

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "Snippets: <script>alert(1)</script>",
		Content: "Snippets: <script>alert(1)</script>",
	})
	require.NoError(t, err)

	assert.Equal(t, AppendTo, decision.Action)
	assert.NotContains(t, decision.Content, "<script>")
	assert.Contains(t, decision.Content, "&lt;script&gt;")
}

func TestResolveSeparatorOnlyWhenNeeded(t *testing.T) {
	r := newResolver(&model.Note{ID: "note-1", Title: "Log", Content: "<li>one</li>\n"})

	decision, err := r.Resolve(context.Background(), "user-1", model.ParsedNote{
		Title:   "Log: two",
		Content: "Log: two",
	})
	require.NoError(t, err)

	assert.Equal(t, "<li>one</li>\n<li>two</li>", decision.Content)
}
