package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stageside/stageside/pkg/domain"
)

func rec(link string) domain.ArticleRecord {
	return domain.ArticleRecord{Link: link, OriginalTitle: "title " + link, SummaryKR: "요약 " + link, Keywords: []string{}}
}

func links(a []domain.ArticleRecord) []string {
	res := make([]string, 0, len(a))
	for _, r := range a {
		res = append(res, r.Link)
	}
	return res
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name      string
		existing  domain.Archive
		fresh     []domain.ArticleRecord
		limit     int
		wantLinks []string
		wantAdded []string
	}{
		{
			name:      "prepend in order",
			existing:  domain.Archive{rec("a"), rec("b")},
			fresh:     []domain.ArticleRecord{rec("x"), rec("y")},
			limit:     20,
			wantLinks: []string{"x", "y", "a", "b"},
			wantAdded: []string{"x", "y"},
		},
		{
			name:      "known links skipped",
			existing:  domain.Archive{rec("a"), rec("b")},
			fresh:     []domain.ArticleRecord{rec("b"), rec("x")},
			limit:     20,
			wantLinks: []string{"x", "a", "b"},
			wantAdded: []string{"x"},
		},
		{
			name:      "duplicates among fresh",
			existing:  nil,
			fresh:     []domain.ArticleRecord{rec("x"), rec("y"), rec("x"), rec("")},
			limit:     20,
			wantLinks: []string{"x", "y"},
			wantAdded: []string{"x", "y"},
		},
		{
			name:      "cap drops oldest",
			existing:  domain.Archive{rec("a"), rec("b"), rec("c")},
			fresh:     []domain.ArticleRecord{rec("x")},
			limit:     3,
			wantLinks: []string{"x", "a", "b"},
			wantAdded: []string{"x"},
		},
		{
			name:      "more fresh than cap",
			existing:  domain.Archive{rec("a")},
			fresh:     []domain.ArticleRecord{rec("x"), rec("y"), rec("z")},
			limit:     2,
			wantLinks: []string{"x", "y"},
			wantAdded: []string{"x", "y"},
		},
		{
			name:      "nothing new",
			existing:  domain.Archive{rec("a")},
			fresh:     nil,
			limit:     20,
			wantLinks: []string{"a"},
			wantAdded: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged, added := Merge(tt.existing, tt.fresh, tt.limit)
			assert.Equal(t, tt.wantLinks, links(merged))
			assert.Equal(t, tt.wantAdded, links(added))
			assert.LessOrEqual(t, len(merged), tt.limit)
			assert.Len(t, merged.Links(), len(merged), "links are unique")
		})
	}
}

func TestMerge_Idempotent(t *testing.T) {
	existing := domain.Archive{rec("a"), rec("b")}
	fresh := []domain.ArticleRecord{rec("x"), rec("a"), rec("y")}

	once, _ := Merge(existing, fresh, 20)
	twice, added := Merge(once, fresh, 20)
	assert.Equal(t, once, twice)
	assert.Empty(t, added)
	assert.Equal(t, []string{"a", "b"}, links(existing), "input archive untouched")
}

func TestMerge_CapAcrossRuns(t *testing.T) {
	var a domain.Archive
	for run := 0; run < 10; run++ {
		fresh := []domain.ArticleRecord{rec(fmt.Sprintf("r%d-1", run)), rec(fmt.Sprintf("r%d-2", run)), rec(fmt.Sprintf("r%d-3", run))}
		a, _ = Merge(a, fresh, 20)
		assert.LessOrEqual(t, len(a), 20)
		assert.Equal(t, fmt.Sprintf("r%d-1", run), a[0].Link, "first fresh record at position 0")
	}
	assert.Len(t, a, 20)
}

func TestTake(t *testing.T) {
	recs := []domain.ArticleRecord{rec("a"), rec("b"), rec("c")}
	assert.Equal(t, []string{"a", "b"}, links(Take(recs, 2)))
	assert.Len(t, Take(recs, 0), 3)
	assert.Len(t, Take(recs, 10), 3)
}

func TestStore_LoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "articles.json")
	s := NewStore(path)

	a, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, a, "missing file is empty archive")

	r := rec("https://playbill.com/a")
	r.ContentKR = "<p>본문 & 내용</p>"
	r.CapturedAt = time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.Save(context.Background(), domain.Archive{r}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<p>본문 & 내용</p>", "html is not escaped")
	assert.Contains(t, string(data), `"crawled_at": "2025-05-01T10:00:00Z"`)
	assert.Contains(t, string(data), `"original_title"`)

	loaded, err := s.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, r, loaded[0])

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches, "no temp files left")
}

func TestStore_LoadBroken(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o600))
	a, err := NewStore(empty).Load()
	require.NoError(t, err)
	assert.Empty(t, a)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("[{"), 0o600))
	_, err = NewStore(broken).Load()
	require.Error(t, err)
}

func TestStore_Update(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	s := NewStore(path)
	require.NoError(t, s.Save(context.Background(), domain.Archive{rec("a")}))

	err := s.Update(context.Background(), func(a domain.Archive) (domain.Archive, error) {
		merged, _ := Merge(a, []domain.ArticleRecord{rec("b")}, 20)
		return merged, nil
	})
	require.NoError(t, err)
	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, links(loaded))

	err = s.Update(context.Background(), func(a domain.Archive) (domain.Archive, error) {
		return nil, errors.New("abort")
	})
	require.EqualError(t, err, "abort")
	loaded, err = s.Load()
	require.NoError(t, err)
	assert.Len(t, loaded, 2, "nothing written on error")
}

func TestStore_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "articles.json")
	other := flock.New(path + ".lock")
	ok, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	err = NewStore(path).Save(ctx, domain.Archive{rec("a")})
	require.ErrorIs(t, err, ErrLocked)

	require.NoError(t, other.Unlock())
	require.NoError(t, NewStore(path).Save(context.Background(), domain.Archive{rec("a")}))
}
