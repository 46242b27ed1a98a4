package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
	"github.com/cappelaere/wai-bee/internal/common/errorx"
	"github.com/cappelaere/wai-bee/internal/directory"
)

// newLedger builds a ledger over two scholarships rooted in a temp dir.
func newLedger(t *testing.T) (*Ledger, string) {
	t.Helper()
	root := t.TempDir()
	for _, id := range []string{"bpw", "stem"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, id), 0o755))
	}

	source := fmt.Sprintf(`
users: {}
scholarships:
  bpw:
    name: BPW Scholarship
    short_name: BPW
    data_folder: %s
    enabled: true
  stem:
    name: STEM Scholarship
    short_name: STEM
    data_folder: %s
    enabled: true
`, filepath.Join(root, "bpw"), filepath.Join(root, "stem"))

	path := filepath.Join(root, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	dir := directory.New(zap.NewNop(), path)
	return NewLedger(zap.NewNop(), dir), root
}

func TestSubmit_CreatesRecordFile(t *testing.T) {
	l, root := newLedger(t)
	ctx := context.Background()

	record, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", 8, "solid application")
	require.NoError(t, err)
	assert.Equal(t, "bpw", record.Scholarship)
	assert.Equal(t, 8, record.Score)
	assert.Equal(t, record.Created, record.Updated)

	path := filepath.Join(root, "bpw", cnst.ReviewsDirName, "WAI-001__GR.json")
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSubmit_OverwritePreservesCreated(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	first, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", 8, "first pass")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	second, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", 6, "second thoughts")
	require.NoError(t, err)

	assert.Equal(t, first.Created, second.Created)
	assert.True(t, second.Updated.After(first.Updated))
	assert.Equal(t, 6, second.Score)
	assert.Equal(t, "second thoughts", second.Comment)
}

func TestSubmit_ScoreRange(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	for _, score := range []int{0, -1, 11} {
		_, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", score, "")
		var apiErr *errorx.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, errorx.CategoryValidation, apiErr.Category)
	}

	for _, score := range []int{1, 10} {
		_, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", score, "")
		assert.NoError(t, err)
	}
}

func TestSubmit_UnknownScholarship(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.Submit(context.Background(), "ghost", "WAI-001", "gale", "GR", 5, "")
	assert.ErrorIs(t, err, cnst.ErrScholarshipNotFound)
}

func TestSubmit_RequiresKeyFields(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Submit(ctx, "bpw", "", "gale", "GR", 5, "")
	assert.Error(t, err)
	_, err = l.Submit(ctx, "bpw", "WAI-001", "gale", "", 5, "")
	assert.Error(t, err)
}

func TestListForReviewer(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	_, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", 8, "")
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)
	_, err = l.Submit(ctx, "stem", "WAI-007", "gale", "GR", 5, "")
	require.NoError(t, err)
	_, err = l.Submit(ctx, "bpw", "WAI-001", "sam", "SB", 9, "")
	require.NoError(t, err)

	// all scholarships, most recently updated first
	records, err := l.ListForReviewer(ctx, "gale", "GR", "")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "WAI-007", records[0].WAINumber)
	assert.Equal(t, "WAI-001", records[1].WAINumber)

	// filtered to one scholarship
	records, err = l.ListForReviewer(ctx, "gale", "GR", "bpw")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "WAI-001", records[0].WAINumber)

	// a reviewer with no records gets an empty list
	records, err = l.ListForReviewer(ctx, "nobody", "XX", "")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSubmit_ConcurrentSameKey(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(score int) {
			_, err := l.Submit(ctx, "bpw", "WAI-001", "gale", "GR", score, "")
			done <- err
		}(i%10 + 1)
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	// whatever won, the file must be a complete record
	records, err := l.ListForReviewer(ctx, "gale", "GR", "bpw")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, records[0].Score, 1)
	assert.LessOrEqual(t, records[0].Score, 10)
}
