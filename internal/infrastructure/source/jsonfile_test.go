package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/dimpat/internal/testutil"
	"github.com/turtacn/dimpat/pkg/client"
	"github.com/turtacn/dimpat/pkg/errors"
)

const fullResponse = `{
  "_stats": {"total_count": 1200, "limit": 1000, "offset": 0},
  "patents": [
    {
      "id": "US-1-A1",
      "title": "Widget",
      "original_assignees": [{"id": "grid.6268.a", "name": "University of Bradford", "types": ["Education"]}],
      "inventor_names": ["['jane doe']"],
      "category_for_2020": [{"id": 80003, "name": "3104 Medicinal and Biomolecular Chemistry"}],
      "times_cited": 3,
      "jurisdiction": "US"
    }
  ]
}`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "response.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestJSONFile_FullResponse(t *testing.T) {
	mock := testutil.NewMockLogger()
	src := NewJSONFile(writeFile(t, fullResponse), mock)

	res, err := src.Fetch(context.Background(), client.PatentQuery{GridID: "grid.6268.a"})
	require.NoError(t, err)

	require.Len(t, res.Patents, 1)
	p := res.Patents[0]
	assert.Equal(t, "US-1-A1", string(p.ID))
	assert.Equal(t, "80003", string(p.CategoryFor2020[0].ID))
	require.NotNil(t, p.TimesCited)
	assert.Equal(t, 3, *p.TimesCited)
	assert.Equal(t, 1200, res.Stats.TotalCount)
	assert.True(t, res.Truncated())
	assert.True(t, mock.HasMessage("info", "Replaying saved query result"))
}

func TestJSONFile_BareArray(t *testing.T) {
	src := NewJSONFile(writeFile(t, `[{"id":"A"},{"id":"B","times_cited":null}]`), nil)

	res, err := src.Fetch(context.Background(), client.PatentQuery{})
	require.NoError(t, err)

	assert.Len(t, res.Patents, 2)
	assert.Equal(t, 2, res.Stats.TotalCount)
	assert.False(t, res.Truncated())
	assert.Nil(t, res.Patents[1].TimesCited)
}

func TestJSONFile_EmptyPatents(t *testing.T) {
	src := NewJSONFile(writeFile(t, `{"_stats":{"total_count":0}}`), nil)

	res, err := src.Fetch(context.Background(), client.PatentQuery{})
	require.NoError(t, err)
	assert.NotNil(t, res.Patents)
	assert.Empty(t, res.Patents)
}

func TestJSONFile_Missing(t *testing.T) {
	src := NewJSONFile(filepath.Join(t.TempDir(), "nope.json"), nil)

	_, err := src.Fetch(context.Background(), client.PatentQuery{})
	assert.True(t, errors.IsNotFound(err))
}

func TestJSONFile_Malformed(t *testing.T) {
	for name, content := range map[string]string{
		"empty":     "   ",
		"truncated": `{"patents": [`,
		"bad array": `[1, 2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewJSONFile(writeFile(t, content), nil).Fetch(context.Background(), client.PatentQuery{})
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
		})
	}
}

func TestJSONFile_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewJSONFile(writeFile(t, fullResponse), nil).Fetch(ctx, client.PatentQuery{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestJSONFile_Check(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, NewJSONFile(writeFile(t, fullResponse), nil).Check(ctx))

	err := NewJSONFile(filepath.Join(t.TempDir(), "nope.json"), nil).Check(ctx)
	assert.True(t, errors.IsNotFound(err))

	err = NewJSONFile(t.TempDir(), nil).Check(ctx)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

//Personal.AI order the ending
