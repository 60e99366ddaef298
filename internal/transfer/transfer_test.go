package transfer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/pkg/models"
)

var shelf = []models.Book{
	{ID: "0190a3c4-1111-7000-8000-000000000001", Title: "Dune", Author: "Frank Herbert", Year: 1965, IsComplete: true},
	{ID: "0190a3c4-1111-7000-8000-000000000002", Title: `Tales, "quoted"`, Author: "O'Brien", Year: 1999},
}

func TestExportDecode(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatCSV, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Export(&buf, f, shelf))

			got, err := Decode(&buf, f)
			require.NoError(t, err)
			if diff := cmp.Diff(shelf, got); diff != "" {
				t.Errorf("decoded shelf mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExportEmptyJSONIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestDecodeLegacyJSON(t *testing.T) {
	in := `[{"id":1700000000000,"title":"Emma","author":"Austen","year":1815,"isComplete":false}]`
	got, err := Decode(strings.NewReader(in), FormatJSON)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.BookID("1700000000000"), got[0].ID)
}

func TestDecodeYAMLNumericID(t *testing.T) {
	in := "- id: 42\n  title: Emma\n  author: Austen\n  year: 1815\n"
	got, err := Decode(strings.NewReader(in), FormatYAML)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.BookID("42"), got[0].ID)
}

func TestDecodeCSVColumnOrderAndAliases(t *testing.T) {
	in := "Title,Author,Year,is_complete\nEmma,Austen,1815,yes\nUlysses,Joyce,,false\n"
	got, err := Decode(strings.NewReader(in), FormatCSV)
	require.NoError(t, err)

	want := []models.Book{
		{Title: "Emma", Author: "Austen", Year: 1815, IsComplete: true},
		{Title: "Ulysses", Author: "Joyce"},
	}
	assert.Equal(t, want, got)
}

func TestDecodeCSVBadYear(t *testing.T) {
	in := "title,author,year\nEmma,Austen,eighteen\n"
	_, err := Decode(strings.NewReader(in), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestDecodeEmpty(t *testing.T) {
	got, err := Decode(strings.NewReader(""), FormatCSV)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Decode(strings.NewReader(""), FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	assert.Equal(t, FormatCSV, FormatFromPath("out/shelf.csv"))
	assert.Equal(t, FormatJSON, FormatFromPath("shelf"))
	assert.Equal(t, FormatJSON, FormatFromPath("shelf.txt"))
}
