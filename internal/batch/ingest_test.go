package batch

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest_Scenario(t *testing.T) {
	input := "content,type,label\n" +
		"https://example.com,,Home\n" +
		",,Empty\n" +
		"\"BEGIN:VCARD\nFN:Ada\nEND:VCARD\",,Card\n"

	res, err := IngestString(input)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 2, res.TotalRows)
	assert.Equal(t, 1, res.SkippedRows)
	require.Len(t, res.Items, 2)

	assert.Equal(t, Record{Row: 1, Content: "https://example.com", QRType: "url", Label: "Home"}, res.Items[0])
	assert.Equal(t, 3, res.Items[1].Row)
	assert.Equal(t, "vcard", res.Items[1].QRType)
	assert.Equal(t, "Card", res.Items[1].Label)
}

func TestIngest_Columns(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []Record
	}{
		{
			name:  "content only classifies",
			input: "content\ntel:123\nhello\n",
			want: []Record{
				{Row: 1, Content: "tel:123", QRType: "phone"},
				{Row: 2, Content: "hello", QRType: "text"},
			},
		},
		{
			name:  "explicit type lower cased and trimmed",
			input: "content,type\nhello,  URL \n",
			want:  []Record{{Row: 1, Content: "hello", QRType: "url"}},
		},
		{
			name:  "unknown type kept verbatim",
			input: "content,type\nhello,Barcode\n",
			want:  []Record{{Row: 1, Content: "hello", QRType: "barcode"}},
		},
		{
			name:  "header case insensitive and reordered",
			input: "Label,CONTENT, Type \nHome,https://a.example,\n",
			want:  []Record{{Row: 1, Content: "https://a.example", QRType: "url", Label: "Home"}},
		},
		{
			name:  "extra columns ignored",
			input: "id,content,notes\n7,geo:1,2,x\n",
			want:  []Record{{Row: 1, Content: "geo:1", QRType: "geo"}},
		},
		{
			name:  "ragged row missing type and label",
			input: "content,type,label\nmailto:a@b.c\n",
			want:  []Record{{Row: 1, Content: "mailto:a@b.c", QRType: "email"}},
		},
		{
			name:  "content trimmed, blank label dropped",
			input: "content,label\n  hello  ,   \n",
			want:  []Record{{Row: 1, Content: "hello", QRType: "text"}},
		},
		{
			name:  "row indices keep gaps",
			input: "content\na\n   \nb\n\"\"\nc\n",
			want: []Record{
				{Row: 1, Content: "a", QRType: "text"},
				{Row: 3, Content: "b", QRType: "text"},
				{Row: 5, Content: "c", QRType: "text"},
			},
		},
		{
			name:  "utf8 bom before header",
			input: "\xef\xbb\xbfcontent\nhello\n",
			want:  []Record{{Row: 1, Content: "hello", QRType: "text"}},
		},
		{
			name:  "crlf line endings",
			input: "content,label\r\nhello,L1\r\n",
			want:  []Record{{Row: 1, Content: "hello", QRType: "text", Label: "L1"}},
		},
		{
			name:  "header only",
			input: "content,type,label\n",
			want:  []Record{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := IngestString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Items)
			assert.Equal(t, len(res.Items), res.TotalRows)
		})
	}
}

func TestIngest_MissingContentColumn(t *testing.T) {
	inputs := []string{
		"type,label\nurl,Home\n",
		"contents\nhello\n",
		"label\n",
	}
	for _, input := range inputs {
		res, err := IngestString(input)
		assert.Nil(t, res, "input %q", input)
		assert.ErrorIs(t, err, ErrMissingContentColumn, "input %q", input)
	}
}

func TestIngest_EmptyInput(t *testing.T) {
	res, err := IngestString("")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestIngest_LenientQuotes(t *testing.T) {
	res, err := IngestString("content,label\nhttps://example.com,27\" monitor\nhello,ok\n")
	require.NoError(t, err)
	require.Len(t, res.Items, 2)
	assert.Equal(t, `27" monitor`, res.Items[0].Label)
	assert.Equal(t, "hello", res.Items[1].Content)
	assert.Equal(t, 2, res.Items[1].Row)

	res, err = IngestString("content\nsay \"hi\" twice\n")
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, `say "hi" twice`, res.Items[0].Content)
}

func TestIngest_ReadFailureAborts(t *testing.T) {
	tests := []struct {
		name     string
		input    io.Reader
		wantLine int
	}{
		{
			name:     "fails after first data row",
			input:    io.MultiReader(strings.NewReader("content\nok\n"), iotest.ErrReader(io.ErrUnexpectedEOF)),
			wantLine: 3,
		},
		{
			name:     "fails inside header",
			input:    io.MultiReader(strings.NewReader("cont"), iotest.ErrReader(io.ErrUnexpectedEOF)),
			wantLine: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Ingest(tt.input)
			assert.Nil(t, res)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "err = %v", err)
			assert.Equal(t, tt.wantLine, pe.Line)
			assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			assert.Contains(t, err.Error(), "row")
		})
	}
}

// Whitespace-only content never produces a record or an error.
func TestIngest_DropsBlankContent(t *testing.T) {
	var b strings.Builder
	b.WriteString("content,label\n")
	for i := 0; i < 50; i++ {
		if i%3 == 0 {
			b.WriteString("x,keep\n")
		} else {
			b.WriteString(" \t ,drop\n")
		}
	}

	res, err := IngestString(b.String())
	require.NoError(t, err)
	assert.Equal(t, len(res.Items), res.TotalRows)
	assert.Equal(t, 17, res.TotalRows)
	assert.Equal(t, 33, res.SkippedRows)
	for _, rec := range res.Items {
		assert.Equal(t, "keep", rec.Label)
		assert.Equal(t, 1, rec.Row%3)
	}
}
