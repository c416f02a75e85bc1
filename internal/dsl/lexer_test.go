package dsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(els []Element) []string {
	out := make([]string, 0, len(els))
	for _, e := range els {
		out = append(out, e.Text)
	}
	return out
}

func TestLex(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "field without block",
			src:  "id : int ;",
			want: []string{"id", ":", "int", ";"},
		},
		{
			name: "punctuation glued to words",
			src:  "id:int{@Id};",
			want: []string{"id", ":", "int", "{", "@Id", "}", ";"},
		},
		{
			name: "parameter stays with annotation",
			src:  `label : string { @Label("a b; c") } ;`,
			want: []string{"label", ":", "string", "{", `@Label("a b; c")`, "}", ";"},
		},
		{
			name: "comma after paren is standalone",
			src:  "@Max(12), @Min(0)",
			want: []string{"@Max(12)", ",", "@Min(0)"},
		},
		{
			name: "trailing comma kept in element",
			src:  "@Id, @NotNull",
			want: []string{"@Id,", "@NotNull"},
		},
		{
			name: "comment stripped",
			src:  "a : int ; // comment { }\n// whole line\nb : int ;",
			want: []string{"a", ":", "int", ";", "b", ":", "int", ";"},
		},
		{
			name: "crlf",
			src:  "Book {\r\n  id : int ;\r\n}\r\n",
			want: []string{"Book", "{", "id", ":", "int", ";", "}"},
		},
		{
			name: "empty",
			src:  "  \n\t\n",
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			els, err := Lex([]byte(tt.src))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, texts(els)); diff != "" {
				t.Errorf("Lex() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLex_LineNumbers(t *testing.T) {
	els, err := Lex([]byte("Book {\n  id : int ;\n\n  title : string ;\n}"))
	require.NoError(t, err)
	lines := make([]int, 0, len(els))
	for _, e := range els {
		lines = append(lines, e.Line)
	}
	assert.Equal(t, []int{1, 1, 2, 2, 2, 2, 4, 4, 4, 4, 5}, lines)
}

func TestLex_UnterminatedParen(t *testing.T) {
	_, err := Lex([]byte("a : string { @Label(\"x\" } ;\nb : int ;"))
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindLex, e.Kind)
	assert.Equal(t, 1, e.Line)
	assert.ErrorIs(t, err, ErrUnterminatedParen)
}

func TestLexFile_Missing(t *testing.T) {
	_, err := LexFile(filepath.Join(t.TempDir(), "Nope.entity"))
	require.Error(t, err)
	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindLex, e.Kind)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
