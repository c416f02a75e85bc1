package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractName(t *testing.T) {
	tests := []struct {
		token   string
		want    string
		wantErr bool
	}{
		{token: "@Id", want: "Id"},
		{token: "@Max(12)", want: "Max"},
		{token: "#Tag_1(\"x\")", want: "Tag_1"},
		{token: "@Label (\"x\")", want: "Label"},
		{token: "@Id,", wantErr: true},
		{token: "@Not Null", wantErr: true},
		{token: "@1abc", wantErr: true},
		{token: "@", wantErr: true},
		{token: "Id", wantErr: true},
		{token: "@(12)", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := ExtractName(tt.token)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractParameter(t *testing.T) {
	raw, present, err := ExtractParameter("@Label(\"a (b)\")")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "\"a (b)\"", raw)

	_, present, err = ExtractParameter("@NotNull")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = ExtractParameter("@Max12)")
	assert.ErrorIs(t, err, ErrOpenParenMissing)
	_, _, err = ExtractParameter("@Max(12")
	assert.ErrorIs(t, err, ErrCloseParenMissing)
	_, _, err = ExtractParameter("@Max)12(")
	assert.ErrorIs(t, err, ErrUnbalanced)
}

func TestParseParameter(t *testing.T) {
	tests := []struct {
		name    string
		kind    ParamKind
		raw     string
		present bool
		want    any
		wantErr error
	}{
		{name: "none absent", kind: ParamNone, want: nil},
		{name: "none present", kind: ParamNone, raw: "1", present: true, wantErr: ErrUnexpectedParameter},
		{name: "integer", kind: ParamInteger, raw: " 42 ", present: true, want: 42},
		{name: "negative integer", kind: ParamInteger, raw: "-3", present: true, want: -3},
		{name: "integer missing", kind: ParamInteger, wantErr: ErrInvalidInteger},
		{name: "integer blank", kind: ParamInteger, raw: "  ", present: true, wantErr: ErrInvalidInteger},
		{name: "integer invalid", kind: ParamInteger, raw: "4.2", present: true, wantErr: ErrInvalidInteger},
		{name: "decimal", kind: ParamDecimal, raw: "12.5", present: true, want: 12.5},
		{name: "decimal from int", kind: ParamDecimal, raw: "12", present: true, want: 12.0},
		{name: "decimal leading dot", kind: ParamDecimal, raw: "-.5", present: true, want: -0.5},
		{name: "decimal blank", kind: ParamDecimal, raw: "", present: true, wantErr: ErrInvalidDecimal},
		{name: "decimal invalid", kind: ParamDecimal, raw: "1e3", present: true, wantErr: ErrInvalidDecimal},
		{name: "boolean", kind: ParamBoolean, raw: "TRUE", present: true, want: true},
		{name: "boolean false", kind: ParamBoolean, raw: "False", present: true, want: false},
		{name: "boolean invalid", kind: ParamBoolean, raw: "yes", present: true, wantErr: ErrInvalidBoolean},
		{name: "string quoted", kind: ParamString, raw: ` "a \"b\"" `, present: true, want: `a "b"`},
		{name: "string bare", kind: ParamString, raw: "abc", present: true, want: "abc"},
		{name: "size", kind: ParamSize, raw: "10", present: true, want: Size{Precision: 10}},
		{name: "size with scale", kind: ParamSize, raw: "10 , 2", present: true, want: Size{Precision: 10, Scale: 2, HasScale: true}},
		{name: "size negative", kind: ParamSize, raw: "-1", present: true, wantErr: ErrInvalidSize},
		{name: "size missing", kind: ParamSize, wantErr: ErrInvalidSize},
		{name: "string missing", kind: ParamString, wantErr: ErrParameterRequired},
		{name: "size three parts", kind: ParamSize, raw: "1,2,3", present: true, wantErr: ErrInvalidSize},
		{name: "list", kind: ParamList, raw: " a , b,c ", present: true, want: []string{"a", "b", "c"}},
		{name: "list missing", kind: ParamList, wantErr: ErrInvalidList},
		{name: "list empty item", kind: ParamList, raw: "a,,b", present: true, wantErr: ErrInvalidList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParameter(tt.kind, tt.raw, tt.present, "Book")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseParameter_FK(t *testing.T) {
	v, err := ParseParameter(ParamFK, "Author", true, "Book")
	require.NoError(t, err)
	fk, ok := v.(*FKElement)
	require.True(t, ok)
	assert.Equal(t, "FK_Book_Author", fk.Name)
	assert.Equal(t, "Author", fk.Entity)
}

func TestQuoteUnquote_RoundTrip(t *testing.T) {
	values := []string{
		"",
		"plain",
		"with spaces inside",
		`say "hi"`,
		`"`,
		`a"b"c`,
		"юникод",
		"x,y;z{}",
	}
	for _, v := range values {
		assert.Equal(t, v, Unquote(Quote(v)), "value %q", v)
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "abc", Unquote(`  "abc"  `))
	assert.Equal(t, `"abc`, Unquote(`"abc`))
	assert.Equal(t, "abc", Unquote("abc"))
	assert.Equal(t, "", Unquote(`""`))
}
