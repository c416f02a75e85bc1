package dsl

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrUnterminatedParen = errors.New("unterminated parenthesis")

// Element: лексема с номером строки (1-based). Живёт только до разбора сущности.
type Element struct {
	Line int
	Text string
}

func (e Element) String() string { return fmt.Sprintf("%d:%s", e.Line, e.Text) }

func (e Element) is(s string) bool { return e.Text == s }

// LexFile читает файл и токенизирует его; ошибка чтения — KindLex
func LexFile(path string) ([]Element, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Kind: KindLex, Message: "cannot read file: " + err.Error(), Cause: err}
	}
	return Lex(src)
}

// Lex режет текст на элементы:
//   - "//" отрезает остаток строки;
//   - пробелы разделяют элементы;
//   - ':' ';' '{' '}' всегда отдельные элементы;
//   - ',' отдельный элемент только в начале элемента, иначе остаётся в нём ("@Id,");
//   - "(...)" захватывается целиком в текущий элемент и завершает его.
func Lex(src []byte) ([]Element, error) {
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	var out []Element
	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}

		var cur strings.Builder
		flush := func() {
			if cur.Len() > 0 {
				out = append(out, Element{Line: lineNo, Text: cur.String()})
				cur.Reset()
			}
		}

		for pos := 0; pos < len(line); pos++ {
			c := line[pos]
			switch c {
			case ' ', '\t', '\r', '\f', '\v':
				flush()
			case ':', ';', '{', '}':
				flush()
				out = append(out, Element{Line: lineNo, Text: string(c)})
			case ',':
				if cur.Len() == 0 {
					out = append(out, Element{Line: lineNo, Text: ","})
				} else {
					cur.WriteByte(c)
				}
			case '(':
				end := strings.IndexByte(line[pos:], ')')
				if end < 0 {
					cur.WriteString(line[pos:])
					return nil, &Error{
						Kind:    KindLex,
						Line:    lineNo,
						Token:   cur.String(),
						Message: ErrUnterminatedParen.Error(),
						Cause:   ErrUnterminatedParen,
					}
				}
				cur.WriteString(line[pos : pos+end+1])
				flush()
				pos += end
			default:
				cur.WriteByte(c)
			}
		}
		flush()
	}
	return out, nil
}
