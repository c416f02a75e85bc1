package dsl

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	decimalRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	sizeRe    = regexp.MustCompile(`^(\d+)\s*(?:,\s*(\d+))?$`)
)

// ExtractName читает имя после ведущего '@' или '#'.
// Имя заканчивается на '(' или пробеле; буква после пробела или любой другой символ — ErrInvalidName.
func ExtractName(token string) (string, error) {
	if len(token) < 2 || (token[0] != '@' && token[0] != '#') {
		return "", ErrInvalidName
	}
	var sb strings.Builder
	blank := false
	for _, r := range token[1:] {
		if r == '(' {
			break
		}
		switch {
		case unicode.IsSpace(r):
			blank = true
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			if blank {
				return "", ErrInvalidName
			}
			sb.WriteRune(r)
		default:
			return "", ErrInvalidName
		}
	}
	name := sb.String()
	if first, _ := utf8.DecodeRuneInString(name); name == "" || !unicode.IsLetter(first) {
		return "", ErrInvalidName
	}
	return name, nil
}

// ExtractParameter возвращает текст между первой '(' и последней ')'.
// present=false, если скобок нет вовсе.
func ExtractParameter(token string) (raw string, present bool, err error) {
	open := strings.IndexByte(token, '(')
	closing := strings.LastIndexByte(token, ')')
	switch {
	case open < 0 && closing < 0:
		return "", false, nil
	case open < 0:
		return "", false, ErrOpenParenMissing
	case closing < 0:
		return "", false, ErrCloseParenMissing
	case closing < open:
		return "", false, ErrUnbalanced
	}
	return token[open+1 : closing], true, nil
}

// ParseParameter приводит сырой параметр к ожидаемому виду.
// origin: имя сущности-источника, нужно только для FK (имя по умолчанию).
func ParseParameter(kind ParamKind, raw string, present bool, origin string) (any, error) {
	s := strings.TrimSpace(raw)
	if kind == ParamNone {
		if present {
			return nil, ErrUnexpectedParameter
		}
		return nil, nil
	}
	if !present || s == "" {
		switch kind {
		case ParamList:
			return nil, ErrInvalidList
		case ParamInteger:
			return nil, ErrInvalidInteger
		case ParamDecimal:
			return nil, ErrInvalidDecimal
		case ParamSize:
			return nil, ErrInvalidSize
		}
		return nil, ErrParameterRequired
	}

	switch kind {
	case ParamInteger:
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, ErrInvalidInteger
		}
		return n, nil
	case ParamDecimal:
		if !decimalRe.MatchString(s) {
			return nil, ErrInvalidDecimal
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, ErrInvalidDecimal
		}
		return f, nil
	case ParamBoolean:
		switch strings.ToLower(s) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, ErrInvalidBoolean
	case ParamString:
		return Unquote(s), nil
	case ParamSize:
		return parseSize(s)
	case ParamList:
		return parseList(s)
	case ParamFK:
		return ParseFKParameter(s, origin)
	}
	return nil, ErrUnexpectedParameter
}

func parseSize(s string) (Size, error) {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return Size{}, ErrInvalidSize
	}
	p, err := strconv.Atoi(m[1])
	if err != nil {
		return Size{}, ErrInvalidSize
	}
	out := Size{Precision: p}
	if m[2] != "" {
		sc, err := strconv.Atoi(m[2])
		if err != nil {
			return Size{}, ErrInvalidSize
		}
		out.Scale = sc
		out.HasScale = true
	}
	return out, nil
}

func parseList(s string) ([]string, error) {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, ErrInvalidList
		}
		out = append(out, p)
	}
	return out, nil
}

// Unquote: обрезает пробелы, снимает одну пару внешних кавычек, \" -> "
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	return s
}

// Quote: обратная операция к Unquote
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
