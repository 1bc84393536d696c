package expression

import (
	"fmt"
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokOp     // == != < <= > >= && || ! -
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lex splits a restricted expression into tokens. The token stream is
// always finite, which is what guarantees evaluator termination.
func lex(src string) ([]token, error) {
	var toks []token
	runes := []rune(src)
	i := 0

	for i < len(runes) {
		c := runes[i]

		switch {
		case unicode.IsSpace(c):
			i++

		case c == '(':
			toks = append(toks, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			toks = append(toks, token{kind: tokRParen, text: ")", pos: i})
			i++
		case c == ',':
			toks = append(toks, token{kind: tokComma, text: ",", pos: i})
			i++

		case c == '&' || c == '|':
			if i+1 >= len(runes) || runes[i+1] != c {
				return nil, fmt.Errorf("unexpected %q at %d", string(c), i)
			}
			toks = append(toks, token{kind: tokOp, text: string([]rune{c, c}), pos: i})
			i += 2

		case c == '=':
			if i+1 >= len(runes) || runes[i+1] != '=' {
				return nil, fmt.Errorf("assignment is not allowed (position %d)", i)
			}
			toks = append(toks, token{kind: tokOp, text: "==", pos: i})
			i += 2

		case c == '!' || c == '<' || c == '>':
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{kind: tokOp, text: string(c) + "=", pos: i})
				i += 2
			} else {
				toks = append(toks, token{kind: tokOp, text: string(c), pos: i})
				i++
			}

		case c == '-':
			toks = append(toks, token{kind: tokOp, text: "-", pos: i})
			i++

		case c == '"' || c == '\'':
			quote := c
			j := i + 1
			var val []rune
			for j < len(runes) && runes[j] != quote {
				if runes[j] == '\\' && j+1 < len(runes) {
					j++
				}
				val = append(val, runes[j])
				j++
			}
			if j >= len(runes) {
				return nil, fmt.Errorf("unterminated string at %d", i)
			}
			toks = append(toks, token{kind: tokString, text: string(val), pos: i})
			i = j + 1

		case unicode.IsDigit(c):
			j := i
			for j < len(runes) && (unicode.IsDigit(runes[j]) || runes[j] == '.') {
				j++
			}
			text := string(runes[i:j])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("bad number %q at %d", text, i)
			}
			toks = append(toks, token{kind: tokNumber, text: text, num: num, pos: i})
			i = j

		case unicode.IsLetter(c) || c == '_':
			j := i
			for j < len(runes) && (unicode.IsLetter(runes[j]) || unicode.IsDigit(runes[j]) || runes[j] == '_' || runes[j] == '.') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(runes[i:j]), pos: i})
			i = j

		default:
			return nil, fmt.Errorf("unexpected character %q at %d", string(c), i)
		}
	}

	toks = append(toks, token{kind: tokEOF, pos: len(runes)})
	return toks, nil
}
