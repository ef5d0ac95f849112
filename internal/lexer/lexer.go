// Package lexer scans source text into a flat []token.Token vector for
// the token provider (internal/tokenstream) to walk. The tokenizer
// itself is out of spec.md's core scope (§1: "the tokenizer... These
// are specified only as the contracts the core consumes") — this is
// ambient scaffolding so the pipeline is runnable end to end, kept
// deliberately small and grounded on the teacher's own
// switch-on-current-rune design (internal/lexer/lexer.go).
package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/torlang/torc/internal/token"
)

var keywords = map[string]token.Kind{
	"true": token.KW_TRUE, "false": token.KW_FALSE, "nullptr": token.KW_NULLPTR,
	"i8": token.KW_I8, "i16": token.KW_I16, "i32": token.KW_I32, "i64": token.KW_I64,
	"u8": token.KW_U8, "u16": token.KW_U16, "u32": token.KW_U32, "u64": token.KW_U64,
	"f32": token.KW_F32, "f64": token.KW_F64, "bool": token.KW_BOOL, "void": token.KW_VOID,
	"if": token.KW_IF, "else": token.KW_ELSE, "while": token.KW_WHILE, "for": token.KW_FOR,
	"switch": token.KW_SWITCH, "case": token.KW_CASE, "default": token.KW_DEFAULT,
	"break": token.KW_BREAK, "continue": token.KW_CONTINUE, "fall": token.KW_FALL,
	"return": token.KW_RETURN, "defer": token.KW_DEFER,
	"struct": token.KW_STRUCT, "enum": token.KW_ENUM, "typedef": token.KW_TYPEDEF,
	"template": token.KW_TEMPLATE, "define": token.KW_DEFINE, "const": token.KW_CONST,
	"volatile": token.KW_VOLATILE, "extern": token.KW_EXTERN, "export": token.KW_EXPORT,
	"auto": token.KW_AUTO, "as": token.KW_AS,
	"include": token.KW_INCLUDE, "va_arg": token.KW_VA_ARG,
	"raw_c": token.KW_RAW_C, "raw_ir": token.KW_RAW_IR,
	"sizeof": token.KW_SIZEOF, "cast": token.KW_CAST, "make": token.KW_MAKE, "len": token.KW_LEN,
}

// Lexer is a single-pass scanner over UTF-8 source text.
type Lexer struct {
	input        string
	sourceIndex  int
	position     int
	readPosition int
	ch           rune
	line         int
}

func New(input string, sourceIndex int) *Lexer {
	l := &Lexer{input: input, sourceIndex: sourceIndex, line: 1}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) loc() token.Location { return token.Location{SourceIndex: l.sourceIndex, Line: l.line} }

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || l.ch == '\n' {
			l.readChar()
		}
		if l.ch == '/' && l.peekChar() == '/' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		if l.ch == '/' && l.peekChar() == '*' {
			l.readChar()
			l.readChar()
			for !(l.ch == '*' && l.peekChar() == '/') && l.ch != 0 {
				l.readChar()
			}
			l.readChar()
			l.readChar()
			continue
		}
		break
	}
}

func single(k token.Kind, text string, loc token.Location) token.Token {
	return token.Token{Kind: k, Text: text, Loc: loc}
}

// two attempts to extend a one-character operator to a two-character
// one when the peek matches; returns ok=false if it didn't apply.
func (l *Lexer) two(peek byte, k token.Kind, text string) (token.Token, bool) {
	if l.peekChar() == rune(peek) {
		loc := l.loc()
		l.readChar()
		return single(k, text, loc), true
	}
	return token.Token{}, false
}

// Tokenize scans the entire input and returns the resulting vector,
// terminated by a single EOF token.
func Tokenize(input string, sourceIndex int) []token.Token {
	l := New(input, sourceIndex)
	var out []token.Token
	for {
		t := l.next()
		out = append(out, t)
		if t.Kind == token.EOF {
			break
		}
	}
	return out
}

func (l *Lexer) next() token.Token {
	l.skipWhitespaceAndComments()
	loc := l.loc()

	switch {
	case l.ch == 0:
		return single(token.EOF, "", loc)
	case unicode.IsLetter(l.ch) || l.ch == '_':
		return l.readIdent()
	case unicode.IsDigit(l.ch):
		return l.readNumber()
	case l.ch == '"':
		return l.readString()
	}

	ch := l.ch
	switch ch {
	case '(':
		l.readChar()
		return single(token.LPAREN, "(", loc)
	case ')':
		l.readChar()
		return single(token.RPAREN, ")", loc)
	case '{':
		l.readChar()
		return single(token.LBRACE, "{", loc)
	case '}':
		l.readChar()
		return single(token.RBRACE, "}", loc)
	case '[':
		l.readChar()
		return single(token.LBRACKET, "[", loc)
	case ']':
		l.readChar()
		return single(token.RBRACKET, "]", loc)
	case ',':
		l.readChar()
		return single(token.COMMA, ",", loc)
	case ';':
		l.readChar()
		return single(token.SEMI, ";", loc)
	case ':':
		l.readChar()
		return single(token.COLON, ":", loc)
	case '.':
		l.readChar()
		return single(token.DOT, ".", loc)
	case '?':
		l.readChar()
		return single(token.QUESTION, "?", loc)
	case '~':
		l.readChar()
		return single(token.TILDE, "~", loc)
	case '^':
		l.readChar()
		return single(token.CARET, "^", loc)
	case '+':
		if t, ok := l.two('=', token.PLUS_ASSIGN, "+="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.PLUS, "+", loc)
	case '-':
		if t, ok := l.two('=', token.MINUS_ASSIGN, "-="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.MINUS, "-", loc)
	case '*':
		if t, ok := l.two('=', token.STAR_ASSIGN, "*="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.STAR, "*", loc)
	case '/':
		if t, ok := l.two('=', token.SLASH_ASSIGN, "/="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.SLASH, "/", loc)
	case '%':
		if t, ok := l.two('=', token.PERCENT_ASSIGN, "%="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.PERCENT, "%", loc)
	case '!':
		if t, ok := l.two('=', token.NE, "!="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.BANG, "!", loc)
	case '=':
		if t, ok := l.two('=', token.EQ, "=="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.ASSIGN, "=", loc)
	case '<':
		if l.peekChar() == '<' {
			l.readChar()
			l.readChar()
			return single(token.SHL, "<<", loc)
		}
		if t, ok := l.two('=', token.LE, "<="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.LT, "<", loc)
	case '>':
		if l.peekChar() == '>' {
			l.readChar()
			l.readChar()
			return single(token.SHR, ">>", loc)
		}
		if t, ok := l.two('=', token.GE, ">="); ok {
			l.readChar()
			return t
		}
		l.readChar()
		return single(token.GT, ">", loc)
	case '&':
		if l.peekChar() == '&' {
			l.readChar()
			l.readChar()
			return single(token.ANDAND, "&&", loc)
		}
		l.readChar()
		return single(token.AMP, "&", loc)
	case '|':
		if l.peekChar() == '|' {
			l.readChar()
			l.readChar()
			return single(token.OROR, "||", loc)
		}
		l.readChar()
		return single(token.PIPE, "|", loc)
	}

	l.readChar()
	return single(token.NONE, string(ch), loc)
}

func (l *Lexer) readIdent() token.Token {
	loc := l.loc()
	start := l.position
	for unicode.IsLetter(l.ch) || unicode.IsDigit(l.ch) || l.ch == '_' {
		l.readChar()
	}
	text := l.input[start:l.position]
	if kind, ok := keywords[text]; ok {
		return single(kind, text, loc)
	}
	return single(token.IDENT, text, loc)
}

func (l *Lexer) readNumber() token.Token {
	loc := l.loc()
	start := l.position
	isFloat := false
	for unicode.IsDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && unicode.IsDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for unicode.IsDigit(l.ch) {
			l.readChar()
		}
	}
	text := l.input[start:l.position]
	if isFloat {
		f, _ := strconv.ParseFloat(text, 64)
		return token.Token{Kind: token.FLOAT, Text: text, Loc: loc,
			Literal: token.Literal{Kind: token.LitFloat, F: f}}
	}
	i, _ := strconv.ParseInt(text, 10, 64)
	return token.Token{Kind: token.INT, Text: text, Loc: loc,
		Literal: token.Literal{Kind: token.LitInt, I: i}}
}

func (l *Lexer) readString() token.Token {
	loc := l.loc()
	l.readChar() // consume opening quote
	var sb strings.Builder
	for l.ch != '"' && l.ch != 0 {
		if l.ch == '\\' {
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			default:
				sb.WriteRune(l.ch)
			}
			l.readChar()
			continue
		}
		sb.WriteRune(l.ch)
		l.readChar()
	}
	l.readChar() // consume closing quote
	s := sb.String()
	return token.Token{Kind: token.STRING, Text: s, Loc: loc,
		Literal: token.Literal{Kind: token.LitString, S: s}}
}
