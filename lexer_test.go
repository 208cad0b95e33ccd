package main

import (
	"testing"

	"github.com/nalgeon/be"
)

func lexAll(src string) []Token {
	l := NewLexer([]byte(src + "\x00"))
	var toks []Token
	for {
		t := l.Next()
		if t.Kind == TokEOF {
			return toks
		}
		if isSkipToken(t.Kind) {
			continue
		}
		toks = append(toks, t)
	}
}

func TestLexerIdentifiers(t *testing.T) {
	toks := lexAll("foo bar_1 _x")
	be.Equal(t, len(toks), 3)
	be.Equal(t, toks[0].Kind, TokIdent)
	be.Equal(t, toks[0].Text, "foo")
	be.Equal(t, toks[2].Text, "_x")
}

func TestLexerCallAndIndexTokens(t *testing.T) {
	toks := lexAll("foo(1) bar[2]")
	be.Equal(t, toks[0].Kind, TokIdentCall)
	be.Equal(t, toks[0].Text, "foo")

	var indexTok Token
	for _, tok := range toks {
		if tok.Kind == TokIdentIndex {
			indexTok = tok
		}
	}
	be.Equal(t, indexTok.Text, "bar")
}

func TestLexerNumberSuffixes(t *testing.T) {
	toks := lexAll("1 1x32 1x64 1.5 1.5x32")
	be.Equal(t, toks[0].Kind, TokInt)
	be.Equal(t, toks[0].Text, "1")
	be.Equal(t, toks[1].Text, "1x32")
	be.Equal(t, toks[2].Text, "1x64")
	be.Equal(t, toks[3].Kind, TokFloat)
	be.Equal(t, toks[3].Text, "1.5")
	be.Equal(t, toks[4].Text, "1.5x32")
}

func TestLexerOperators(t *testing.T) {
	toks := lexAll("+ - ++ -- == != <= >= << >>")
	kinds := []TokenKind{TokPlus, TokMinus, TokPlusPlus, TokMinusMinus, TokEq, TokNotEq, TokLe, TokGe, TokShl, TokShr}
	be.Equal(t, len(toks), len(kinds))
	for i, k := range kinds {
		be.Equal(t, toks[i].Kind, k)
	}
}

func TestLexerKeywords(t *testing.T) {
	toks := lexAll("fn if else loop break continue yield return import export as and or ptr memory table allocate_pages to_i32 to_i64 to_f32 to_f64 leading_zeros")
	be.Equal(t, toks[0].Kind, TokFunc)
	be.Equal(t, toks[len(toks)-1].Kind, TokLeadingZeros)
}

func TestLexerSkipsComments(t *testing.T) {
	toks := lexAll("a // comment\nb /* block */ c")
	be.Equal(t, len(toks), 4) // a, newline, b, c
	be.Equal(t, toks[0].Text, "a")
	be.Equal(t, toks[1].Kind, TokNewline)
	be.Equal(t, toks[2].Text, "b")
	be.Equal(t, toks[3].Text, "c")
}

func TestLexerString(t *testing.T) {
	toks := lexAll(`"hello\"world"`)
	be.Equal(t, len(toks), 1)
	be.Equal(t, toks[0].Kind, TokString)
}

func TestLexerBadToken(t *testing.T) {
	toks := lexAll("@")
	be.Equal(t, toks[0].Kind, TokBad)
}
