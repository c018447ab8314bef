package tokenizer

import (
	"errors"
	"reflect"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

func TestIdentityPreservesCaseAndPunctuation(t *testing.T) {
	tok, err := New(ModeNone)
	if err != nil {
		t.Fatalf("New(none): %v", err)
	}
	got := tok.Tokenize("The cat, sat!  On the MAT.")
	want := []string{"The", "cat,", "sat!", "On", "the", "MAT."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("identity tokens = %v, want %v", got, want)
	}
}

func TestDefaultNormalizes(t *testing.T) {
	tok, err := New(ModeDefault)
	if err != nil {
		t.Fatalf("New(default): %v", err)
	}
	got := tok.Tokenize("The cat, sat!  On the MAT.")
	want := []string{"the", "cat", "sat", "on", "the", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("default tokens = %v, want %v", got, want)
	}
}

func TestDefaultCollapsesWhitespace(t *testing.T) {
	tok, _ := New(ModeDefault)
	got := tok.Tokenize("a\t b\n\n  c")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestDefaultDropsPunctuationInsideWords(t *testing.T) {
	tok, _ := New(ModeDefault)
	got := tok.Tokenize("don't stop")
	want := []string{"dont", "stop"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("tokens = %v, want %v", got, want)
	}
}

func TestStemmingReducesTokens(t *testing.T) {
	tok, err := New(ModeStemming)
	if err != nil {
		t.Fatalf("New(stemming): %v", err)
	}
	got := tok.Tokenize("Running quickly")
	want := []string{"run", "quick"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("stemmed tokens = %v, want %v", got, want)
	}
}

func TestEmptyTextYieldsNoTokens(t *testing.T) {
	for _, mode := range []string{ModeNone, ModeDefault, ModeStemming} {
		tok, _ := New(mode)
		if got := tok.Tokenize(""); len(got) != 0 {
			t.Errorf("mode %s: Tokenize(empty) = %v, want none", mode, got)
		}
		if got := tok.Tokenize("   \t\n"); len(got) != 0 {
			t.Errorf("mode %s: Tokenize(whitespace) = %v, want none", mode, got)
		}
	}
}

func TestDeterminism(t *testing.T) {
	tok, _ := New(ModeDefault)
	text := "Paris is the capital of France, and the cat sat on the mat."
	first := tok.Tokenize(text)
	for i := 0; i < 10; i++ {
		if got := tok.Tokenize(text); !reflect.DeepEqual(got, first) {
			t.Fatalf("tokenization not deterministic: %v vs %v", got, first)
		}
	}
}

func TestUnknownModeFails(t *testing.T) {
	if _, err := New("aggressive"); !errors.Is(err, apperrors.ErrUnknownNormalization) {
		t.Errorf("New(aggressive) error = %v, want ErrUnknownNormalization", err)
	}
}
