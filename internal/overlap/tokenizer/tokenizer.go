// Package tokenizer converts raw text into token sequences for n-gram
// generation. The same tokenizer must be used for both benchmark indexing
// and corpus scanning: mixing modes silently yields zero matches.
package tokenizer

import (
	"strings"
	"unicode"

	snowballeng "github.com/kljensen/snowball/english"

	apperrors "github.com/Adithya-Monish-Kumar-K/Data-Overlap-Detection-Platform/pkg/errors"
)

// Normalization modes accepted by New.
const (
	ModeNone     = "none"
	ModeDefault  = "default"
	ModeStemming = "stemming"
)

// Tokenizer turns text into an ordered token sequence. Implementations are
// stateless and safe for concurrent use.
type Tokenizer interface {
	Tokenize(text string) []string
}

// New returns the tokenizer for the given normalization mode. An unknown
// mode is a configuration error.
func New(mode string) (Tokenizer, error) {
	switch mode {
	case ModeNone:
		return identity{}, nil
	case ModeDefault:
		return normalizing{}, nil
	case ModeStemming:
		return normalizing{stem: true}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrUnknownNormalization, "%q", mode)
	}
}

// identity splits on whitespace only, preserving case and punctuation.
type identity struct{}

func (identity) Tokenize(text string) []string {
	return strings.Fields(text)
}

// normalizing lowercases, strips punctuation, and splits on whitespace runs.
// With stem set it additionally reduces each token to its Snowball English
// stem.
type normalizing struct {
	stem bool
}

func (t normalizing) Tokenize(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	tokens := strings.Fields(cleaned)
	if !t.stem {
		return tokens
	}
	for i, token := range tokens {
		tokens[i] = snowballeng.Stem(token, false)
	}
	return tokens
}
