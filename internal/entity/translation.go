package entity

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Token is one positioned token of a tokenized translation.
type Token struct {
	Text string `json:"token"`
	Pos  int    `json:"pos"`
}

// Translation is a tokenized translation of one text source.
type Translation struct {
	Base
	TextSourceID int64   `json:"text_source_id"`
	LanguageCode string  `json:"language_code"`
	Title        string  `json:"title,omitempty"`
	Tokens       []Token `json:"tokens"`
	OriginalText string  `json:"original_text,omitempty"`
}

// NewTranslation constructs an unsaved translation.
func NewTranslation(textSourceID int64, languageCode string, tokens []Token) *Translation {
	return &Translation{
		TextSourceID: textSourceID,
		LanguageCode: languageCode,
		Tokens:       tokens,
	}
}

func (t *Translation) Kind() string      { return "Translation" }
func (t *Translation) TableName() string { return "translations" }

func (t *Translation) InsertColumns() []string {
	return []string{"text_source_id", "language_code", "title", "tokens", "original_text", "metadata"}
}

// UpdateColumns excludes language_code in addition to the parent
// reference; a translation keeps its language for life.
func (t *Translation) UpdateColumns() []string {
	return []string{"title", "tokens", "original_text", "metadata"}
}

// Validate checks the translation constraints, including the structural
// shape of every token.
func (t *Translation) Validate() error {
	if t.TextSourceID <= 0 {
		return &ValidationError{Entity: "Translation", Field: "text_source_id", Value: t.TextSourceID, Reason: "is required and must be positive"}
	}
	if strings.TrimSpace(t.LanguageCode) == "" {
		return &ValidationError{Entity: "Translation", Field: "language_code", Value: t.LanguageCode, Reason: "is required"}
	}
	if utf8.RuneCountInString(t.LanguageCode) > 10 {
		return &ValidationError{Entity: "Translation", Field: "language_code", Value: t.LanguageCode, Reason: "must be 10 characters or less"}
	}
	if utf8.RuneCountInString(t.Title) > 255 {
		return &ValidationError{Entity: "Translation", Field: "title", Value: t.Title, Reason: "must be 255 characters or less"}
	}
	if len(t.Tokens) == 0 {
		return &ValidationError{Entity: "Translation", Field: "tokens", Value: t.Tokens, Reason: "are required"}
	}
	for i, tok := range t.Tokens {
		if tok.Text == "" {
			return &ValidationError{Entity: "Translation", Field: "tokens", Value: tok, Reason: fmt.Sprintf("token at index %d must have a token value", i)}
		}
		if tok.Pos < 0 {
			return &ValidationError{Entity: "Translation", Field: "tokens", Value: tok.Pos, Reason: fmt.Sprintf("token position at index %d must be non-negative", i)}
		}
	}
	return nil
}

// TokenText reconstructs the translated text by joining tokens in
// position order.
func (t *Translation) TokenText() string {
	if len(t.Tokens) == 0 {
		return ""
	}
	ordered := make([]Token, len(t.Tokens))
	copy(ordered, t.Tokens)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Pos < ordered[j].Pos })

	parts := make([]string, len(ordered))
	for i, tok := range ordered {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}

// AddToken appends a token at the given position.
func (t *Translation) AddToken(text string, pos int) {
	t.Tokens = append(t.Tokens, Token{Text: text, Pos: pos})
}

// TokensInRange returns the tokens whose position falls in [start, end].
func (t *Translation) TokensInRange(start, end int) []Token {
	var out []Token
	for _, tok := range t.Tokens {
		if tok.Pos >= start && tok.Pos <= end {
			out = append(out, tok)
		}
	}
	return out
}

// ToMap serializes the translation to a plain key-value form.
func (t *Translation) ToMap() map[string]any {
	tokens := make([]any, len(t.Tokens))
	for i, tok := range t.Tokens {
		tokens[i] = map[string]any{"token": tok.Text, "pos": tok.Pos}
	}
	m := t.baseMap()
	m["text_source_id"] = t.TextSourceID
	m["language_code"] = t.LanguageCode
	m["title"] = t.Title
	m["tokens"] = tokens
	m["original_text"] = t.OriginalText
	return m
}

// TranslationFromMap deserializes a translation from its key-value form.
func TranslationFromMap(m map[string]any) (*Translation, error) {
	base, err := baseFromMap(m)
	if err != nil {
		return nil, err
	}
	sourceID, _, err := int64Field(m, "text_source_id")
	if err != nil {
		return nil, err
	}
	tokens, err := tokensFromValue(m["tokens"])
	if err != nil {
		return nil, err
	}
	return &Translation{
		Base:         base,
		TextSourceID: sourceID,
		LanguageCode: stringField(m, "language_code"),
		Title:        stringField(m, "title"),
		Tokens:       tokens,
		OriginalText: stringField(m, "original_text"),
	}, nil
}

func tokensFromValue(v any) ([]Token, error) {
	if v == nil {
		return nil, nil
	}
	switch list := v.(type) {
	case []Token:
		return list, nil
	case []any:
		tokens := make([]Token, 0, len(list))
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("tokens[%d]: expected object, got %T", i, item)
			}
			pos, _, err := int64Field(m, "pos")
			if err != nil {
				return nil, fmt.Errorf("tokens[%d]: %w", i, err)
			}
			tokens = append(tokens, Token{Text: stringField(m, "token"), Pos: int(pos)})
		}
		return tokens, nil
	default:
		return nil, fmt.Errorf("tokens: expected list, got %T", v)
	}
}

// TranslationPatch is a partial update; nil fields are left unchanged.
// The source reference and language code are not patchable.
type TranslationPatch struct {
	Title        *string
	Tokens       []Token
	OriginalText *string
	Metadata     map[string]any
}

// Apply merges the patch into the translation.
func (patch TranslationPatch) Apply(t *Translation) {
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Tokens != nil {
		t.Tokens = patch.Tokens
	}
	if patch.OriginalText != nil {
		t.OriginalText = *patch.OriginalText
	}
	if patch.Metadata != nil {
		t.Metadata = patch.Metadata
	}
}
