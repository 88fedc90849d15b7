package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSingleTerm(t *testing.T) {
	term := SearchTerm{Name: "Bon Iver", Variations: []string{"Justin Vernon"}}

	assert.True(t, Validate("BON   IVER live at Vega", term))
	assert.True(t, Validate("An evening with justin vernon", term))
	assert.False(t, Validate("Bon Jovi live", term))
	assert.False(t, Validate("", term))
}

func TestValidateComposite(t *testing.T) {
	term := SearchTerm{Terms: []string{"Wegner", "PP550"}, Kind: KindItem}

	cases := map[string]bool{
		"Hans J. Wegner PP550 Peacock chair": true,
		"Wegner PP 550 påfuglestol":          true,
		"WEGNER pp-550 ash":                  true,
		"Wegner PP501 The Chair":             false,
		"Peacock chair PP550":                false,
	}
	for text, want := range cases {
		assert.Equal(t, want, Validate(text, term), text)
	}
}

func TestValidateFailsClosed(t *testing.T) {
	assert.False(t, Validate("anything", SearchTerm{}))
	assert.False(t, Validate("anything", SearchTerm{Terms: []string{"Wegner", "  "}}))
}
