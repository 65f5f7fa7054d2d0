package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusOK.Terminal())
	assert.False(t, StatusPartial.Terminal())
	assert.True(t, StatusNotFound.Terminal())
	assert.True(t, StatusError.Terminal())
}

func TestBundleKey(t *testing.T) {
	assert.Equal(t, "bundle:7203,6758", BundleKey([]string{"7203", "6758"}))
	assert.NotEqual(t, BundleKey([]string{"7203", "6758"}), BundleKey([]string{"6758", "7203"}))
	assert.Equal(t, "bundle:", BundleKey(nil))
}

func TestBundleOrdered(t *testing.T) {
	b := &Bundle{
		Codes: []string{"9984", "7203", "6758"},
		Results: map[string]TickerResult{
			"7203": {Code: "7203"},
			"9984": {Code: "9984"},
		},
	}

	got := b.Ordered()
	assert.Len(t, got, 2)
	assert.Equal(t, "9984", got[0].Code)
	assert.Equal(t, "7203", got[1].Code)
}

func TestDisplayName(t *testing.T) {
	var nilFund *Fundamentals
	assert.Equal(t, "", nilFund.DisplayName())
	assert.Equal(t, "TOYOTA", (&Fundamentals{ShortName: "TOYOTA"}).DisplayName())
	assert.Equal(t, "Toyota Motor Corporation",
		(&Fundamentals{LongName: "Toyota Motor Corporation", ShortName: "TOYOTA"}).DisplayName())
}
