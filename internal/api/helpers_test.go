package api

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/rutapp/rut-server/internal/errors"
	"github.com/rutapp/rut-server/internal/store"
)

func TestItemQuery_URLSelectorIsFuzzy(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"full url", "https://example.com/book/42", "https://example.com/book/42"},
		{"host and path", "example.com/book", "example.com/book"},
		{"path only", "/book/42", "/book/42"},
		{"surrounding space", "  example.com ", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := itemQuery(SelectorParams{By: "url", Q: base64.RawURLEncoding.EncodeToString([]byte(tt.raw))}, "", "", "")
			require.NoError(t, err)
			assert.Equal(t, store.ItemsByURL{Pattern: tt.want}, q)
		})
	}

	_, err := itemQuery(SelectorParams{By: "url", Q: "%%%"}, "", "", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
