package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeFilename(t *testing.T) {
	valid := []string{"Soil Health.pdf", "module-1.mp4", "quiz_01.json", "  padded.png  ", "v1..final.pdf"}
	for _, name := range valid {
		got, err := SanitizeFilename(name)
		require.NoError(t, err, name)
		assert.NotContains(t, got, " padded", name)
	}

	invalid := []string{"", "   ", "../secret.pdf", "a/b.pdf", `a\b.pdf`, "..", ".hidden.mp4", ".pdf", "...", "a/../b.pdf"}
	for _, name := range invalid {
		_, err := SanitizeFilename(name)
		assert.True(t, IsValidation(err), "expected validation error for %q", name)
	}
}

func TestExtIsLowercased(t *testing.T) {
	assert.Equal(t, ".pdf", Ext("Guide.PDF"))
	assert.Equal(t, ".jpeg", Ext("field.JPeg"))
	assert.Equal(t, "", Ext("README"))
	assert.True(t, IsImageExt(".png"))
	assert.False(t, IsImageExt(".mp4"))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, "video/mp4", ContentTypeFor(".mp4"))
	assert.Equal(t, MimeOctetStream, ContentTypeFor(".exe"))
}
