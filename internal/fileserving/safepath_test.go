package fileserving

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafePathJoins(t *testing.T) {
	p, err := SafePath("/srv/www", "/foo/bar.html")
	require.NoError(t, err)
	assert.Equal(t, "/srv/www/foo/bar.html", p)
}

func TestSafePathRejectsEscape(t *testing.T) {
	_, err := SafePath("/srv/www", "/../../etc/passwd")
	assert.Error(t, err)
}

func TestSafePathRejectsDeepEscapeAfterDescend(t *testing.T) {
	_, err := SafePath("/srv/www", "/a/../../b")
	assert.Error(t, err)
}

func TestSafePathAllowsInnerDotDot(t *testing.T) {
	p, err := SafePath("/srv/www", "/a/../b.html")
	require.NoError(t, err)
	assert.Equal(t, "/srv/www/b.html", p)
}

func TestSafePathRejectsNonAbsoluteRequestPath(t *testing.T) {
	_, err := SafePath("/srv/www", "foo.html")
	assert.Error(t, err)
}
