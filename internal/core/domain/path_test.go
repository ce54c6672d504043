package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/mason/internal/core/domain"
)

func TestPathSegments(t *testing.T) {
	assert.Nil(t, domain.PathSegments("."))
	assert.Nil(t, domain.PathSegments(""))
	assert.Equal(t, []string{"/"}, domain.PathSegments("/"))
	assert.Equal(t, []string{"/", "proj", "src"}, domain.PathSegments("/proj//src/"))
	assert.Equal(t, []string{"src", "a.js"}, domain.PathSegments(`src\a.js`))
	assert.Equal(t, []string{"b"}, domain.PathSegments("a/../b"))
}

func TestWithin(t *testing.T) {
	assert.True(t, domain.Within("src", "src"))
	assert.True(t, domain.Within("src", "src/a/b.js"))
	assert.True(t, domain.Within("src/", `src\a.js`))
	assert.True(t, domain.Within("/proj/web", "/proj/web/src"))
	assert.False(t, domain.Within("src", "srcs/a.js"))
	assert.False(t, domain.Within("src/a", "src"))
	assert.False(t, domain.Within("/proj/web", "/proj/website"))
}
