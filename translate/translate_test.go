package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert := assert.New(t)

	SetLocales()
	assert.Equal("label LOOP missing", From("label %v missing", "LOOP"))

	SetLocales("en-US")
	assert.Equal("line 12 oops", From("line %d %v", 12, "oops"))
}
