package sonar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryParams_ToValues(t *testing.T) {
	t.Parallel()

	params := NewQueryParams().
		WithPage(2).
		WithPageSize(100).
		WithSort("CREATION_DATE", false).
		WithFields("name", "key").
		WithFilter("severities", "MAJOR").
		WithFilter("severities", "BLOCKER").
		Set("componentKeys", "core")

	values := params.ToValues()
	assert.Equal(t, "2", values.Get("p"))
	assert.Equal(t, "100", values.Get("ps"))
	assert.Equal(t, "CREATION_DATE", values.Get("s"))
	assert.Equal(t, "false", values.Get("asc"))
	assert.Equal(t, "name,key", values.Get("f"))
	assert.Equal(t, "MAJOR,BLOCKER", values.Get("severities"))
	assert.Equal(t, "core", values.Get("componentKeys"))
}

func TestQueryParams_Empty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, NewQueryParams().ToValues())

	var params *QueryParams
	assert.Empty(t, params.ToValues())
}

func TestQueryParams_Set(t *testing.T) {
	t.Parallel()

	params := NewQueryParams().Set("q", "core")
	assert.True(t, params.Has("q"))
	assert.Equal(t, "core", params.Get("q"))

	params.Set("q", "")
	assert.False(t, params.Has("q"))
	assert.Empty(t, params.Get("q"))

	params.SetBool("resolved", false)
	assert.Equal(t, "false", params.Get("resolved"))

	var zero QueryParams
	zero.Set("q", "x")
	assert.Equal(t, "x", zero.Get("q"))
}

func TestQueryParams_Clone(t *testing.T) {
	t.Parallel()

	original := NewQueryParams().WithSort("name", true).WithFilter("tags", "a").WithFields("f1")
	clone := original.Clone()

	clone.WithFilter("tags", "b")
	clone.Fields[0] = "changed"
	*clone.Ascending = false

	assert.Equal(t, "a", original.Get("tags"))
	assert.Equal(t, "a,b", clone.Get("tags"))
	assert.Equal(t, []string{"f1"}, original.Fields)
	assert.True(t, *original.Ascending)

	var nilParams *QueryParams
	assert.NotNil(t, nilParams.Clone().Filters)
}
