package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidSubject(t *testing.T) {
	for _, s := range Subjects {
		assert.True(t, ValidSubject(s), s)
	}
	assert.False(t, ValidSubject("Astrology"))
	assert.False(t, ValidSubject(""))
	assert.False(t, ValidSubject("mathematics"))
}

func TestTagsValueScanRoundTrip(t *testing.T) {
	in := Tags{"代数", "二次方程"}

	v, err := in.Value()
	require.NoError(t, err)

	var out Tags
	require.NoError(t, out.Scan(v))
	assert.Equal(t, in, out)
}

func TestTagsScanVariants(t *testing.T) {
	var tags Tags

	require.NoError(t, tags.Scan([]byte(`["a","b"]`)))
	assert.Equal(t, Tags{"a", "b"}, tags)

	require.NoError(t, tags.Scan(`["c"]`))
	assert.Equal(t, Tags{"c"}, tags)

	require.NoError(t, tags.Scan(nil))
	assert.Nil(t, tags)

	assert.Error(t, tags.Scan(42))
}

func TestTagsNilValueIsEmptyList(t *testing.T) {
	var tags Tags

	v, err := tags.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)
}

func TestCloneIsDeep(t *testing.T) {
	deletedAt := int64(1700000000000)
	m := &Mistake{
		ID:        "m1",
		Tags:      Tags{"代数"},
		DeletedAt: &deletedAt,
	}

	dup := m.Clone()
	dup.Tags[0] = "mutated"
	*dup.DeletedAt = 42

	assert.Equal(t, Tags{"代数"}, m.Tags)
	assert.Equal(t, int64(1700000000000), *m.DeletedAt)
}

func TestTrashed(t *testing.T) {
	m := &Mistake{}
	assert.False(t, m.Trashed())

	at := int64(1)
	m.DeletedAt = &at
	assert.True(t, m.Trashed())
}
