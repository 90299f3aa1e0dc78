package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Enabled   bool
	CreatedAt string
	secret    string
}

func TestGetStructByTagAndName(t *testing.T) {
	p := &product{ID: 42, Name: "Lamp", Enabled: true, CreatedAt: "2024-01-02"}

	tests := []struct {
		property string
		want     any
	}{
		{"id", int64(42)},
		{"name", "Lamp"},
		{"enabled", true},
		{"createdAt", "2024-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			got, err := Get(p, tt.property)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := Get(*p, "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got)
}

func TestGetMissingProperty(t *testing.T) {
	_, err := Get(&product{}, "price")
	assert.ErrorIs(t, err, ErrNoSuchProperty)

	_, err = Get(&product{}, "secret")
	assert.ErrorIs(t, err, ErrNoSuchProperty)

	_, err = Get(map[string]any{"id": 1}, "price")
	assert.ErrorIs(t, err, ErrNoSuchProperty)

	var nilProduct *product
	_, err = Get(nilProduct, "id")
	assert.ErrorIs(t, err, ErrNoSuchProperty)
}

func TestGetMap(t *testing.T) {
	got, err := Get(map[string]any{"id": "abc"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)

	got, err = Get(map[string]string{"id": "abc"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}

func TestSet(t *testing.T) {
	p := &product{}
	require.NoError(t, Set(p, "enabled", true))
	assert.True(t, p.Enabled)

	require.NoError(t, Set(p, "id", 7))
	assert.Equal(t, int64(7), p.ID)

	err := Set(p, "name", 7)
	assert.ErrorIs(t, err, ErrNotWritable)

	err = Set(*p, "enabled", false)
	assert.ErrorIs(t, err, ErrNotWritable)

	m := map[string]any{}
	require.NoError(t, Set(m, "enabled", true))
	assert.Equal(t, true, m["enabled"])
}

func TestIsWritable(t *testing.T) {
	assert.True(t, IsWritable(&product{}, "enabled"))
	assert.False(t, IsWritable(product{}, "enabled"))
	assert.False(t, IsWritable(&product{}, "missing"))
	assert.True(t, IsWritable(map[string]any{}, "anything"))
}

func TestString(t *testing.T) {
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "42", String(int64(42)))
	assert.Equal(t, "abc", String("abc"))
}
