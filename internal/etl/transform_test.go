package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTransformers_RenameAndSelect(t *testing.T) {
	ren, err := ParseRenames([]string{"y=label"})
	require.NoError(t, err)
	sel := SelectConfig([]string{"y", "x"})

	ts, err := BuildTransformers([]TransformConfig{*sel, *ren})
	require.NoError(t, err)
	require.Len(t, ts, 2)

	out, keep := ApplyTransformers(rec("a", "x", int64(1), "y", "foo", "z", false), ts)
	require.True(t, keep)
	assert.Equal(t, []string{"label", "x"}, out.Order)
	assert.Equal(t, "foo", out.Data["label"])
	assert.Equal(t, "a", out.Key)
}

func TestRenameTransform_KeepsPosition(t *testing.T) {
	tr := &RenameTransform{Mapping: map[string]string{"b": "bee"}}
	out, keep := tr.Transform(rec("k", "a", int64(1), "b", int64(2), "c", int64(3)))
	require.True(t, keep)
	assert.Equal(t, []string{"a", "bee", "c"}, out.Order)
}

func TestSelectTransform_SkipsAbsentColumns(t *testing.T) {
	tr := &SelectTransform{Fields: []string{"missing", "a"}}
	out, _ := tr.Transform(rec("k", "a", int64(1), "b", int64(2)))
	assert.Equal(t, []string{"a"}, out.Order)
}

func TestBuildTransformers_Errors(t *testing.T) {
	_, err := BuildTransformers([]TransformConfig{{Type: "explode"}})
	assert.ErrorContains(t, err, "unknown transform type")

	_, err = BuildTransformers([]TransformConfig{{Type: "rename", Config: map[string]any{}}})
	assert.ErrorContains(t, err, "mapping is required")

	_, err = BuildTransformers([]TransformConfig{{Type: "select", Config: map[string]any{}}})
	assert.ErrorContains(t, err, "fields is required")
}

func TestParseRenames(t *testing.T) {
	cfg, err := ParseRenames(nil)
	require.NoError(t, err)
	assert.Nil(t, cfg)

	for _, bad := range []string{"noequals", "=new", "old="} {
		_, err := ParseRenames([]string{bad})
		assert.Error(t, err, bad)
	}

	cfg, err = ParseRenames([]string{"a=b", "c=d"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": "b", "c": "d"}, cfg.Config["mapping"])
}

func TestSelectConfig_Empty(t *testing.T) {
	assert.Nil(t, SelectConfig(nil))
}
