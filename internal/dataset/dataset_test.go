package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "seasons.json"))
	require.NoError(t, err)

	assert.Equal(t, 4, d.Len(), "malformed and invalid rows are skipped")

	require.Len(t, d.records, 4)
	assert.Equal(t, "Lamar", d.records[0].NameFirst)
	require.NotNil(t, d.records[0].PasserRating)
	assert.Equal(t, 102.7, *d.records[0].PasserRating)
	assert.Equal(t, 0.157, *d.records[0].EPAPerPlay)

	mvps := d.MVPs()
	require.Len(t, mvps, 3)
	var first Record
	require.NoError(t, json.Unmarshal(mvps[0], &first))
	assert.Equal(t, "Jackson", first.NameLast)
}

func TestLoad_MissingStatsStayNull(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "seasons.json"))
	require.NoError(t, err)

	manning := d.records[3]
	assert.Equal(t, "Manning", manning.NameLast)
	assert.Nil(t, manning.QBRTotal)
	assert.Nil(t, manning.EPATotal)
	require.NotNil(t, manning.PassingTDs)
	assert.Equal(t, 49.0, *manning.PassingTDs)

	var row map[string]interface{}
	require.NoError(t, json.Unmarshal(d.All()[3], &row))
	assert.Contains(t, row, "qbr_total")
	assert.Nil(t, row["qbr_total"])
	assert.Equal(t, 16.0, row["games"], "fields outside the record are served unchanged")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(malformed, []byte(`{"not":"an array"}`), 0o600))

	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "missing.json")},
		{"not an array", malformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Load(tt.path)
			assert.Error(t, err)
			assert.Nil(t, d)
		})
	}
}

func TestDataset_AllReturnsCopy(t *testing.T) {
	d, err := Load(filepath.Join("testdata", "seasons.json"))
	require.NoError(t, err)

	all := d.All()
	all[0] = json.RawMessage(`{}`)
	assert.Contains(t, string(d.All()[0]), `"Lamar"`)
}

func TestDataset_EmptyMVPs(t *testing.T) {
	d := &Dataset{}
	assert.NotNil(t, d.MVPs())
	assert.Empty(t, d.MVPs())
}
