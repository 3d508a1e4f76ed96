package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleDataset = `{
  "lastUpdate": "2025-01-01",
  "data": [
    {"title": "A", "type": "TV", "status": "FINISHED", "animeSeason": {"year": 2020, "season": "SPRING"}, "tags": ["Action"], "sources": ["https://myanimelist.net/anime/1"]},
    {"title": "B", "type": "OVA", "status": "ONGOING", "animeSeason": {"year": 2021, "season": "FALL"}, "tags": ["Action", "Comedy"], "sources": ["https://anidb.net/anime/2"]}
  ]
}`

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleDataset), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestQueryCommand_JSON(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "query", "--file", path, "--sort-by", "year", "--desc", "--page-size", "1")
	require.NoError(t, err)

	var env struct {
		Success bool `json:"success"`
		Data    []struct {
			Title string `json:"title"`
		} `json:"data"`
		Pagination struct {
			PageSize   int  `json:"pageSize"`
			TotalPages int  `json:"totalPages"`
			HasNext    bool `json:"hasNext"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "B", env.Data[0].Title)
	assert.Equal(t, 1, env.Pagination.PageSize)
	assert.Equal(t, 2, env.Pagination.TotalPages)
	assert.True(t, env.Pagination.HasNext)
}

func TestQueryCommand_YearFilter(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "query", "-f", path, "--year", "2020")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "A"`)
	assert.NotContains(t, out, `"title": "B"`)
}

func TestFacetsCommand_YAML(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "facets", "tags", "--counts", "-f", path, "-o", "yaml")
	require.NoError(t, err)

	var env struct {
		Success bool `yaml:"success"`
		Data    []struct {
			Tag   string `yaml:"tag"`
			Count int    `yaml:"count"`
		} `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &env))
	assert.True(t, env.Success)
	require.Len(t, env.Data, 2)
	assert.Equal(t, "Action", env.Data[0].Tag)
	assert.Equal(t, 2, env.Data[0].Count)
}

func TestFacetsCommand_RejectsUnknownFacet(t *testing.T) {
	_, err := execute(t, "facets", "genres", "-f", writeDataset(t))
	assert.Error(t, err)
}

func TestGetCommand(t *testing.T) {
	path := writeDataset(t)

	out, err := execute(t, "get", "-f", path, "--url", "https://anidb.net/anime/2")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "B"`)

	_, err = execute(t, "get", "-f", path, "--url", "https://anidb.net/anime/404")
	assert.ErrorContains(t, err, "not found")

	_, err = execute(t, "get", "-f", path)
	assert.ErrorContains(t, err, "source URL is required")
}

func TestRootCommand_InvalidOutput(t *testing.T) {
	_, err := execute(t, "query", "-f", writeDataset(t), "-o", "xml")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestRootCommand_MissingFile(t *testing.T) {
	_, err := execute(t, "query", "-f", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
