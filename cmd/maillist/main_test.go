package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/maillist/internal/core"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseFlags(t *testing.T) {
	dir := t.TempDir()
	defaults := writeFile(t, dir, "defaults.yaml", "sort_alphabetically: false\nremove_invalid: false\n")

	opts, err := parseFlags([]string{
		"-in", "a.csv, b.xlsx",
		"-out", "clean.csv",
		"-defaults", defaults,
		"-remove-invalid=true",
		"c.csv",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.csv", "b.xlsx", "c.csv"}, opts.inputs)
	assert.Equal(t, core.ProcessingOptions{
		RemoveDuplicates:   true,
		RemoveInvalid:      true,
		SortAlphabetically: false,
	}, opts.processing)
}

func TestParseFlags_Errors(t *testing.T) {
	_, err := parseFlags([]string{"-out", "x.csv"})
	assert.ErrorContains(t, err, "no input file")

	_, err = parseFlags([]string{"a.csv"})
	assert.ErrorContains(t, err, "-out")
}

func TestOutputFormat(t *testing.T) {
	f, err := outputFormat("", "out/clean.XLSX")
	require.NoError(t, err)
	assert.Equal(t, core.FormatXLSX, f)

	f, err = outputFormat("csv", "clean.txt")
	require.NoError(t, err)
	assert.Equal(t, core.FormatCSV, f)

	_, err = outputFormat("", "clean.txt")
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestRun_AccumulatesFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "first.csv", "Email,Name\nb@x.com,B\na@x.com,A\nbad,C\n")
	second := writeFile(t, dir, "second.csv", "Courriel\nA@X.com\nc@x.com\n")
	out := filepath.Join(dir, "clean.csv")

	opts, err := parseFlags([]string{"-out", out, first, second})
	require.NoError(t, err)
	require.NoError(t, run(opts))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "Email,Original row\r\na@x.com,3\r\nb@x.com,2\r\nc@x.com,3\r\n", string(data))
}

func TestRun_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "names.csv", "Name\nAlice\n")

	opts, err := parseFlags([]string{"-out", filepath.Join(dir, "out.csv"), bad})
	require.NoError(t, err)

	err = run(opts)
	assert.ErrorIs(t, err, core.ErrNoEmailColumn)
	assert.ErrorContains(t, err, "names.csv")
	assert.Equal(t, "COL001", core.NewUserError(err).User.Code)
}
