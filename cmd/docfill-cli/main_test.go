package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-docfill/internal/prompt"
)

type answers map[string]string

func (a answers) Input(_ context.Context, cfg prompt.InputConfig) (string, error) {
	if v, ok := a[cfg.Message]; ok {
		return v, nil
	}
	return cfg.Default, nil
}

func (a answers) Confirm(context.Context, prompt.ConfirmConfig) (bool, error) { return true, nil }
func (a answers) Select(context.Context, prompt.SelectConfig) (int, error)   { return 0, nil }
func (a answers) TextArea(_ context.Context, cfg prompt.TextAreaConfig) (string, error) {
	return a[cfg.Message], nil
}
func (a answers) Info(context.Context, string) error { return nil }

func TestRun_BundleWithoutPrompts(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"--bundle", filepath.Join("testdata", "birth.yaml"),
		"--prompt=false",
	}, &stdout, answers{})
	require.NoError(t, err)

	page := stdout.String()
	assert.Contains(t, page, "<title>สูติบัตร</title>")
	assert.Contains(t, page, "สมชาย")
	assert.Contains(t, page, "ข้อมูลมารดา")
}

func TestRun_BareWritesStandaloneDocument(t *testing.T) {
	var stdout bytes.Buffer
	err := run(context.Background(), []string{
		"--bundle", filepath.Join("testdata", "birth.yaml"),
		"--prompt=false",
		"--bare",
	}, &stdout, answers{})
	require.NoError(t, err)

	doc := stdout.String()
	assert.Contains(t, doc, `<style data-docfill="preview">`)
	assert.Contains(t, doc, "<p>สมชาย เกิดวันที่")
	assert.NotContains(t, doc, "<title>สูติบัตร</title>")
	assert.NotContains(t, doc, "{{")
}

func TestRun_InteractiveWritesOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "preview.html")
	err := run(context.Background(), []string{
		"--bundle", filepath.Join("testdata", "birth.yaml"),
		"--output", out,
		"--debounce", "0s",
		"--theme", "docfill",
		"--variant", "dark",
	}, &bytes.Buffer{}, answers{"วันเกิด": "2024-01-15", "mother_name": "สมศรี"})
	require.NoError(t, err)

	page, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(page), "15/01/2024")
	assert.Contains(t, string(page), "สมศรี")
	assert.Contains(t, string(page), "สมชาย")
}

func TestRun_FlagErrors(t *testing.T) {
	err := run(context.Background(), nil, &bytes.Buffer{}, answers{})
	assert.ErrorContains(t, err, "exactly one of --bundle or --template")

	err = run(context.Background(), []string{
		"--bundle", filepath.Join("testdata", "birth.yaml"),
		"--prompt=false",
		"--process",
	}, &bytes.Buffer{}, answers{})
	assert.ErrorContains(t, err, "--process needs --template")

	err = run(context.Background(), []string{
		"--bundle", filepath.Join("testdata", "birth.yaml"),
		"--theme", "missing",
	}, &bytes.Buffer{}, answers{})
	assert.Error(t, err)
}
