package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTemplatesAbsentFileIsEmpty(t *testing.T) {
	svc := NewFileService(t.TempDir())

	templates, err := svc.GetTemplates()
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestSaveAndGetTemplates(t *testing.T) {
	svc := NewFileService(t.TempDir())

	want := MessageTemplates{
		"Primeiro Contato": "Olá {nome}! Tudo bem?",
		"Segundo Contato":  "Oi {nome}, passando de novo.",
	}
	require.NoError(t, svc.SaveTemplates(want))

	got, err := svc.GetTemplates()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListFilesNewestFirst(t *testing.T) {
	dir := t.TempDir()
	svc := NewFileService(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "uploads", "a.txt"), []byte("aaa"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "uploads", "b.txt"), []byte("bbbb"), 0644))

	files, err := svc.ListFiles()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join("uploads", files[0].Name), files[0].Path)
}

func TestReadFileRejectsTraversal(t *testing.T) {
	svc := NewFileService(t.TempDir())

	_, err := svc.ReadFile("../etc/passwd")
	assert.Error(t, err)
	_, err = svc.ReadFile("..")
	assert.Error(t, err)
}

func TestDeleteFile(t *testing.T) {
	dir := t.TempDir()
	svc := NewFileService(dir)

	path := filepath.Join(dir, "uploads", "gone.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	require.NoError(t, svc.DeleteFile(filepath.Join("uploads", "gone.txt")))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
