package services

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// FileService manages message templates and uploaded files under the data
// directory. All paths are resolved inside the base dir; traversal attempts
// are rejected.
type FileService struct {
	baseDir      string
	uploadsDir   string
	templatePath string
}

// FileInfo describes one stored file for the files tab
type FileInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageTemplates maps funnel stage names to message bodies
type MessageTemplates map[string]string

func NewFileService(baseDir string) *FileService {
	uploadsDir := filepath.Join(baseDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		logrus.Warnf("Failed to create uploads directory %s: %v", uploadsDir, err)
	}

	return &FileService{
		baseDir:      baseDir,
		uploadsDir:   uploadsDir,
		templatePath: filepath.Join(baseDir, "message-templates.json"),
	}
}

// GetTemplates loads the stored message templates; an absent file yields an
// empty set, not an error
func (s *FileService) GetTemplates() (MessageTemplates, error) {
	data, err := os.ReadFile(s.templatePath)
	if os.IsNotExist(err) {
		return MessageTemplates{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}

	var templates MessageTemplates
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return templates, nil
}

// SaveTemplates persists the message templates
func (s *FileService) SaveTemplates(templates MessageTemplates) error {
	data, err := json.MarshalIndent(templates, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal templates: %w", err)
	}
	if err := os.WriteFile(s.templatePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write templates: %w", err)
	}
	return nil
}

// ListFiles lists uploaded files, newest first
func (s *FileService) ListFiles() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:      filepath.Join("uploads", entry.Name()),
			Name:      entry.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].UpdatedAt.After(files[j].UpdatedAt)
	})
	return files, nil
}

// SaveUpload stores an uploaded file in the uploads directory
func (s *FileService) SaveUpload(fileHeader *multipart.FileHeader) (*FileInfo, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(fileHeader.Filename)
	if name == "" || name == "." {
		return nil, fmt.Errorf("invalid file name")
	}

	filePath := filepath.Join(s.uploadsDir, name)
	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, file)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	logrus.Infof("File uploaded: %s (%d bytes)", name, size)
	return &FileInfo{
		Path:      filepath.Join("uploads", name),
		Name:      name,
		Size:      size,
		UpdatedAt: time.Now(),
	}, nil
}

// ReadFile returns the content of a stored file
func (s *FileService) ReadFile(relPath string) ([]byte, error) {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// DeleteFile removes a stored file
func (s *FileService) DeleteFile(relPath string) error {
	fullPath, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	logrus.Infof("File deleted: %s", relPath)
	return nil
}

// resolve joins relPath onto the base dir and rejects traversal outside it
func (s *FileService) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(strings.TrimPrefix(relPath, "/"))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid file path")
	}
	return filepath.Join(s.baseDir, cleaned), nil
}
