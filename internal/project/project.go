// Package project provides project file handling and persistence.
package project

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"face-review/internal/face"
	"face-review/internal/overlay"
	"face-review/internal/viewport"
)

// File represents a face review project file (.facerev).
type File struct {
	Version     int       `json:"version"`
	Name        string    `json:"name,omitempty"`
	Created     time.Time `json:"created"`
	Modified    time.Time `json:"modified"`
	Description string    `json:"description,omitempty"`

	// Image path (relative to project file)
	ImagePath string `json:"image,omitempty"`

	// Review state
	Faces       []face.Annotation `json:"faces,omitempty"`
	ActiveFace  int               `json:"active_face"`
	OverlayMode overlay.Mode      `json:"overlay_mode"`
	Viewport    viewport.State    `json:"viewport"`
}

// New creates a new project file.
func New(name string) *File {
	now := time.Now()
	return &File{
		Version:     1,
		Name:        name,
		Created:     now,
		Modified:    now,
		ActiveFace:  -1,
		OverlayMode: overlay.ModeAll,
	}
}

// Load loads a project from a .facerev file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var proj File
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, err
	}

	return &proj, nil
}

// Save saves the project to a file.
func (p *File) Save(path string) error {
	p.Modified = time.Now()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SetImage sets the image path (relative to project).
func (p *File) SetImage(projectPath, imagePath string) {
	rel, err := filepath.Rel(filepath.Dir(projectPath), imagePath)
	if err != nil {
		p.ImagePath = imagePath
	} else {
		p.ImagePath = rel
	}
	p.Modified = time.Now()
}

// GetImagePath returns the absolute path to the image.
func (p *File) GetImagePath(projectPath string) string {
	if p.ImagePath == "" {
		return ""
	}
	if filepath.IsAbs(p.ImagePath) {
		return p.ImagePath
	}
	return filepath.Join(filepath.Dir(projectPath), p.ImagePath)
}
