// Package app provides application state, events, and project persistence.
package app

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"face-review/internal/face"
	"face-review/internal/overlay"
	"face-review/internal/project"
	"face-review/internal/raster"
	"face-review/internal/viewport"
)

// State holds the reviewed image, its face annotations, and the overlay
// settings. UI components observe it through events instead of polling.
type State struct {
	mu sync.RWMutex

	// Project
	ProjectPath string
	Modified    bool

	// Current image. Replaced wholesale on load; never mutated.
	Raster *raster.Raster

	// Face annotations for the current image, replaced wholesale by
	// SetFaces. ActiveFace indexes into it; -1 when the list is empty.
	Faces      []face.Annotation
	ActiveFace int

	// Overlay visibility. hiddenMode remembers the last visible mode so
	// the visibility toggle can restore it.
	OverlayMode overlay.Mode
	hiddenMode  overlay.Mode

	// Image load generation: a decode that finishes after a newer load
	// was requested is discarded. loading is true from load start until
	// the newest generation settles.
	loadGen uint64
	loading bool

	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoadStarted
	EventImageLoaded
	EventFacesChanged
	EventActiveFaceChanged
	EventOverlayModeChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state with the overlay showing all
// faces.
func NewState() *State {
	return &State{
		ActiveFace:  -1,
		OverlayMode: overlay.ModeAll,
		hiddenMode:  overlay.ModeAll,
		listeners:   make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// LoadImage decodes the image at path and installs it as the current
// raster. A load that completes after a newer LoadImage call started is
// dropped silently. On decode failure the previously displayed image is
// left untouched.
func (s *State) LoadImage(path string) error {
	s.mu.Lock()
	s.loadGen++
	gen := s.loadGen
	s.loading = true
	s.mu.Unlock()

	s.Emit(EventImageLoadStarted, path)

	r, err := raster.Load(path)
	if err != nil {
		s.settleLoad(gen)
		return err
	}

	s.mu.Lock()
	if gen != s.loadGen {
		s.mu.Unlock()
		log.Printf("load of %s superseded, discarding", path)
		return nil
	}
	s.Raster = r
	s.Faces = nil
	s.ActiveFace = -1
	s.loading = false
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventImageLoaded, r)
	return nil
}

// settleLoad clears the loading flag for a failed or abandoned load,
// unless a newer load has since taken over the flag.
func (s *State) settleLoad(gen uint64) {
	s.mu.Lock()
	if gen == s.loadGen {
		s.loading = false
	}
	s.mu.Unlock()
}

// Loading reports whether an image decode is in flight.
func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// CurrentRaster returns the displayed raster, or nil.
func (s *State) CurrentRaster() *raster.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Raster
}

// SetFaces replaces the entire annotation list. There is no incremental
// update: detection and project load both produce full lists. The active
// index is reset to the first face.
func (s *State) SetFaces(faces []face.Annotation) {
	s.mu.Lock()
	s.Faces = faces
	if len(faces) > 0 {
		s.ActiveFace = 0
	} else {
		s.ActiveFace = -1
	}
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventFacesChanged, faces)
}

// CurrentFaces returns the annotation list (shared, read-only).
func (s *State) CurrentFaces() []face.Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Faces
}

// SetActiveFace selects a face by index, clamped into range.
func (s *State) SetActiveFace(i int) {
	s.mu.Lock()
	s.ActiveFace = face.ClampIndex(i, s.Faces)
	active := s.ActiveFace
	s.mu.Unlock()

	s.Emit(EventActiveFaceChanged, active)
}

// StepActiveFace advances the active face by delta, wrapping around.
func (s *State) StepActiveFace(delta int) {
	s.mu.Lock()
	n := len(s.Faces)
	if n == 0 {
		s.mu.Unlock()
		return
	}
	s.ActiveFace = ((s.ActiveFace+delta)%n + n) % n
	active := s.ActiveFace
	s.mu.Unlock()

	s.Emit(EventActiveFaceChanged, active)
}

// NameActiveFace assigns an identity to the active face.
func (s *State) NameActiveFace(name string) {
	s.mu.Lock()
	if s.ActiveFace < 0 || s.ActiveFace >= len(s.Faces) {
		s.mu.Unlock()
		return
	}
	s.Faces[s.ActiveFace].Name = name
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventFacesChanged, s.CurrentFaces())
}

// ToggleSingleAll flips between showing one face and all faces. While the
// overlay is hidden it flips the remembered mode instead, so the next
// unhide comes up in the expected mode.
func (s *State) ToggleSingleAll() {
	s.mu.Lock()
	target := &s.OverlayMode
	if s.OverlayMode == overlay.ModeNone {
		target = &s.hiddenMode
	}
	if *target == overlay.ModeAll {
		*target = overlay.ModeSingle
	} else {
		*target = overlay.ModeAll
	}
	mode := s.OverlayMode
	s.mu.Unlock()

	s.Emit(EventOverlayModeChanged, mode)
}

// ToggleOverlayVisible hides the overlay, or restores the mode that was
// active before it was hidden.
func (s *State) ToggleOverlayVisible() {
	s.mu.Lock()
	if s.OverlayMode == overlay.ModeNone {
		s.OverlayMode = s.hiddenMode
	} else {
		s.hiddenMode = s.OverlayMode
		s.OverlayMode = overlay.ModeNone
	}
	mode := s.OverlayMode
	s.mu.Unlock()

	s.Emit(EventOverlayModeChanged, mode)
}

// CurrentOverlay returns the overlay mode and active face index together,
// as the renderer consumes them.
func (s *State) CurrentOverlay() (overlay.Mode, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.OverlayMode, s.ActiveFace
}

// Snapshot is the serializable engine state: everything needed to restore
// a review session on the same image.
type Snapshot struct {
	ImagePath   string            `json:"image,omitempty"`
	Faces       []face.Annotation `json:"faces,omitempty"`
	OverlayMode overlay.Mode      `json:"overlay_mode"`
	ActiveFace  int               `json:"active_face"`
	Viewport    viewport.State    `json:"viewport"`
}

// GetState captures the current snapshot. The viewport state is owned by
// the canvas and passed in by the caller.
func (s *State) GetState(vp viewport.State) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		OverlayMode: s.OverlayMode,
		ActiveFace:  s.ActiveFace,
		Viewport:    vp,
	}
	if s.Raster != nil {
		snap.ImagePath = s.Raster.Path
	}
	snap.Faces = append(snap.Faces, s.Faces...)
	return snap
}

// SetState restores a snapshot (sans image pixels: the caller reloads the
// image from snap.ImagePath first when needed) and returns the viewport
// state for the canvas to reinstate.
func (s *State) SetState(snap Snapshot) viewport.State {
	s.mu.Lock()
	s.Faces = append([]face.Annotation(nil), snap.Faces...)
	s.ActiveFace = face.ClampIndex(snap.ActiveFace, s.Faces)
	s.OverlayMode = snap.OverlayMode
	if snap.OverlayMode != overlay.ModeNone {
		s.hiddenMode = snap.OverlayMode
	}
	s.mu.Unlock()

	s.Emit(EventFacesChanged, s.CurrentFaces())
	s.Emit(EventOverlayModeChanged, snap.OverlayMode)
	return snap.Viewport
}

// SaveProject writes the session to a .facerev project file. The image
// path is stored relative to the project directory when possible.
func (s *State) SaveProject(path string, vp viewport.State) error {
	snap := s.GetState(vp)

	proj := project.New(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if snap.ImagePath != "" {
		proj.SetImage(path, snap.ImagePath)
	}
	proj.Faces = snap.Faces
	proj.ActiveFace = snap.ActiveFace
	proj.OverlayMode = snap.OverlayMode
	proj.Viewport = snap.Viewport

	if err := proj.Save(path); err != nil {
		return fmt.Errorf("failed to save project %s: %w", path, err)
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}

// LoadProject restores a session from a project file: image first, then
// annotations and modes. Returns the stored viewport state for the canvas.
func (s *State) LoadProject(path string) (viewport.State, error) {
	proj, err := project.Load(path)
	if err != nil {
		return viewport.State{}, fmt.Errorf("failed to load project %s: %w", path, err)
	}

	if imgPath := proj.GetImagePath(path); imgPath != "" {
		if err := s.LoadImage(imgPath); err != nil {
			return viewport.State{}, err
		}
	}

	vp := s.SetState(Snapshot{
		ImagePath:   proj.ImagePath,
		Faces:       proj.Faces,
		OverlayMode: proj.OverlayMode,
		ActiveFace:  proj.ActiveFace,
		Viewport:    proj.Viewport,
	})

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectLoaded, path)
	return vp, nil
}
