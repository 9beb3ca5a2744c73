// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"face-review/internal/app"
	"face-review/internal/config"
	"face-review/internal/detect"
	"face-review/internal/face"
	"face-review/internal/version"
	"face-review/internal/viewport"
	"face-review/ui/canvas"
	"face-review/ui/prefs"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const maxRecentFiles = 8

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app    fyne.App
	state  *app.State
	cfg    *config.Config
	prefs  *prefs.Prefs
	canvas *canvas.FaceCanvas

	statusBar *widget.Label
	zoomLabel *widget.Label
}

// New creates a new main window.
func New(fyneApp fyne.App, state *app.State, cfg *config.Config, p *prefs.Prefs) *MainWindow {
	win := fyneApp.NewWindow("Face Review")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		cfg:    cfg,
		prefs:  p,
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeyboard()
	mw.setupEventHandlers()

	return mw
}

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewFaceCanvas(mw.state, mw.cfg.Overlay)
	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("Fit")

	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})
	mw.canvas.OnFacePicked(func(index int) {
		faces := mw.state.CurrentFaces()
		if index >= 0 && index < len(faces) {
			mw.updateStatus("Selected " + faces[index].Label())
		}
	})

	toolbar := mw.createToolbar()

	content := container.NewBorder(
		toolbar, // top
		container.NewBorder(nil, nil, nil, mw.zoomLabel, mw.statusBar), // bottom
		nil, // left
		nil, // right
		mw.canvas,
	)

	mw.SetContent(content)
	mw.Resize(fyne.NewSize(
		float32(mw.prefs.FloatWithFallback(prefs.KeyWindowWidth, 1200)),
		float32(mw.prefs.FloatWithFallback(prefs.KeyWindowHeight, 800)),
	))
}

// createToolbar creates the toolbar with zoom and face controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	zoomOutBtn := widget.NewButton("-", mw.canvas.ZoomOut)
	zoomInBtn := widget.NewButton("+", mw.canvas.ZoomIn)
	fitBtn := widget.NewButton("Fit", mw.canvas.FitToWindow)
	actualBtn := widget.NewButton("1:1", mw.canvas.ActualSize)
	prevBtn := widget.NewButton("<", func() { mw.state.StepActiveFace(-1) })
	nextBtn := widget.NewButton(">", func() { mw.state.StepActiveFace(1) })
	detectBtn := widget.NewButton("Detect", mw.onDetectFaces)

	return container.NewHBox(
		widget.NewLabel("Zoom:"),
		zoomOutBtn,
		zoomInBtn,
		fitBtn,
		actualBtn,
		widget.NewSeparator(),
		widget.NewLabel("Face:"),
		prevBtn,
		nextBtn,
		detectBtn,
	)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		mw.recentFilesItem(),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", mw.canvas.ZoomIn),
		fyne.NewMenuItem("Zoom Out", mw.canvas.ZoomOut),
		fyne.NewMenuItem("Actual Size", mw.canvas.ActualSize),
		fyne.NewMenuItem("Fit to Window", mw.canvas.FitToWindow),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Show/Hide Overlay", mw.onToggleOverlay),
		fyne.NewMenuItem("Single/All Faces", mw.onToggleSingleAll),
	)

	faceMenu := fyne.NewMenu("Face",
		fyne.NewMenuItem("Detect Faces", mw.onDetectFaces),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Next Face", func() { mw.state.StepActiveFace(1) }),
		fyne.NewMenuItem("Previous Face", func() { mw.state.StepActiveFace(-1) }),
		fyne.NewMenuItem("Center on Face", mw.canvas.CenterOnActiveFace),
		fyne.NewMenuItem("Name Face...", mw.onNameFace),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, viewMenu, faceMenu, helpMenu))
}

// recentFilesItem builds the Open Recent submenu from the saved list.
func (mw *MainWindow) recentFilesItem() *fyne.MenuItem {
	recent := mw.prefs.Strings(prefs.KeyRecentFiles)

	items := make([]*fyne.MenuItem, 0, len(recent))
	for _, path := range recent {
		p := path
		items = append(items, fyne.NewMenuItem(filepath.Base(p), func() {
			mw.OpenPath(p)
		}))
	}

	item := fyne.NewMenuItem("Open Recent", nil)
	item.ChildMenu = fyne.NewMenu("", items...)
	item.Disabled = len(items) == 0
	return item
}

// RestoreLastSession reopens the most recently used project, if any.
// Called at startup when no file was given on the command line.
func (mw *MainWindow) RestoreLastSession() {
	last := mw.prefs.String(prefs.KeyLastProject)
	if last == "" {
		return
	}
	if _, err := os.Stat(last); err != nil {
		return
	}
	mw.OpenPath(last)
}

// setupKeyboard wires plus/minus keys to the hold-aware zoom machine.
// A tap gives one discrete step; holding past the delay ramps smoothly.
func (mw *MainWindow) setupKeyboard() {
	deskCanvas, ok := mw.Canvas().(desktop.Canvas)
	if !ok {
		return
	}

	keys := mw.canvas.Keys()
	deskCanvas.SetOnKeyDown(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyPlus, fyne.KeyEqual:
			keys.KeyDown(viewport.ZoomIn)
		case fyne.KeyMinus:
			keys.KeyDown(viewport.ZoomOut)
		}
	})
	deskCanvas.SetOnKeyUp(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyPlus, fyne.KeyEqual, fyne.KeyMinus:
			keys.KeyUp()
		}
	})
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Face Review - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
			mw.rememberProject(path)
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("Face Review - " + filepath.Base(path))
			mw.updateStatus("Project saved: " + path)
			mw.rememberProject(path)
		}
	})

	mw.state.On(app.EventImageLoadStarted, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.updateStatus("Loading " + filepath.Base(path) + "...")
		}
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		mw.updateStatus("Image loaded")
	})

	mw.state.On(app.EventFacesChanged, func(data interface{}) {
		faces := mw.state.CurrentFaces()
		mw.updateStatus(fmt.Sprintf("%d faces, %d named", len(faces), face.CountNamed(faces)))
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.prefs.String(prefs.KeyLastImageDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// rememberProject records the project for Open Recent and next-launch
// session restore.
func (mw *MainWindow) rememberProject(path string) {
	mw.prefs.SetString(prefs.KeyLastProject, path)
	mw.prefs.AddRecentFile(path, maxRecentFiles)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("failed to save preferences: %v", err)
	}
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.prefs.SetString(prefs.KeyLastImageDir, filepath.Dir(filePath))
	mw.prefs.AddRecentFile(filePath, maxRecentFiles)
	if err := mw.prefs.Save(); err != nil {
		log.Printf("failed to save preferences: %v", err)
	}
}

// OpenPath opens a project or image file, as from the command line.
func (mw *MainWindow) OpenPath(path string) {
	if strings.EqualFold(filepath.Ext(path), ".facerev") {
		vps, err := mw.state.LoadProject(path)
		if err != nil {
			log.Printf("failed to load project %s: %v", path, err)
			return
		}
		mw.canvas.Viewport().Restore(vps)
		mw.canvas.Refresh()
		return
	}
	go func() {
		if err := mw.state.LoadImage(path); err != nil {
			log.Printf("failed to load image %s: %v", path, err)
		}
	}()
}

// Menu action handlers

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)

		// Decode off the UI goroutine; stale loads are discarded by the
		// state's generation guard.
		go func() {
			if err := mw.state.LoadImage(path); err != nil {
				log.Printf("failed to load %s: %v", path, err)
			}
		}()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{
		".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".tif", ".webp",
	}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		vps, err := mw.state.LoadProject(path)
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.canvas.Viewport().Restore(vps)
		mw.canvas.Refresh()
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".facerev"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath, mw.canvas.Viewport().Snapshot()); err != nil {
		dialog.ShowError(err, mw.Window)
	}
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".facerev" {
			path += ".facerev"
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path, mw.canvas.Viewport().Snapshot()); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFileName("review.facerev")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onToggleOverlay() {
	mw.state.ToggleOverlayVisible()
}

func (mw *MainWindow) onToggleSingleAll() {
	mw.state.ToggleSingleAll()
}

func (mw *MainWindow) onDetectFaces() {
	r := mw.state.CurrentRaster()
	if r == nil || r.Empty() {
		mw.updateStatus("No image loaded")
		return
	}

	mw.updateStatus("Detecting faces...")
	go func() {
		det, err := detect.New(mw.cfg.Detector)
		if err != nil {
			log.Printf("detector init failed: %v", err)
			dialog.ShowError(err, mw.Window)
			return
		}
		defer det.Close()

		faces, err := det.Detect(r.Image)
		if err != nil {
			log.Printf("detection failed: %v", err)
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.state.SetFaces(faces)
	}()
}

func (mw *MainWindow) onNameFace() {
	faces := mw.state.CurrentFaces()
	if mw.state.ActiveFace < 0 || mw.state.ActiveFace >= len(faces) {
		mw.updateStatus("No face selected")
		return
	}

	entry := widget.NewEntry()
	entry.SetText(faces[mw.state.ActiveFace].Name)
	dialog.ShowForm("Name Face", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			mw.state.NameActiveFace(entry.Text)
		}, mw.Window)
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About Face Review",
		fmt.Sprintf("Face Review v%s\n\n"+
			"A photo face annotation and review tool.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}

// SavePrefs persists the window geometry before shutdown.
func (mw *MainWindow) SavePrefs() {
	size := mw.Canvas().Size()
	mw.prefs.SetFloat(prefs.KeyWindowWidth, float64(size.Width))
	mw.prefs.SetFloat(prefs.KeyWindowHeight, float64(size.Height))
	if err := mw.prefs.Save(); err != nil {
		log.Printf("failed to save preferences: %v", err)
	}
}
