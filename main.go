// Package main provides the entry point for the Face Review application.
package main

import (
	"log"
	"os"
	"path/filepath"

	"face-review/internal/app"
	"face-review/internal/config"
	"face-review/internal/version"
	"face-review/ui/mainwindow"
	"face-review/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
)

const appTitle = "Face Review"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appTitle, version.Version)

	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	fyneApp := fyneapp.NewWithID("io.facereview.app")
	fyneApp.Settings().SetTheme(&app.FaceReviewTheme{})

	appState := app.NewState()
	appPrefs := prefs.Load()

	win := mainwindow.New(fyneApp, appState, cfg, appPrefs)
	win.SetTitle(appTitle)

	// Open a project or image given on the command line, otherwise pick
	// up where the last session left off.
	if len(os.Args) > 1 {
		win.OpenPath(os.Args[1])
	} else {
		win.RestoreLastSession()
	}

	win.SetOnClosed(win.SavePrefs)
	win.ShowAndRun()
}

// configPath returns ~/.config/face-review/config.json.
func configPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "face-review", "config.json")
}
