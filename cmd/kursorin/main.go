package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ayusman/kursorin/internal/capture"
	"github.com/ayusman/kursorin/internal/config"
	"github.com/ayusman/kursorin/internal/engine"
	"github.com/ayusman/kursorin/internal/server"
	"github.com/ayusman/kursorin/internal/store"
	"github.com/ayusman/kursorin/internal/tray"
)

func main() {
	fmt.Println("Kursorin - Hands-Free Cursor Control")

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the store
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("Failed to get home directory: %v", err)
	}

	dbDir := filepath.Join(homeDir, ".kursorin")
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "kursorin.db")
	st, err := store.New(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	camera := capture.NewCameraWithSettings(
		cfg.CameraIndex, cfg.CameraWidth, cfg.CameraHeight, float64(cfg.CameraFPS))

	eng := engine.New(engine.Options{
		Camera: camera,
		Config: cfg,
	})
	defer eng.Close()

	loadActiveCalibration(st, eng)

	// Configure and start the control server
	srv := server.New(server.Config{
		Engine: eng,
		Store:  st,
		Camera: camera,
	})
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.ListenAddr)
		if err := srv.ListenAndServe(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if err := eng.Start(); err != nil {
		log.Printf("Failed to start tracking: %v", err)
	}

	// The tray owns the main goroutine; Run blocks until Quit.
	t := tray.New()
	t.OnToggle(func(paused bool) {
		if paused {
			eng.Pause()
		} else {
			eng.Resume()
		}
	})
	t.OnSettings(func() {
		log.Printf("Settings available at http://localhost%s/api/status", cfg.ListenAddr)
	})
	t.OnQuit(func() {
		eng.Close()
	})
	eng.OnStateChange(func(s engine.TrackingState) {
		t.SetState(s.String())
	})
	t.Run()
}

// loadActiveCalibration restores the calibration profile marked active in
// settings, if any.
func loadActiveCalibration(st *store.Store, eng *engine.Engine) {
	id, err := st.Settings().Get(store.ActiveProfileKey)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		log.Printf("Failed to read active calibration setting: %v", err)
		return
	}

	profile, err := st.Profiles().Get(id)
	if err != nil {
		log.Printf("Failed to load calibration profile %s: %v", id, err)
		return
	}
	if err := eng.LoadCalibration(profile.Record); err != nil {
		log.Printf("Failed to restore calibration profile %s: %v", id, err)
		return
	}
	log.Printf("Loaded calibration profile %q", profile.Name)
}
