package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ayusman/natya/internal/app"
	"github.com/ayusman/natya/internal/server"
	"github.com/ayusman/natya/internal/store"
	"github.com/ayusman/natya/internal/tray"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the practice server",
}

func init() {
	serveCmd.RunE = runServe
	serveCmd.Flags().String("addr", envOr("NATYA_ADDR", ":8080"), "HTTP listen address (NATYA_ADDR)")
	serveCmd.Flags().String("web", "", "Directory of static web files (default: search web/ and ~/.natya/web)")
	serveCmd.Flags().Int("camera", 0, "Camera device ID used for practice and the stream")
	serveCmd.Flags().Duration("interval", app.DefaultConfig().SampleInterval, "Time between scored frames during practice")
	serveCmd.Flags().Bool("tray", false, "Show a system tray menu")
}

func runServe(cmd *cobra.Command, args []string) error {
	// The root command shares this RunE without the serve flags.
	flags := serveCmd.Flags()
	addr, _ := flags.GetString("addr")
	webDir, _ := flags.GetString("web")
	cameraID, _ := flags.GetInt("camera")
	interval, _ := flags.GetDuration("interval")
	withTray, _ := flags.GetBool("tray")

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return err
	}
	st, err := store.New(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Printf("using database %s", st.Path())

	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Printf("serving static files from %s", webDir)
	}

	cfg := app.DefaultConfig()
	cfg.Store = st
	cfg.CameraID = cameraID
	cfg.SampleInterval = interval
	application := app.New(cfg)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go application.Sessions().Run(ctx, time.Minute)

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		App:       application,
		Camera:    application.Camera(),
	})

	if !withTray {
		log.Printf("starting server on %s", addr)
		return srv.Run(ctx, addr)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("starting server on %s", addr)
		errCh <- srv.Run(ctx, addr)
	}()

	t := newTray(application, st, settingsURL(addr), stop)
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	// systray owns the main thread until Quit.
	t.Run()
	stop()
	return <-errCh
}

// trayController wires the tray menu to the application.
type trayController struct {
	*tray.Tray
	app   *app.App
	store *store.Store
}

func newTray(application *app.App, st *store.Store, url string, quit func()) *trayController {
	t := &trayController{Tray: tray.New(), app: application, store: st}

	application.OnEvaluation(func(e app.Evaluation) {
		score := e.Score
		if !e.Detected {
			score = -1
		}
		t.SetLastFeedback(string(e.Feedback), score)
	})

	t.OnPractice(t.togglePractice)
	t.OnClear(func() {
		application.Sessions().ClearAll()
		log.Println("cleared all sessions")
	})
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			log.Printf("failed to open browser: %v", err)
		}
	})
	t.OnQuit(quit)
	return t
}

// togglePractice starts practice on the most recently created choreography or
// stops the current run. It returns whether practice is running afterwards.
func (t *trayController) togglePractice(start bool) bool {
	if !start {
		t.app.StopPractice()
		return false
	}

	choreographies, err := t.store.Choreographies().List()
	if err != nil || len(choreographies) == 0 {
		log.Printf("no choreography to practice")
		return false
	}

	err = t.app.StartPractice(choreographies[0].ID, uuid.New().String())
	switch {
	case err == nil, errors.Is(err, app.ErrPracticeRunning):
		return true
	default:
		log.Printf("failed to start practice: %v", err)
		return false
	}
}

// Quit stops the tray event loop.
func (t *trayController) Quit() {
	tray.Quit()
}

func settingsURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
