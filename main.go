package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/vulkan-go/glfw/v3.3/glfw"

	"vktriangle/internal/config"
	"vktriangle/internal/logger"
)

// EnvConfig names the optional YAML config file.
const EnvConfig = "TRIANGLE_CONFIG"

func init() {
	// GLFW/Vulkan require the main thread.
	runtime.LockOSThread()
}

func main() {
	cfg, err := config.Load(os.Getenv(EnvConfig))
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.LookupEnv)
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, slog.Default()); err != nil {
		slog.Error("triangle exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	defer window.Destroy()

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
		}
	})

	app, err := newVulkanApp(window, cfg, log)
	if err != nil {
		return fmt.Errorf("init vulkan: %w", err)
	}
	defer app.Cleanup()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width int, height int) {
		app.requestSwapchainRecreate()
	})

	log.Info("entering main loop", "validation", cfg.Validation)

	for !window.ShouldClose() {
		glfw.PollEvents()
		if err := app.DrawFrame(); err != nil {
			return fmt.Errorf("draw frame: %w", err)
		}
	}
	// Nothing may be destroyed while the last frames are still in flight.
	return app.WaitIdle()
}
