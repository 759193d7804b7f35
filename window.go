package main

import (
	"github.com/vulkan-go/glfw/v3.3/glfw"
)

// framebufferSource is the slice of the window the renderer needs after init:
// the live framebuffer size and a way to block until the window changes.
type framebufferSource interface {
	GetFramebufferSize() (width, height int)
	WaitEvents()
}

type glfwWindow struct {
	*glfw.Window
}

func (w glfwWindow) WaitEvents() {
	glfw.WaitEvents()
}
