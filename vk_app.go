package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unsafe"

	"github.com/vulkan-go/glfw/v3.3/glfw"
	"github.com/vulkan-go/vulkan"

	"vktriangle/internal/config"
)

const (
	maxFramesInFlight = 2
)

var (
	validationLayers = []string{"VK_LAYER_KHRONOS_validation"}
	deviceExtensions = []string{vulkan.KhrSwapchainExtensionName}
)

type queueFamilyIndices struct {
	graphicsFamily uint32
	presentFamily  uint32
	hasGraphics    bool
	hasPresent     bool
}

func (q queueFamilyIndices) complete() bool {
	return q.hasGraphics && q.hasPresent
}

type swapchainSupport struct {
	capabilities vulkan.SurfaceCapabilities
	formats      []vulkan.SurfaceFormat
	presentModes []vulkan.PresentMode
}

// VulkanApp owns every native handle of the triangle renderer.
type VulkanApp struct {
	cfg            config.Config
	log            *slog.Logger
	window         *glfw.Window
	framebuffer    framebufferSource
	instance       vulkan.Instance
	debugCallback  vulkan.DebugReportCallback
	surface        vulkan.Surface
	physicalDevice vulkan.PhysicalDevice
	device         vulkan.Device
	graphicsQueue  vulkan.Queue
	presentQueue   vulkan.Queue
	queues         queueFamilyIndices

	swapchain       vulkan.Swapchain
	swapchainImages []vulkan.Image
	swapchainFormat vulkan.Format
	swapchainExtent vulkan.Extent2D
	swapchainViews  []vulkan.ImageView
	framebuffers    []vulkan.Framebuffer

	renderPass     vulkan.RenderPass
	pipelineLayout vulkan.PipelineLayout
	pipeline       vulkan.Pipeline

	commandPool    vulkan.CommandPool
	commandBuffers []vulkan.CommandBuffer
	imageAvailable []vulkan.Semaphore
	renderFinished []vulkan.Semaphore
	inFlightFences []vulkan.Fence

	frames *frameLoop
}

// newVulkanApp builds the whole device context and pipeline. On failure the
// handles created so far are released before the error is returned.
func newVulkanApp(window *glfw.Window, cfg config.Config, log *slog.Logger) (*VulkanApp, error) {
	app := &VulkanApp{
		cfg:         cfg,
		log:         log,
		window:      window,
		framebuffer: glfwWindow{window},
	}
	app.frames = newFrameLoop(app, maxFramesInFlight)

	if err := app.initVulkan(); err != nil {
		app.Cleanup()
		return nil, err
	}
	return app, nil
}

func (a *VulkanApp) initVulkan() error {
	vulkan.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vulkan.Init(); err != nil {
		return fmt.Errorf("vulkan init: %w", err)
	}
	if err := a.createInstance(); err != nil {
		return err
	}
	if err := vulkan.InitInstance(a.instance); err != nil {
		return fmt.Errorf("vkInitInstance: %w", err)
	}
	if err := a.setupDebugCallback(); err != nil {
		return err
	}
	if err := a.createSurface(); err != nil {
		return err
	}
	if err := a.pickPhysicalDevice(); err != nil {
		return err
	}
	if err := a.createLogicalDevice(); err != nil {
		return err
	}
	if err := a.createSwapchain(); err != nil {
		return err
	}
	if err := a.createImageViews(); err != nil {
		return err
	}
	if err := a.createRenderPass(); err != nil {
		return err
	}
	if err := a.createGraphicsPipeline(); err != nil {
		return err
	}
	if err := a.createFramebuffers(); err != nil {
		return err
	}
	if err := a.createCommandPool(); err != nil {
		return err
	}
	if err := a.allocateCommandBuffers(); err != nil {
		return err
	}
	return a.createSyncObjects()
}

func (a *VulkanApp) createInstance() error {
	if a.cfg.Validation && !a.validationLayersSupported() {
		return errors.New("requested validation layers not available")
	}

	if !glfw.VulkanSupported() {
		return errors.New("GLFW Vulkan loader not found")
	}

	a.logInstanceExtensions()

	appInfo := vulkan.ApplicationInfo{
		SType:              vulkan.StructureTypeApplicationInfo,
		PApplicationName:   "Triangle\x00",
		ApplicationVersion: vulkan.MakeVersion(0, 1, 0),
		PEngineName:        "No Engine\x00",
		EngineVersion:      vulkan.MakeVersion(0, 1, 0),
		ApiVersion:         vulkan.MakeVersion(1, 0, 0),
	}

	extensions := a.window.GetRequiredInstanceExtensions()
	if a.cfg.Validation {
		extensions = append(extensions, vulkan.ExtDebugReportExtensionName)
	}
	extensions = cStrings(extensions)

	createInfo := vulkan.InstanceCreateInfo{
		SType:                   vulkan.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	if a.cfg.Validation {
		layers := cStrings(validationLayers)
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = layers
	}

	if res := vulkan.CreateInstance(&createInfo, nil, &a.instance); res != vulkan.Success {
		return fmt.Errorf("create instance: %w", vulkan.Error(res))
	}
	return nil
}

func (a *VulkanApp) validationLayersSupported() bool {
	var count uint32
	if vulkan.EnumerateInstanceLayerProperties(&count, nil) != vulkan.Success {
		return false
	}
	props := make([]vulkan.LayerProperties, count)
	if vulkan.EnumerateInstanceLayerProperties(&count, props) != vulkan.Success {
		return false
	}
	available := make([]string, 0, len(props))
	for i := range props {
		props[i].Deref()
		available = append(available, vulkan.ToString(props[i].LayerName[:]))
	}
	if missing := missingNames(validationLayers, available); len(missing) > 0 {
		a.log.Warn("validation layers missing", "layers", strings.Join(missing, ","))
		return false
	}
	return true
}

func (a *VulkanApp) setupDebugCallback() error {
	if !a.cfg.Validation {
		return nil
	}
	createInfo := vulkan.DebugReportCallbackCreateInfo{
		SType: vulkan.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vulkan.DebugReportFlags(
			vulkan.DebugReportErrorBit |
				vulkan.DebugReportWarningBit |
				vulkan.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vulkan.DebugReportFlags, objectType vulkan.DebugReportObjectType, object uint64, location uint, messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vulkan.Bool32 {
			level := slog.LevelDebug
			switch {
			case flags&vulkan.DebugReportFlags(vulkan.DebugReportErrorBit) != 0:
				level = slog.LevelError
			case flags&vulkan.DebugReportFlags(vulkan.DebugReportWarningBit|vulkan.DebugReportPerformanceWarningBit) != 0:
				level = slog.LevelWarn
			}
			a.log.Log(context.Background(), level, "validation layer", "layer", layerPrefix, "code", messageCode, "message", message)
			return vulkan.False
		},
	}
	if res := vulkan.CreateDebugReportCallback(a.instance, &createInfo, nil, &a.debugCallback); res != vulkan.Success {
		return fmt.Errorf("create debug callback: %w", vulkan.Error(res))
	}
	return nil
}

func (a *VulkanApp) createSurface() error {
	surfacePtr, err := a.window.CreateWindowSurface(a.instance, nil)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}
	a.surface = vulkan.SurfaceFromPointer(surfacePtr)
	return nil
}

func (a *VulkanApp) requestSwapchainRecreate() {
	a.frames.requestRecreate()
}

// DrawFrame runs one iteration of the frame loop.
func (a *VulkanApp) DrawFrame() error {
	return a.frames.drawFrame()
}

// WaitIdle blocks until the device has finished all submitted work.
func (a *VulkanApp) WaitIdle() error {
	return a.waitIdle()
}

func (a *VulkanApp) waitIdle() error {
	if a.device == vulkan.Device(vulkan.NullHandle) {
		return nil
	}
	if res := vulkan.DeviceWaitIdle(a.device); res != vulkan.Success {
		return fmt.Errorf("device wait idle: %w", vulkan.Error(res))
	}
	return nil
}

// Cleanup releases every handle in reverse creation order. Handles that were
// never created are skipped, so it is safe after a partial init.
func (a *VulkanApp) Cleanup() {
	if err := a.waitIdle(); err != nil {
		a.log.Warn("cleanup", "error", err)
	}

	a.destroySyncObjects()
	if a.commandPool != vulkan.CommandPool(vulkan.NullHandle) {
		vulkan.DestroyCommandPool(a.device, a.commandPool, nil)
		a.commandPool = vulkan.CommandPool(vulkan.NullHandle)
		a.commandBuffers = nil
	}
	a.destroyFramebuffers()
	if a.pipeline != vulkan.Pipeline(vulkan.NullHandle) {
		vulkan.DestroyPipeline(a.device, a.pipeline, nil)
		a.pipeline = vulkan.Pipeline(vulkan.NullHandle)
	}
	if a.pipelineLayout != vulkan.PipelineLayout(vulkan.NullHandle) {
		vulkan.DestroyPipelineLayout(a.device, a.pipelineLayout, nil)
		a.pipelineLayout = vulkan.PipelineLayout(vulkan.NullHandle)
	}
	if a.renderPass != vulkan.RenderPass(vulkan.NullHandle) {
		vulkan.DestroyRenderPass(a.device, a.renderPass, nil)
		a.renderPass = vulkan.RenderPass(vulkan.NullHandle)
	}
	a.destroyImageViews()
	a.destroySwapchain()
	if a.device != vulkan.Device(vulkan.NullHandle) {
		vulkan.DestroyDevice(a.device, nil)
		a.device = vulkan.Device(vulkan.NullHandle)
	}
	if a.debugCallback != vulkan.DebugReportCallback(vulkan.NullHandle) {
		vulkan.DestroyDebugReportCallback(a.instance, a.debugCallback, nil)
		a.debugCallback = vulkan.DebugReportCallback(vulkan.NullHandle)
	}
	if a.surface != vulkan.Surface(vulkan.NullHandle) {
		vulkan.DestroySurface(a.instance, a.surface, nil)
		a.surface = vulkan.Surface(vulkan.NullHandle)
	}
	if a.instance != vulkan.Instance(vulkan.NullHandle) {
		vulkan.DestroyInstance(a.instance, nil)
		a.instance = vulkan.Instance(vulkan.NullHandle)
	}
}
