package main

import (
	"fmt"
	"math"

	"github.com/vulkan-go/vulkan"
)

// swapchainResources is everything tied to the current swapchain. Rebuilding
// goes through this seam so the order of operations does not depend on a GPU.
type swapchainResources interface {
	waitIdle() error
	destroyFramebuffers()
	destroyImageViews()
	destroySwapchain()
	createSwapchain() error
	createImageViews() error
	createFramebuffers() error
}

// rebuildSwapchain waits out a minimized window, drains the device and
// replaces the swapchain, its image views and framebuffers. The render pass
// and pipeline survive because the surface format does not change.
func rebuildSwapchain(fb framebufferSource, sc swapchainResources) error {
	width, height := fb.GetFramebufferSize()
	for width == 0 || height == 0 {
		fb.WaitEvents()
		width, height = fb.GetFramebufferSize()
	}

	if err := sc.waitIdle(); err != nil {
		return err
	}

	sc.destroyFramebuffers()
	sc.destroyImageViews()
	sc.destroySwapchain()

	if err := sc.createSwapchain(); err != nil {
		return err
	}
	if err := sc.createImageViews(); err != nil {
		return err
	}
	return sc.createFramebuffers()
}

func (a *VulkanApp) recreateSwapchain() error {
	if err := rebuildSwapchain(a.framebuffer, a); err != nil {
		return fmt.Errorf("recreate swapchain: %w", err)
	}
	a.log.Info("swapchain recreated",
		"width", a.swapchainExtent.Width,
		"height", a.swapchainExtent.Height,
		"images", len(a.swapchainImages))
	return nil
}

func (a *VulkanApp) querySwapchainSupport(device vulkan.PhysicalDevice) swapchainSupport {
	var details swapchainSupport
	vulkan.GetPhysicalDeviceSurfaceCapabilities(device, a.surface, &details.capabilities)
	details.capabilities.Deref()
	details.capabilities.CurrentExtent.Deref()
	details.capabilities.MinImageExtent.Deref()
	details.capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vulkan.GetPhysicalDeviceSurfaceFormats(device, a.surface, &formatCount, nil)
	if formatCount > 0 {
		details.formats = make([]vulkan.SurfaceFormat, formatCount)
		vulkan.GetPhysicalDeviceSurfaceFormats(device, a.surface, &formatCount, details.formats)
		for i := range details.formats {
			details.formats[i].Deref()
		}
	}

	var presentCount uint32
	vulkan.GetPhysicalDeviceSurfacePresentModes(device, a.surface, &presentCount, nil)
	if presentCount > 0 {
		details.presentModes = make([]vulkan.PresentMode, presentCount)
		vulkan.GetPhysicalDeviceSurfacePresentModes(device, a.surface, &presentCount, details.presentModes)
	}

	return details
}

func chooseSwapSurfaceFormat(available []vulkan.SurfaceFormat) vulkan.SurfaceFormat {
	for _, f := range available {
		if f.Format == vulkan.FormatB8g8r8a8Srgb && f.ColorSpace == vulkan.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return available[0]
}

func chooseSwapPresentMode(available []vulkan.PresentMode) vulkan.PresentMode {
	for _, m := range available {
		if m == vulkan.PresentModeMailbox {
			return m
		}
	}
	return vulkan.PresentModeFifo
}

// chooseSwapExtent uses the surface's extent unless the surface leaves it to
// the application, in which case the framebuffer size is clamped to the
// supported range.
func chooseSwapExtent(caps vulkan.SurfaceCapabilities, fb framebufferSource) vulkan.Extent2D {
	if caps.CurrentExtent.Width != math.MaxUint32 {
		return caps.CurrentExtent
	}
	w, h := fb.GetFramebufferSize()
	return vulkan.Extent2D{
		Width:  clamp(uint32(max(w, 0)), caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(uint32(max(h, 0)), caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps vulkan.SurfaceCapabilities) uint32 {
	imageCount := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && imageCount > caps.MaxImageCount {
		imageCount = caps.MaxImageCount
	}
	return imageCount
}

func (a *VulkanApp) createSwapchain() error {
	support := a.querySwapchainSupport(a.physicalDevice)
	if len(support.formats) == 0 || len(support.presentModes) == 0 {
		return fmt.Errorf("surface reports %d formats and %d present modes", len(support.formats), len(support.presentModes))
	}

	surfaceFormat := chooseSwapSurfaceFormat(support.formats)
	presentMode := chooseSwapPresentMode(support.presentModes)
	extent := chooseSwapExtent(support.capabilities, a.framebuffer)

	createInfo := vulkan.SwapchainCreateInfo{
		SType:            vulkan.StructureTypeSwapchainCreateInfo,
		Surface:          a.surface,
		MinImageCount:    chooseImageCount(support.capabilities),
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vulkan.ImageUsageFlags(vulkan.ImageUsageColorAttachmentBit),
		PreTransform:     support.capabilities.CurrentTransform,
		CompositeAlpha:   vulkan.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vulkan.True,
		OldSwapchain:     vulkan.Swapchain(vulkan.NullHandle),
	}

	if a.queues.graphicsFamily != a.queues.presentFamily {
		indices := []uint32{a.queues.graphicsFamily, a.queues.presentFamily}
		createInfo.ImageSharingMode = vulkan.SharingModeConcurrent
		createInfo.QueueFamilyIndexCount = uint32(len(indices))
		createInfo.PQueueFamilyIndices = indices
	} else {
		createInfo.ImageSharingMode = vulkan.SharingModeExclusive
	}

	if res := vulkan.CreateSwapchain(a.device, &createInfo, nil, &a.swapchain); res != vulkan.Success {
		return fmt.Errorf("create swapchain: %w", vulkan.Error(res))
	}

	var count uint32
	if res := vulkan.GetSwapchainImages(a.device, a.swapchain, &count, nil); res != vulkan.Success {
		return fmt.Errorf("get swapchain image count: %w", vulkan.Error(res))
	}
	a.swapchainImages = make([]vulkan.Image, count)
	if res := vulkan.GetSwapchainImages(a.device, a.swapchain, &count, a.swapchainImages); res != vulkan.Success {
		return fmt.Errorf("get swapchain images: %w", vulkan.Error(res))
	}
	a.swapchainFormat = surfaceFormat.Format
	a.swapchainExtent = extent

	a.log.Debug("swapchain created",
		"format", surfaceFormat.Format,
		"presentMode", presentMode,
		"width", extent.Width,
		"height", extent.Height,
		"images", count)
	return nil
}

func (a *VulkanApp) createImageViews() error {
	a.swapchainViews = make([]vulkan.ImageView, 0, len(a.swapchainImages))
	for i, img := range a.swapchainImages {
		viewInfo := vulkan.ImageViewCreateInfo{
			SType:    vulkan.StructureTypeImageViewCreateInfo,
			Image:    img,
			ViewType: vulkan.ImageViewType2d,
			Format:   a.swapchainFormat,
			Components: vulkan.ComponentMapping{
				R: vulkan.ComponentSwizzleIdentity,
				G: vulkan.ComponentSwizzleIdentity,
				B: vulkan.ComponentSwizzleIdentity,
				A: vulkan.ComponentSwizzleIdentity,
			},
			SubresourceRange: vulkan.ImageSubresourceRange{
				AspectMask:     vulkan.ImageAspectFlags(vulkan.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}
		var view vulkan.ImageView
		if res := vulkan.CreateImageView(a.device, &viewInfo, nil, &view); res != vulkan.Success {
			return fmt.Errorf("create image view %d: %w", i, vulkan.Error(res))
		}
		a.swapchainViews = append(a.swapchainViews, view)
	}
	return nil
}

func (a *VulkanApp) createFramebuffers() error {
	a.framebuffers = make([]vulkan.Framebuffer, 0, len(a.swapchainViews))
	for i, view := range a.swapchainViews {
		createInfo := vulkan.FramebufferCreateInfo{
			SType:           vulkan.StructureTypeFramebufferCreateInfo,
			RenderPass:      a.renderPass,
			AttachmentCount: 1,
			PAttachments:    []vulkan.ImageView{view},
			Width:           a.swapchainExtent.Width,
			Height:          a.swapchainExtent.Height,
			Layers:          1,
		}
		var fb vulkan.Framebuffer
		if res := vulkan.CreateFramebuffer(a.device, &createInfo, nil, &fb); res != vulkan.Success {
			return fmt.Errorf("create framebuffer %d: %w", i, vulkan.Error(res))
		}
		a.framebuffers = append(a.framebuffers, fb)
	}
	return nil
}

func (a *VulkanApp) destroyFramebuffers() {
	for _, fb := range a.framebuffers {
		vulkan.DestroyFramebuffer(a.device, fb, nil)
	}
	a.framebuffers = nil
}

func (a *VulkanApp) destroyImageViews() {
	for _, view := range a.swapchainViews {
		vulkan.DestroyImageView(a.device, view, nil)
	}
	a.swapchainViews = nil
}

// destroySwapchain also drops the image handles, which the swapchain owns.
func (a *VulkanApp) destroySwapchain() {
	if a.swapchain != vulkan.Swapchain(vulkan.NullHandle) {
		vulkan.DestroySwapchain(a.device, a.swapchain, nil)
		a.swapchain = vulkan.Swapchain(vulkan.NullHandle)
	}
	a.swapchainImages = nil
}

func clamp(val, lo, hi uint32) uint32 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}
