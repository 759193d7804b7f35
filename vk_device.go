package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vulkan-go/vulkan"
)

func (a *VulkanApp) logInstanceExtensions() {
	if !a.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var count uint32
	if vulkan.EnumerateInstanceExtensionProperties("", &count, nil) != vulkan.Success {
		return
	}
	props := make([]vulkan.ExtensionProperties, count)
	if vulkan.EnumerateInstanceExtensionProperties("", &count, props) != vulkan.Success {
		return
	}
	names := make([]string, 0, len(props))
	for i := range props {
		props[i].Deref()
		names = append(names, vulkan.ToString(props[i].ExtensionName[:]))
	}
	a.log.Debug("available instance extensions", "count", len(names), "extensions", names)
}

// pickPhysicalDevice takes the first device that can draw and present to the
// surface. There is no ranking.
func (a *VulkanApp) pickPhysicalDevice() error {
	var count uint32
	if res := vulkan.EnumeratePhysicalDevices(a.instance, &count, nil); res != vulkan.Success {
		return fmt.Errorf("enumerate physical devices: %w", vulkan.Error(res))
	}
	if count == 0 {
		return errors.New("no GPU with Vulkan support found")
	}
	devices := make([]vulkan.PhysicalDevice, count)
	if res := vulkan.EnumeratePhysicalDevices(a.instance, &count, devices); res != vulkan.Success {
		return fmt.Errorf("enumerate physical devices list: %w", vulkan.Error(res))
	}

	for _, dev := range devices {
		q := a.findQueueFamilies(dev)
		extOK := a.deviceExtensionsSupported(dev)
		var support swapchainSupport
		if extOK {
			support = a.querySwapchainSupport(dev)
		}
		if !deviceSuitable(q, extOK, support) {
			continue
		}
		a.physicalDevice = dev
		a.queues = q

		var props vulkan.PhysicalDeviceProperties
		vulkan.GetPhysicalDeviceProperties(dev, &props)
		props.Deref()
		a.log.Info("selected GPU",
			"name", vulkan.ToString(props.DeviceName[:]),
			"graphicsFamily", q.graphicsFamily,
			"presentFamily", q.presentFamily)
		return nil
	}
	return errors.New("no suitable GPU found")
}

// deviceSuitable requires graphics and present queues, the device extensions,
// and at least one surface format and present mode. Swapchain support is only
// meaningful once the extensions are known to be present.
func deviceSuitable(q queueFamilyIndices, extensionsSupported bool, support swapchainSupport) bool {
	if !q.complete() || !extensionsSupported {
		return false
	}
	return len(support.formats) > 0 && len(support.presentModes) > 0
}

func (a *VulkanApp) deviceExtensionsSupported(device vulkan.PhysicalDevice) bool {
	var count uint32
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, nil); res != vulkan.Success {
		return false
	}
	props := make([]vulkan.ExtensionProperties, count)
	if res := vulkan.EnumerateDeviceExtensionProperties(device, "", &count, props); res != vulkan.Success {
		return false
	}
	available := make([]string, 0, len(props))
	for i := range props {
		props[i].Deref()
		available = append(available, vulkan.ToString(props[i].ExtensionName[:]))
	}
	return len(missingNames(deviceExtensions, available)) == 0
}

func (a *VulkanApp) findQueueFamilies(device vulkan.PhysicalDevice) queueFamilyIndices {
	var count uint32
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, nil)
	props := make([]vulkan.QueueFamilyProperties, count)
	vulkan.GetPhysicalDeviceQueueFamilyProperties(device, &count, props)

	var indices queueFamilyIndices
	for i := range props {
		props[i].Deref()
		if props[i].QueueFlags&vulkan.QueueFlags(vulkan.QueueGraphicsBit) != 0 {
			indices.graphicsFamily = uint32(i)
			indices.hasGraphics = true
		}
		var present vulkan.Bool32
		vulkan.GetPhysicalDeviceSurfaceSupport(device, uint32(i), a.surface, &present)
		if present == vulkan.True {
			indices.presentFamily = uint32(i)
			indices.hasPresent = true
		}
		if indices.complete() {
			break
		}
	}
	return indices
}

func (a *VulkanApp) createLogicalDevice() error {
	families := []uint32{a.queues.graphicsFamily}
	if a.queues.presentFamily != a.queues.graphicsFamily {
		families = append(families, a.queues.presentFamily)
	}
	queueInfos := make([]vulkan.DeviceQueueCreateInfo, 0, len(families))
	for _, family := range families {
		queueInfos = append(queueInfos, vulkan.DeviceQueueCreateInfo{
			SType:            vulkan.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		})
	}

	extensions := cStrings(deviceExtensions)
	createInfo := vulkan.DeviceCreateInfo{
		SType:                   vulkan.StructureTypeDeviceCreateInfo,
		PQueueCreateInfos:       queueInfos,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PEnabledFeatures:        []vulkan.PhysicalDeviceFeatures{{}},
		PpEnabledExtensionNames: extensions,
		EnabledExtensionCount:   uint32(len(extensions)),
	}
	if a.cfg.Validation {
		layers := cStrings(validationLayers)
		createInfo.EnabledLayerCount = uint32(len(layers))
		createInfo.PpEnabledLayerNames = layers
	}

	if res := vulkan.CreateDevice(a.physicalDevice, &createInfo, nil, &a.device); res != vulkan.Success {
		return fmt.Errorf("create logical device: %w", vulkan.Error(res))
	}

	vulkan.GetDeviceQueue(a.device, a.queues.graphicsFamily, 0, &a.graphicsQueue)
	vulkan.GetDeviceQueue(a.device, a.queues.presentFamily, 0, &a.presentQueue)
	return nil
}
