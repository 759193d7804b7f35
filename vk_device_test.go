package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vulkan-go/vulkan"
)

func TestDeviceSuitable(t *testing.T) {
	bothQueues := queueFamilyIndices{graphicsFamily: 0, presentFamily: 1, hasGraphics: true, hasPresent: true}
	adequate := swapchainSupport{
		formats:      []vulkan.SurfaceFormat{{Format: vulkan.FormatB8g8r8a8Srgb}},
		presentModes: []vulkan.PresentMode{vulkan.PresentModeFifo},
	}

	tests := []struct {
		name    string
		queues  queueFamilyIndices
		extOK   bool
		support swapchainSupport
		want    bool
	}{
		{name: "all requirements met", queues: bothQueues, extOK: true, support: adequate, want: true},
		{name: "shared family", queues: queueFamilyIndices{hasGraphics: true, hasPresent: true}, extOK: true, support: adequate, want: true},
		{name: "no present queue", queues: queueFamilyIndices{hasGraphics: true}, extOK: true, support: adequate, want: false},
		{name: "no graphics queue", queues: queueFamilyIndices{hasPresent: true}, extOK: true, support: adequate, want: false},
		{name: "missing swapchain extension", queues: bothQueues, extOK: false, support: adequate, want: false},
		{name: "no formats", queues: bothQueues, extOK: true, support: swapchainSupport{presentModes: adequate.presentModes}, want: false},
		{name: "no present modes", queues: bothQueues, extOK: true, support: swapchainSupport{formats: adequate.formats}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deviceSuitable(tt.queues, tt.extOK, tt.support))
		})
	}
}
