package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCStrings(t *testing.T) {
	in := []string{"VK_KHR_swapchain", "VK_EXT_debug_report\x00"}
	got := cStrings(in)
	assert.Equal(t, []string{"VK_KHR_swapchain\x00", "VK_EXT_debug_report\x00"}, got)
	assert.Equal(t, "VK_KHR_swapchain", in[0], "input is left untouched")
}

func TestMissingNames(t *testing.T) {
	available := []string{"VK_KHR_surface\x00", "VK_KHR_swapchain", "VK_KHR_maintenance1"}

	assert.Empty(t, missingNames([]string{"VK_KHR_swapchain\x00"}, available))
	assert.Empty(t, missingNames([]string{"VK_KHR_surface"}, available))
	assert.Empty(t, missingNames(nil, available))
	assert.Equal(t,
		[]string{"VK_LAYER_KHRONOS_validation"},
		missingNames([]string{"VK_KHR_swapchain", "VK_LAYER_KHRONOS_validation\x00"}, available))
	assert.Len(t, missingNames(deviceExtensions, nil), len(deviceExtensions))
}
