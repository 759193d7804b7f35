package main

import (
	"fmt"

	"github.com/vulkan-go/vulkan"
)

func (a *VulkanApp) createCommandPool() error {
	poolInfo := vulkan.CommandPoolCreateInfo{
		SType:            vulkan.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: a.queues.graphicsFamily,
		Flags:            vulkan.CommandPoolCreateFlags(vulkan.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vulkan.CreateCommandPool(a.device, &poolInfo, nil, &a.commandPool); res != vulkan.Success {
		return fmt.Errorf("create command pool: %w", vulkan.Error(res))
	}
	return nil
}

// allocateCommandBuffers allocates one primary buffer per frame-in-flight
// slot, not per swapchain image.
func (a *VulkanApp) allocateCommandBuffers() error {
	allocInfo := vulkan.CommandBufferAllocateInfo{
		SType:              vulkan.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        a.commandPool,
		Level:              vulkan.CommandBufferLevelPrimary,
		CommandBufferCount: maxFramesInFlight,
	}
	a.commandBuffers = make([]vulkan.CommandBuffer, maxFramesInFlight)
	if res := vulkan.AllocateCommandBuffers(a.device, &allocInfo, a.commandBuffers); res != vulkan.Success {
		a.commandBuffers = nil
		return fmt.Errorf("allocate command buffers: %w", vulkan.Error(res))
	}
	return nil
}

// createSyncObjects creates the per-slot semaphore pair and fence. Fences
// start signaled so the first wait on each slot returns immediately.
func (a *VulkanApp) createSyncObjects() error {
	a.imageAvailable = make([]vulkan.Semaphore, maxFramesInFlight)
	a.renderFinished = make([]vulkan.Semaphore, maxFramesInFlight)
	a.inFlightFences = make([]vulkan.Fence, maxFramesInFlight)

	semInfo := vulkan.SemaphoreCreateInfo{
		SType: vulkan.StructureTypeSemaphoreCreateInfo,
	}
	fenceInfo := vulkan.FenceCreateInfo{
		SType: vulkan.StructureTypeFenceCreateInfo,
		Flags: vulkan.FenceCreateFlags(vulkan.FenceCreateSignaledBit),
	}

	for i := 0; i < maxFramesInFlight; i++ {
		if res := vulkan.CreateSemaphore(a.device, &semInfo, nil, &a.imageAvailable[i]); res != vulkan.Success {
			return fmt.Errorf("create imageAvailable semaphore %d: %w", i, vulkan.Error(res))
		}
		if res := vulkan.CreateSemaphore(a.device, &semInfo, nil, &a.renderFinished[i]); res != vulkan.Success {
			return fmt.Errorf("create renderFinished semaphore %d: %w", i, vulkan.Error(res))
		}
		if res := vulkan.CreateFence(a.device, &fenceInfo, nil, &a.inFlightFences[i]); res != vulkan.Success {
			return fmt.Errorf("create fence %d: %w", i, vulkan.Error(res))
		}
	}
	return nil
}

func (a *VulkanApp) destroySyncObjects() {
	for i := len(a.inFlightFences) - 1; i >= 0; i-- {
		if a.inFlightFences[i] != vulkan.Fence(vulkan.NullHandle) {
			vulkan.DestroyFence(a.device, a.inFlightFences[i], nil)
		}
		if a.renderFinished[i] != vulkan.Semaphore(vulkan.NullHandle) {
			vulkan.DestroySemaphore(a.device, a.renderFinished[i], nil)
		}
		if a.imageAvailable[i] != vulkan.Semaphore(vulkan.NullHandle) {
			vulkan.DestroySemaphore(a.device, a.imageAvailable[i], nil)
		}
	}
	a.inFlightFences = nil
	a.renderFinished = nil
	a.imageAvailable = nil
}

func (a *VulkanApp) recordCommandBuffer(cb vulkan.CommandBuffer, imageIndex uint32) error {
	beginInfo := vulkan.CommandBufferBeginInfo{
		SType: vulkan.StructureTypeCommandBufferBeginInfo,
	}
	if res := vulkan.BeginCommandBuffer(cb, &beginInfo); res != vulkan.Success {
		return fmt.Errorf("begin command buffer: %w", vulkan.Error(res))
	}

	clearColor := a.cfg.ClearColor
	clearValues := []vulkan.ClearValue{vulkan.NewClearValue(clearColor[:])}

	renderPassInfo := vulkan.RenderPassBeginInfo{
		SType:       vulkan.StructureTypeRenderPassBeginInfo,
		RenderPass:  a.renderPass,
		Framebuffer: a.framebuffers[imageIndex],
		RenderArea: vulkan.Rect2D{
			Offset: vulkan.Offset2D{X: 0, Y: 0},
			Extent: a.swapchainExtent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}

	vulkan.CmdBeginRenderPass(cb, &renderPassInfo, vulkan.SubpassContentsInline)
	vulkan.CmdBindPipeline(cb, vulkan.PipelineBindPointGraphics, a.pipeline)

	viewport := vulkan.Viewport{
		X:        0,
		Y:        0,
		Width:    float32(a.swapchainExtent.Width),
		Height:   float32(a.swapchainExtent.Height),
		MinDepth: 0,
		MaxDepth: 1,
	}
	vulkan.CmdSetViewport(cb, 0, 1, []vulkan.Viewport{viewport})
	scissor := vulkan.Rect2D{
		Offset: vulkan.Offset2D{X: 0, Y: 0},
		Extent: a.swapchainExtent,
	}
	vulkan.CmdSetScissor(cb, 0, 1, []vulkan.Rect2D{scissor})

	// The vertex shader generates the three corners from gl_VertexIndex.
	vulkan.CmdDraw(cb, 3, 1, 0, 0)

	vulkan.CmdEndRenderPass(cb)

	if res := vulkan.EndCommandBuffer(cb); res != vulkan.Success {
		return fmt.Errorf("end command buffer: %w", vulkan.Error(res))
	}
	return nil
}

func (a *VulkanApp) waitForFrame(slot int) error {
	res := vulkan.WaitForFences(a.device, 1, []vulkan.Fence{a.inFlightFences[slot]}, vulkan.True, vulkan.MaxUint64)
	if res != vulkan.Success {
		return resultError(fmt.Sprintf("wait for fence %d", slot), res)
	}
	return nil
}

func (a *VulkanApp) acquireImage(slot int) (uint32, vulkan.Result) {
	var imageIndex uint32
	res := vulkan.AcquireNextImage(a.device, a.swapchain, vulkan.MaxUint64, a.imageAvailable[slot], vulkan.Fence(vulkan.NullHandle), &imageIndex)
	return imageIndex, res
}

// resetFrame runs only after a successful acquire. Resetting the fence any
// earlier would leave it unsignaled when the frame is skipped.
func (a *VulkanApp) resetFrame(slot int) error {
	if res := vulkan.ResetFences(a.device, 1, []vulkan.Fence{a.inFlightFences[slot]}); res != vulkan.Success {
		return fmt.Errorf("reset fence %d: %w", slot, vulkan.Error(res))
	}
	if res := vulkan.ResetCommandBuffer(a.commandBuffers[slot], 0); res != vulkan.Success {
		return fmt.Errorf("reset command buffer %d: %w", slot, vulkan.Error(res))
	}
	return nil
}

func (a *VulkanApp) recordFrame(slot int, imageIndex uint32) error {
	return a.recordCommandBuffer(a.commandBuffers[slot], imageIndex)
}

func (a *VulkanApp) submitFrame(slot int) error {
	// Waiting at color attachment output lets vertex work start before the
	// image is released by the presentation engine.
	waitStages := []vulkan.PipelineStageFlags{vulkan.PipelineStageFlags(vulkan.PipelineStageColorAttachmentOutputBit)}
	submitInfo := vulkan.SubmitInfo{
		SType:                vulkan.StructureTypeSubmitInfo,
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vulkan.Semaphore{a.imageAvailable[slot]},
		PWaitDstStageMask:    waitStages,
		CommandBufferCount:   1,
		PCommandBuffers:      []vulkan.CommandBuffer{a.commandBuffers[slot]},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vulkan.Semaphore{a.renderFinished[slot]},
	}
	if res := vulkan.QueueSubmit(a.graphicsQueue, 1, []vulkan.SubmitInfo{submitInfo}, a.inFlightFences[slot]); res != vulkan.Success {
		return fmt.Errorf("queue submit: %w", vulkan.Error(res))
	}
	return nil
}

func (a *VulkanApp) presentImage(slot int, imageIndex uint32) vulkan.Result {
	presentInfo := vulkan.PresentInfo{
		SType:              vulkan.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vulkan.Semaphore{a.renderFinished[slot]},
		SwapchainCount:     1,
		PSwapchains:        []vulkan.Swapchain{a.swapchain},
		PImageIndices:      []uint32{imageIndex},
	}
	return vulkan.QueuePresent(a.presentQueue, &presentInfo)
}
