package main

import (
	"fmt"

	"github.com/vulkan-go/vulkan"
)

// frameStages is the GPU work behind one frame. Each call operates on a
// frame-in-flight slot; the frame loop decides the order and what a result
// code means.
type frameStages interface {
	waitForFrame(slot int) error
	acquireImage(slot int) (uint32, vulkan.Result)
	resetFrame(slot int) error
	recordFrame(slot int, imageIndex uint32) error
	submitFrame(slot int) error
	presentImage(slot int, imageIndex uint32) vulkan.Result
	recreateSwapchain() error
}

// frameLoop cycles through a fixed pool of in-flight slots and rebuilds the
// swapchain whenever acquire or present reports it stale.
type frameLoop struct {
	stages   frameStages
	inFlight int
	current  int

	// needsRecreate is set by the resize callback or a suboptimal acquire
	// and consumed after the next present.
	needsRecreate bool
}

func newFrameLoop(stages frameStages, inFlight int) *frameLoop {
	if inFlight <= 0 {
		panic(fmt.Sprintf("frame loop needs at least one slot, got %d", inFlight))
	}
	return &frameLoop{
		stages:   stages,
		inFlight: inFlight,
	}
}

func (f *frameLoop) requestRecreate() {
	f.needsRecreate = true
}

func (f *frameLoop) slot() int {
	return f.current
}

func (f *frameLoop) drawFrame() error {
	slot := f.current
	if err := f.stages.waitForFrame(slot); err != nil {
		return err
	}

	imageIndex, res := f.stages.acquireImage(slot)
	switch res {
	case vulkan.Success:
	case vulkan.Suboptimal:
		f.needsRecreate = true
	case vulkan.ErrorOutOfDate:
		// Nothing was submitted, so the slot's fence is still signaled and
		// the next call waits on the same slot.
		return f.stages.recreateSwapchain()
	default:
		return resultError("acquire next image", res)
	}

	if err := f.stages.resetFrame(slot); err != nil {
		return err
	}
	if err := f.stages.recordFrame(slot, imageIndex); err != nil {
		return err
	}
	if err := f.stages.submitFrame(slot); err != nil {
		return err
	}

	res = f.stages.presentImage(slot, imageIndex)
	f.current = (f.current + 1) % f.inFlight

	if res == vulkan.ErrorOutOfDate || res == vulkan.Suboptimal || f.needsRecreate {
		f.needsRecreate = false
		return f.stages.recreateSwapchain()
	}
	if res != vulkan.Success {
		return resultError("queue present", res)
	}
	return nil
}

// resultError wraps a failing Result. Non-success codes that vulkan.Error
// does not map to an error still produce one.
func resultError(op string, res vulkan.Result) error {
	if err := vulkan.Error(res); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: unexpected result %d", op, res)
}
