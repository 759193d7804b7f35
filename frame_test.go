package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vulkan-go/vulkan"
)

// fakeStages records every stage call as a string and returns scripted
// acquire/present results.
type fakeStages struct {
	calls        []string
	acquire      []vulkan.Result
	present      []vulkan.Result
	recreateErr  error
	recreations  int
	nextImage    uint32
	fenceWaits   map[int]int
	submitFailed bool
}

func newFakeStages() *fakeStages {
	return &fakeStages{fenceWaits: map[int]int{}}
}

func pop(results *[]vulkan.Result) vulkan.Result {
	if len(*results) == 0 {
		return vulkan.Success
	}
	r := (*results)[0]
	*results = (*results)[1:]
	return r
}

func (f *fakeStages) waitForFrame(slot int) error {
	f.fenceWaits[slot]++
	f.calls = append(f.calls, fmt.Sprintf("wait %d", slot))
	return nil
}

func (f *fakeStages) acquireImage(slot int) (uint32, vulkan.Result) {
	f.calls = append(f.calls, fmt.Sprintf("acquire %d", slot))
	img := f.nextImage
	f.nextImage = (f.nextImage + 1) % 3
	return img, pop(&f.acquire)
}

func (f *fakeStages) resetFrame(slot int) error {
	f.calls = append(f.calls, fmt.Sprintf("reset %d", slot))
	return nil
}

func (f *fakeStages) recordFrame(slot int, imageIndex uint32) error {
	f.calls = append(f.calls, fmt.Sprintf("record %d image %d", slot, imageIndex))
	return nil
}

func (f *fakeStages) submitFrame(slot int) error {
	f.calls = append(f.calls, fmt.Sprintf("submit %d", slot))
	if f.submitFailed {
		return fmt.Errorf("queue submit: %w", vulkan.Error(vulkan.ErrorDeviceLost))
	}
	return nil
}

func (f *fakeStages) presentImage(slot int, imageIndex uint32) vulkan.Result {
	f.calls = append(f.calls, fmt.Sprintf("present %d image %d", slot, imageIndex))
	return pop(&f.present)
}

func (f *fakeStages) recreateSwapchain() error {
	f.recreations++
	f.calls = append(f.calls, "recreate")
	return f.recreateErr
}

func TestFrameLoopTwoSlotsInOrder(t *testing.T) {
	stages := newFakeStages()
	loop := newFrameLoop(stages, maxFramesInFlight)

	require.NoError(t, loop.drawFrame())
	require.NoError(t, loop.drawFrame())

	require.Equal(t, []string{
		"wait 0", "acquire 0", "reset 0", "record 0 image 0", "submit 0", "present 0 image 0",
		"wait 1", "acquire 1", "reset 1", "record 1 image 1", "submit 1", "present 1 image 1",
	}, stages.calls)
	assert.Equal(t, map[int]int{0: 1, 1: 1}, stages.fenceWaits)
	assert.Equal(t, 0, loop.slot())
	assert.Zero(t, stages.recreations)
}

func TestFrameLoopSlotCyclesThroughAllSlots(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4} {
		t.Run(fmt.Sprintf("slots=%d", n), func(t *testing.T) {
			loop := newFrameLoop(newFakeStages(), n)
			seen := map[int]bool{}
			for i := 0; i < 5*n; i++ {
				slot := loop.slot()
				require.GreaterOrEqual(t, slot, 0)
				require.LessOrEqual(t, slot, n-1)
				require.Equal(t, i%n, slot)
				seen[slot] = true
				require.NoError(t, loop.drawFrame())
			}
			require.Len(t, seen, n)
		})
	}
}

func TestFrameLoopOutOfDateAcquireSkipsFrame(t *testing.T) {
	stages := newFakeStages()
	stages.acquire = []vulkan.Result{vulkan.ErrorOutOfDate}
	loop := newFrameLoop(stages, maxFramesInFlight)

	require.NoError(t, loop.drawFrame())
	require.Equal(t, []string{"wait 0", "acquire 0", "recreate"}, stages.calls)
	require.Equal(t, 0, loop.slot(), "skipped frame keeps the slot")

	stages.calls = nil
	require.NoError(t, loop.drawFrame())
	require.Equal(t, "wait 0", stages.calls[0])
	require.Contains(t, stages.calls, "submit 0")
	require.Equal(t, 1, loop.slot())
	require.Equal(t, 1, stages.recreations)
}

func TestFrameLoopSuboptimalAcquireRecreatesAfterPresent(t *testing.T) {
	stages := newFakeStages()
	stages.acquire = []vulkan.Result{vulkan.Suboptimal}
	loop := newFrameLoop(stages, maxFramesInFlight)

	require.NoError(t, loop.drawFrame())
	require.Equal(t, []string{
		"wait 0", "acquire 0", "reset 0", "record 0 image 0", "submit 0", "present 0 image 0", "recreate",
	}, stages.calls)
	require.Equal(t, 1, loop.slot())

	stages.calls = nil
	require.NoError(t, loop.drawFrame())
	require.NotContains(t, stages.calls, "recreate", "flag is consumed by one recreation")
}

func TestFrameLoopPresentStaleRecreates(t *testing.T) {
	for _, res := range []vulkan.Result{vulkan.ErrorOutOfDate, vulkan.Suboptimal} {
		t.Run(fmt.Sprintf("result=%d", res), func(t *testing.T) {
			stages := newFakeStages()
			stages.present = []vulkan.Result{res}
			loop := newFrameLoop(stages, maxFramesInFlight)

			require.NoError(t, loop.drawFrame())
			require.Equal(t, "recreate", stages.calls[len(stages.calls)-1])
			require.Equal(t, 1, loop.slot(), "slot advances on the recreate branch too")
		})
	}
}

func TestFrameLoopResizeRequestRecreatesAfterPresent(t *testing.T) {
	stages := newFakeStages()
	loop := newFrameLoop(stages, maxFramesInFlight)
	loop.requestRecreate()

	require.NoError(t, loop.drawFrame())
	require.Equal(t, 1, stages.recreations)
	require.Contains(t, stages.calls, "submit 0", "resize does not skip the frame")

	require.NoError(t, loop.drawFrame())
	require.Equal(t, 1, stages.recreations)
}

func TestFrameLoopFatalResults(t *testing.T) {
	t.Run("acquire", func(t *testing.T) {
		stages := newFakeStages()
		stages.acquire = []vulkan.Result{vulkan.ErrorDeviceLost}
		loop := newFrameLoop(stages, maxFramesInFlight)

		err := loop.drawFrame()
		require.ErrorContains(t, err, "acquire next image")
		require.Equal(t, []string{"wait 0", "acquire 0"}, stages.calls)
		require.Zero(t, stages.recreations)
	})

	t.Run("present", func(t *testing.T) {
		stages := newFakeStages()
		stages.present = []vulkan.Result{vulkan.ErrorSurfaceLost}
		loop := newFrameLoop(stages, maxFramesInFlight)

		err := loop.drawFrame()
		require.ErrorContains(t, err, "queue present")
		require.Zero(t, stages.recreations)
	})

	t.Run("submit", func(t *testing.T) {
		stages := newFakeStages()
		stages.submitFailed = true
		loop := newFrameLoop(stages, maxFramesInFlight)

		err := loop.drawFrame()
		require.ErrorContains(t, err, "queue submit")
		require.NotContains(t, stages.calls, "present 0 image 0")
	})

	t.Run("recreate", func(t *testing.T) {
		stages := newFakeStages()
		stages.acquire = []vulkan.Result{vulkan.ErrorOutOfDate}
		stages.recreateErr = fmt.Errorf("create swapchain: %w", vulkan.Error(vulkan.ErrorInitializationFailed))
		loop := newFrameLoop(stages, maxFramesInFlight)

		require.ErrorContains(t, loop.drawFrame(), "create swapchain")
	})
}

func TestResultErrorAlwaysReportsFailure(t *testing.T) {
	require.Error(t, resultError("acquire next image", vulkan.ErrorOutOfHostMemory))
	require.ErrorContains(t, resultError("wait for fence 0", vulkan.Timeout), "wait for fence 0")
}

func TestNewFrameLoopRejectsEmptyPool(t *testing.T) {
	require.Panics(t, func() { newFrameLoop(newFakeStages(), 0) })
}
