package main

//go:generate glslc shaders/shader.vert -o shaders/vert.spv
//go:generate glslc shaders/shader.frag -o shaders/frag.spv

import (
	"fmt"
	"os"
	"unsafe"
)

// loadShaderCode reads a precompiled SPIR-V blob. The contents are opaque;
// only the size is checked because the driver takes the code as 32-bit words.
func loadShaderCode(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shader %s: %w", path, err)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("shader %s: size %d is not a positive multiple of 4", path, len(data))
	}
	words := make([]uint32, len(data)/4)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(data)), data)
	return words, nil
}
