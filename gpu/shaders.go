//go:build !nogpu

package gpu

import (
	_ "embed"
	"encoding/binary"

	"github.com/gogpu/life/internal/cache"
	"github.com/gogpu/naga"
)

// KernelEntryPoint is the compute entry point of the simulation kernel.
const KernelEntryPoint = "computeMain"

//go:embed shaders/life.wgsl
var kernelSource string

// KernelSource returns the WGSL source of the simulation kernel.
func KernelSource() string { return kernelSource }

// kernels maps WGSL source to SPIR-V words. Every engine on every device
// shares the same few kernels, so a handful of entries is plenty.
var kernels = cache.New[string, []uint32](8)

// compileKernel validates WGSL source and lowers it to SPIR-V words.
// Successful compilations are cached; the returned slice must not be modified.
func compileKernel(source string) ([]uint32, error) {
	return kernels.GetOrCompute(source, func() ([]uint32, error) {
		return compileSPIRV(source)
	})
}

func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, &CompilationError{Stage: "wgsl", Err: err}
	}
	if len(spirvBytes) == 0 || len(spirvBytes)%4 != 0 {
		return nil, &CompilationError{Stage: "spirv", Err: errInvalidSPIRV}
	}

	// SPIR-V is a stream of little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return words, nil
}
