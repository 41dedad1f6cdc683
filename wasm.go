package pixelmorph

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Native kernel errors.
var (
	ErrKernelUnavailable = errors.New("pixelmorph: native kernel unavailable")
	ErrKernelFault       = errors.New("pixelmorph: native kernel fault")
)

// Exports a kernel module must provide, besides its linear memory.
const (
	kernelEntry  = "compute_mapping"
	kernelMalloc = "malloc"
	kernelFree   = "free"
)

// WasmKernel runs a precompiled WebAssembly build of the matcher. The module
// exports compute_mapping(src, tgt, width, height, out), malloc, free and its
// memory. Calls are serialized; a module instance is not safe for concurrent
// use.
type WasmKernel struct {
	mu      sync.Mutex
	runtime wazero.Runtime
	module  api.Module
	compute api.Function
	malloc  api.Function
	free    api.Function
}

// LoadWasmKernelFile reads and instantiates the kernel at path.
func LoadWasmKernelFile(ctx context.Context, path string) (*WasmKernel, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrKernelUnavailable, path, err)
	}
	return LoadWasmKernel(ctx, wasm)
}

// LoadWasmKernel compiles and instantiates a kernel module. WASI is provided
// for toolchains that import it; a reactor's _initialize export is run if
// present.
func LoadWasmKernel(ctx context.Context, wasm []byte) (*WasmKernel, error) {
	r := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: wasi: %v", ErrKernelUnavailable, err)
	}
	compiled, err := r.CompileModule(ctx, wasm)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: compile: %v", ErrKernelUnavailable, err)
	}
	cfg := wazero.NewModuleConfig().WithName("kernel").WithStartFunctions("_initialize")
	mod, err := r.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: instantiate: %v", ErrKernelUnavailable, err)
	}

	k := &WasmKernel{
		runtime: r,
		module:  mod,
		compute: mod.ExportedFunction(kernelEntry),
		malloc:  mod.ExportedFunction(kernelMalloc),
		free:    mod.ExportedFunction(kernelFree),
	}
	if k.compute == nil || k.malloc == nil || k.free == nil || mod.Memory() == nil {
		_ = r.Close(ctx)
		return nil, fmt.Errorf("%w: module must export %s, %s, %s and memory",
			ErrKernelUnavailable, kernelEntry, kernelMalloc, kernelFree)
	}
	return k, nil
}

// Kind returns EngineNative.
func (k *WasmKernel) Kind() EngineKind {
	return EngineNative
}

// Compute copies both buffers into scoped allocations in the module's linear
// memory, runs compute_mapping and reads back width*height little-endian
// int32 values. All three allocations are freed on every return path.
func (k *WasmKernel) Compute(ctx context.Context, source, target []byte, width, height int) (p Permutation, err error) {
	if err := checkBuffers(source, target, width, height); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.module == nil {
		return nil, ErrKernelUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			p, err = nil, fmt.Errorf("%w: %v", ErrKernelFault, r)
		}
	}()

	n := width * height
	srcPtr, err := k.alloc(ctx, len(source))
	if err != nil {
		return nil, err
	}
	defer k.release(ctx, srcPtr)
	tgtPtr, err := k.alloc(ctx, len(target))
	if err != nil {
		return nil, err
	}
	defer k.release(ctx, tgtPtr)
	outPtr, err := k.alloc(ctx, n*4)
	if err != nil {
		return nil, err
	}
	defer k.release(ctx, outPtr)

	mem := k.module.Memory()
	if !mem.Write(srcPtr, source) || !mem.Write(tgtPtr, target) {
		return nil, fmt.Errorf("%w: input outside linear memory", ErrKernelFault)
	}
	_, err = k.compute.Call(ctx,
		api.EncodeU32(srcPtr), api.EncodeU32(tgtPtr),
		api.EncodeI32(int32(width)), api.EncodeI32(int32(height)),
		api.EncodeU32(outPtr))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKernelFault, kernelEntry, err)
	}

	raw, ok := mem.Read(outPtr, uint32(n*4))
	if !ok {
		return nil, fmt.Errorf("%w: output outside linear memory", ErrKernelFault)
	}
	p = make(Permutation, n)
	for i := range p {
		p[i] = int32(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return p, nil
}

// Close releases the runtime and the module instance.
func (k *WasmKernel) Close(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.module == nil {
		return nil
	}
	k.module = nil
	return k.runtime.Close(ctx)
}

func (k *WasmKernel) alloc(ctx context.Context, size int) (uint32, error) {
	res, err := k.malloc.Call(ctx, api.EncodeI32(int32(size)))
	if err != nil {
		return 0, fmt.Errorf("%w: %s(%d): %v", ErrKernelFault, kernelMalloc, size, err)
	}
	if len(res) == 0 || api.DecodeU32(res[0]) == 0 {
		return 0, fmt.Errorf("%w: %s(%d) returned null", ErrKernelFault, kernelMalloc, size)
	}
	return api.DecodeU32(res[0]), nil
}

// release frees ptr even if ctx was cancelled mid-call.
func (k *WasmKernel) release(ctx context.Context, ptr uint32) {
	if _, err := k.free.Call(context.WithoutCancel(ctx), api.EncodeU32(ptr)); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] kernel %s(%d): %v\n", kernelFree, ptr, err)
	}
}
