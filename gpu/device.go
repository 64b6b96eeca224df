//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// backendPriority is the order OpenDevice tries registered backends in.
// The noop backend is only used when asked for with WithBackend.
var backendPriority = []gputypes.Backend{
	gputypes.BackendVulkan,
	gputypes.BackendMetal,
	gputypes.BackendDX12,
	gputypes.BackendGL,
}

// DeviceOption configures OpenDevice.
type DeviceOption func(*deviceOptions)

type deviceOptions struct {
	backend  gputypes.Backend
	explicit bool
	limits   gputypes.Limits
}

// WithBackend restricts OpenDevice to one backend. The backend package must
// be registered, for example by importing github.com/gogpu/wgpu/hal/allbackends.
func WithBackend(b gputypes.Backend) DeviceOption {
	return func(o *deviceOptions) {
		o.backend = b
		o.explicit = true
	}
}

// WithDeviceLimits sets the limits requested when opening the device. For
// FromProvider it records the limits the shared device was opened with.
func WithDeviceLimits(l gputypes.Limits) DeviceOption {
	return func(o *deviceOptions) {
		o.limits = l
	}
}

// Device is an opened GPU device and its queue.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	info     gputypes.AdapterInfo
	limits   gputypes.Limits
	external bool // shared device; Close leaves it alive
}

// OpenDevice opens a device on the best available adapter. Discrete and
// integrated GPUs are preferred over anything else the backend exposes.
func OpenDevice(opts ...DeviceOption) (*Device, error) {
	o := deviceOptions{limits: gputypes.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	candidates := backendPriority
	if o.explicit {
		candidates = []gputypes.Backend{o.backend}
	}

	var errs []error
	for _, variant := range candidates {
		backend, ok := hal.GetBackend(variant)
		if !ok {
			continue
		}
		d, err := openBackend(backend, o.limits)
		if err != nil {
			slogger().Debug("gpu: backend unavailable", "backend", variant.String(), "err", err)
			errs = append(errs, fmt.Errorf("%s: %w", variant, err))
			continue
		}
		slogger().Info("gpu: device opened",
			"backend", variant.String(), "adapter", d.info.Name, "type", d.info.DeviceType.String())
		return d, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoGPU
	}
	return nil, fmt.Errorf("%w: %w", ErrNoGPU, errors.Join(errs...))
}

func openBackend(backend hal.Backend, limits gputypes.Limits) (*Device, error) {
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no adapters found")
	}
	selected := selectAdapter(adapters)
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device on %s: %w", selected.Info.Name, err)
	}
	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		info:     selected.Info,
		limits:   limits,
	}, nil
}

// selectAdapter returns the first discrete or integrated adapter, or the
// first adapter when there is neither.
func selectAdapter(adapters []hal.ExposedAdapter) *hal.ExposedAdapter {
	for i := range adapters {
		switch adapters[i].Info.DeviceType {
		case gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU:
			return &adapters[i]
		}
	}
	return &adapters[0]
}

// FromProvider wraps a device owned by a host application, for example a
// gogpu window, so a simulation can share it. The provider must also expose
// HalDevice() any and HalQueue() any returning hal.Device and hal.Queue.
// Close on the returned Device does not destroy the shared device.
//
// The provider does not report limits, so Limits returns
// gputypes.DefaultLimits unless the host's are passed with WithDeviceLimits.
func FromProvider(provider gpucontext.DeviceProvider, opts ...DeviceOption) (*Device, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	if provider == nil {
		return nil, ErrNilDevice
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("gpu: provider %T does not expose HAL types", provider)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	o := deviceOptions{limits: gputypes.DefaultLimits()}
	for _, opt := range opts {
		opt(&o)
	}

	pi := provider.AdapterInfo()
	slogger().Info("gpu: using shared device", "adapter", pi.Name, "type", pi.Type.String())
	return &Device{
		device:   device,
		queue:    queue,
		info:     gputypes.AdapterInfo{Name: pi.Name, DeviceType: deviceType(pi.Type)},
		limits:   o.limits,
		external: true,
	}, nil
}

// HalDevice returns the underlying HAL device.
func (d *Device) HalDevice() hal.Device { return d.device }

// HalQueue returns the underlying HAL queue.
func (d *Device) HalQueue() hal.Queue { return d.queue }

// Info returns the adapter description.
func (d *Device) Info() gputypes.AdapterInfo { return d.info }

// Limits returns the limits the device was opened with. Pass them to
// NewGridState with WithLimits.
func (d *Device) Limits() gputypes.Limits { return d.limits }

// AdapterInfo describes the adapter in gpucontext terms, which tells
// callers whether they run on a software rasterizer.
func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.info.Name, Type: adapterType(d.info.DeviceType)}
}

// IsHardware reports whether the device is a discrete or integrated GPU.
func (d *Device) IsHardware() bool {
	t := d.AdapterInfo().Type
	return t == gpucontext.AdapterTypeDiscrete || t == gpucontext.AdapterTypeIntegrated
}

// Close waits for outstanding work and destroys the device unless it is
// shared. Close is safe to call more than once.
func (d *Device) Close() {
	if d.device == nil {
		return
	}
	if d.external {
		d.device, d.queue = nil, nil
		return
	}
	if err := d.device.WaitIdle(); err != nil {
		slogger().Warn("gpu: wait idle before close", "err", err)
	}
	d.device.Destroy()
	d.device, d.queue = nil, nil
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}

func deviceType(t gpucontext.AdapterType) gputypes.DeviceType {
	switch t {
	case gpucontext.AdapterTypeDiscrete:
		return gputypes.DeviceTypeDiscreteGPU
	case gpucontext.AdapterTypeIntegrated:
		return gputypes.DeviceTypeIntegratedGPU
	case gpucontext.AdapterTypeSoftware:
		return gputypes.DeviceTypeCPU
	default:
		return gputypes.DeviceTypeOther
	}
}
