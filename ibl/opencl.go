package ibl

import (
	_ "embed"
	"fmt"
	"unsafe"

	"pbrview/libio"
	"pbrview/logger"

	"github.com/Qendolin/go-opencl/cl"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

//go:embed brdf.cl
var openclBrdfSrc string

type clCore struct {
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
}

func (core *clCore) Release() {
	core.program.Release()
	core.queue.Release()
	core.context.Release()
}

type DeviceType = cl.DeviceType

const (
	DeviceTypeCPU         = DeviceType(cl.DeviceTypeCPU)
	DeviceTypeGPU         = DeviceType(cl.DeviceTypeGPU)
	DeviceTypeAccelerator = DeviceType(cl.DeviceTypeAccelerator)
)

// rankDevices orders devices of the preferred type first, then by compute power, strongest first.
func rankDevices(devices []*cl.Device, preferred DeviceType) {
	slices.SortFunc(devices, func(a, b *cl.Device) int {
		if a.Type() == preferred && b.Type() != preferred {
			return -1
		}
		if a.Type() != preferred && b.Type() == preferred {
			return 1
		}
		aPower := a.MaxComputeUnits() * a.MaxClockFrequency()
		bPower := b.MaxComputeUnits() * b.MaxClockFrequency()
		return bPower - aPower
	})
}

func newClCore(preferredDevice DeviceType, programs ...string) (core *clCore, err error) {
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, err
	}

	var devices []*cl.Device
	for _, p := range platforms {
		devs, err := p.GetDevices(cl.DeviceTypeAll)
		if err != nil {
			continue
		}
		devices = append(devices, devs...)
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no opencl devices found")
	}

	rankDevices(devices, preferredDevice)
	device := devices[0]
	logger.Log.Debug("Selected OpenCL device", zap.String("name", device.Name()), zap.Int("compute_units", device.MaxComputeUnits()))

	ctx, err := cl.CreateContext([]*cl.Device{device})
	if err != nil {
		return nil, err
	}

	queue, err := ctx.CreateCommandQueue(device, 0)
	if err != nil {
		ctx.Release()
		return nil, err
	}

	prog, err := ctx.CreateProgramWithSource(programs)
	if err != nil {
		queue.Release()
		ctx.Release()
		return nil, err
	}
	err = prog.BuildProgram(nil, "")
	if err != nil {
		prog.Release()
		queue.Release()
		ctx.Release()
		return nil, err
	}

	return &clCore{
		context: ctx,
		queue:   queue,
		program: prog,
	}, nil
}

func roundUpKernelSize(groupSize, globalSize int) int {
	r := globalSize % groupSize
	if r == 0 {
		return globalSize
	}
	return globalSize + groupSize - r
}

// GenerateClBrdfLut integrates the split-sum lookup table on an OpenCL device.
// The layout matches IntegrateBrdfSw.
func GenerateClBrdfLut(preferredDevice DeviceType, size, samples int) (*libio.FloatImage, error) {
	if size <= 0 || samples <= 0 {
		return nil, fmt.Errorf("invalid brdf lut parameters: size %d, samples %d", size, samples)
	}

	core, err := newClCore(preferredDevice, openclBrdfSrc)
	if err != nil {
		return nil, err
	}
	defer core.Release()

	kernel, err := core.program.CreateKernel("integrate_brdf")
	if err != nil {
		return nil, err
	}
	defer kernel.Release()

	sequence := generateHammersleySequence(samples)
	sampleBuf, err := core.context.CreateBuffer(cl.MemReadOnly|cl.MemCopyHostPtr, len(sequence)*int(unsafe.Sizeof(sequence[0])), unsafe.Pointer(&sequence[0]))
	if err != nil {
		return nil, err
	}
	defer sampleBuf.Release()

	dstImage, err := core.context.CreateImage(cl.MemWriteOnly, cl.ImageFormat{
		ChannelOrder:    cl.ChannelOrderRG,
		ChannelDataType: cl.ChannelDataTypeFloat,
	}, cl.ImageDescription{
		Type:   cl.MemObjectTypeImage2D,
		Width:  size,
		Height: size,
	}, size*size*2*4, nil)
	if err != nil {
		return nil, err
	}
	defer dstImage.Release()

	if err = kernel.SetArgBuffer(0, dstImage); err != nil {
		return nil, err
	}
	if err = kernel.SetArgInt32(1, int32(size)); err != nil {
		return nil, err
	}
	if err = kernel.SetArgFloat32(2, 1.0/float32(size)); err != nil {
		return nil, err
	}
	if err = kernel.SetArgBuffer(3, sampleBuf); err != nil {
		return nil, err
	}
	if err = kernel.SetArgInt32(4, int32(len(sequence))); err != nil {
		return nil, err
	}

	localWorkSize := []int{16, 16, 1}
	globalWorkSize := []int{roundUpKernelSize(localWorkSize[0], size), roundUpKernelSize(localWorkSize[1], size), 1}

	_, err = core.queue.EnqueueNDRangeKernel(kernel, []int{0, 0, 0}, globalWorkSize, localWorkSize, nil)
	if err != nil {
		return nil, err
	}

	result := make([]float32, size*size*2)
	_, err = core.queue.EnqueueReadImage(dstImage, true, [3]int{}, [3]int{size, size, 1}, 0, 0, unsafe.Pointer(&result[0]), nil)
	if err != nil {
		return nil, err
	}

	return libio.NewFloatImage(result, 2, size, size), nil
}
