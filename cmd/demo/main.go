// Command demo boots a window, a WebGPU device and swapchain, and drives a
// small frame graph every frame: a CPU particle prep phase feeds a host-visible
// buffer, a transfer pass copies it into a device-local transient buffer, a
// render pass that reads it clears the backbuffer, and a present pass hands the
// frame to the swapchain. It exercises the same path real render code would use
// to sit on top of the frame graph.
package main

import (
	"encoding/binary"
	"log"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/oxy-engine/oxygraph/engine/profiler"
	"github.com/oxy-engine/oxygraph/engine/window"
	"github.com/oxy-engine/oxygraph/framegraph"
	"github.com/oxy-engine/oxygraph/gpu"
)

const (
	particleCount  = 4096
	particleStride = 16 // vec2 position + vec2 velocity
)

type particle struct {
	x, y   float32
	vx, vy float32
}

// simulation owns the CPU side of the particle demo: a persistent particle
// array advanced in parallel each frame, and the staging bytes uploaded to the
// GPU. The compute pool manages a bounded set of reusable goroutines for the
// parallel prep phase; workers persist across frames, avoiding per-frame
// goroutine spawn/teardown overhead.
type simulation struct {
	particles []particle
	staging   []byte

	pool    worker.DynamicWorkerPool
	workers int
}

func newSimulation() *simulation {
	s := &simulation{
		particles: make([]particle, particleCount),
		staging:   make([]byte, particleCount*particleStride),
		workers:   max(runtime.NumCPU()-1, 1),
	}
	for i := range s.particles {
		t := float64(i) / particleCount
		s.particles[i] = particle{
			x:  float32(math.Cos(t * 2 * math.Pi)),
			y:  float32(math.Sin(t * 2 * math.Pi)),
			vx: float32(math.Sin(t*17)) * 0.25,
			vy: float32(math.Cos(t*13)) * 0.25,
		}
	}
	s.pool = worker.NewDynamicWorkerPool(s.workers, 64, 1*time.Second)
	return s
}

// step advances every particle by dt and re-encodes the staging bytes, split
// into one chunk per worker. A WaitGroup provides the per-frame barrier since
// the pool's own Wait blocks until workers idle-exit, which is unsuitable for
// frame-rate workloads.
func (s *simulation) step(dt float32) {
	chunk := (particleCount + s.workers - 1) / s.workers

	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < particleCount; start += chunk {
		end := min(start+chunk, particleCount)
		wg.Add(1)
		lo, hi := start, end
		id := taskID
		taskID++
		s.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					p := &s.particles[i]
					p.x += p.vx * dt
					p.y += p.vy * dt
					if p.x > 1 || p.x < -1 {
						p.vx = -p.vx
					}
					if p.y > 1 || p.y < -1 {
						p.vy = -p.vy
					}
					off := i * particleStride
					binary.LittleEndian.PutUint32(s.staging[off:], math.Float32bits(p.x))
					binary.LittleEndian.PutUint32(s.staging[off+4:], math.Float32bits(p.y))
					binary.LittleEndian.PutUint32(s.staging[off+8:], math.Float32bits(p.vx))
					binary.LittleEndian.PutUint32(s.staging[off+12:], math.Float32bits(p.vy))
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
}

func main() {
	win := window.NewWindow(
		window.WithTitle("oxygraph demo"),
		window.WithWidth(1280),
		window.WithHeight(720),
	)

	device, err := gpu.NewDevice(gpu.Options{})
	if err != nil {
		log.Fatalf("demo: creating device: %v", err)
	}

	surface := device.Instance().CreateSurface(win.SurfaceDescriptor())
	swapchain, err := gpu.NewSwapchain("backbuffer", device, surface, win.Width(), win.Height())
	if err != nil {
		log.Fatalf("demo: creating swapchain: %v", err)
	}

	// The particle buffer persists across frames: the graph imports it each
	// frame rather than owning it, so the demo creates and (implicitly, at
	// process exit) destroys it outside the graph.
	particleInfo := framegraph.BufferCreateInfo{
		Size:   particleCount * particleStride,
		Usage:  framegraph.BufferUsageSRV | framegraph.BufferUsageTransferSource,
		Memory: framegraph.MemoryTypeHostVisible,
		Name:   "particles",
	}
	particleBuffer, err := device.CreateBuffer(particleInfo)
	if err != nil {
		log.Fatalf("demo: creating particle buffer: %v", err)
	}

	sim := newSimulation()
	g := framegraph.New(device)
	prof := profiler.NewProfiler()

	last := time.Now()
	win.SetUpdateCallback(func() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		last = now

		sim.step(dt)
		if err := device.UpdateBuffer(particleBuffer, []framegraph.BufferUpdate{{Data: sim.staging}}); err != nil {
			log.Printf("demo: uploading particles: %v", err)
			return
		}

		if err := renderFrame(g, device, swapchain, particleInfo, particleBuffer, win.Width(), win.Height()); err != nil {
			log.Printf("demo: frame failed: %v", err)
		}
		prof.Tick()
	})

	win.ProcessMessages()
}

// renderFrame acquires the current backbuffer and builds the frame's graph:
// copy the freshly uploaded particle data into a device-local transient
// buffer, clear the backbuffer in a render pass that declares a read of that
// buffer, and present.
func renderFrame(
	g *framegraph.FrameGraph,
	device *gpu.Device,
	sc *gpu.Swapchain,
	particleInfo framegraph.BufferCreateInfo,
	particleBuffer framegraph.BufferView,
	width, height int,
) error {
	backbuffer, err := sc.AcquireFrame()
	if err != nil {
		return err
	}

	present := g.ImportTexture("backbuffer", framegraph.TextureCreateInfo{
		Name:   "backbuffer",
		Format: sc.Format(),
		Kind: framegraph.TextureKind{
			Dimension:   framegraph.TextureDimension2D,
			Width:       uint32(width),
			Height:      uint32(height),
			SampleCount: framegraph.SampleCount1,
		},
		Usage: framegraph.TextureUsageColorAttachment | framegraph.TextureUsagePresent,
	}, backbuffer)

	staged := g.ImportBuffer("particles", particleInfo, particleBuffer)

	var particles framegraph.BufferHandle
	g.AddPass(framegraph.QueueTransfer, "particle-upload", func(b *framegraph.Builder) {
		b.ReadBuffer(staged, framegraph.UsageTransfer)
		particles = b.CreateBuffer("particles-local", framegraph.BufferCreateInfo{
			Size:  particleCount * particleStride,
			Usage: framegraph.BufferUsageSRV | framegraph.BufferUsageTransferDestination,
		})
		b.WriteBuffer(particles, framegraph.UsageTransfer)
	}, func(ctx framegraph.DeviceContext, reg *framegraph.Registry, e framegraph.CommandEncoder) {
		e.BufferCopyToBuffer(reg.Buffer(staged), reg.Buffer(particles), []framegraph.BufferCopy{
			{Size: particleCount * particleStride},
		})
	})

	_, err = g.AddRenderPass(framegraph.QueueGraphics, "clear", func(b *framegraph.Builder) framegraph.RenderPass {
		b.ReadBuffer(particles, framegraph.UsageShaderGraphics)
		b.WriteTexture(present, framegraph.UsageColorAttachment)
		return framegraph.RenderPass{
			ColorAttachments: []framegraph.ColorAttachment{
				{
					Ops:        framegraph.AttachmentOpsInit,
					Texture:    framegraph.NewAttachmentTexture(present),
					ClearValue: framegraph.ClearValue{Float: [4]float32{0.02, 0.02, 0.05, 1}},
				},
			},
		}
	}, func(ctx framegraph.DeviceContext, reg *framegraph.Registry, e framegraph.CommandEncoder, rp framegraph.RenderPass) {
		// A full renderer would bind a particle pipeline and draw here; the
		// demo ships no shaders, so the pass only clears via its load op.
		e.SetViewport(framegraph.Viewport{Width: float32(width), Height: float32(height), MaxDepth: 1})
		e.SetScissor(framegraph.ScissorRect{Width: uint32(width), Height: uint32(height)})
	})
	if err != nil {
		return err
	}

	if err := g.AddPresentPass(sc, present); err != nil {
		return err
	}

	if err := g.Compile(); err != nil {
		return err
	}
	if err := g.Execute(device); err != nil {
		return err
	}

	g.Reset()
	return nil
}
