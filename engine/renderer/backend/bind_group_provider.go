package backend

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// minUniformBufferSize is used for buffer bindings whose reflected size is unknown.
const minUniformBufferSize = 16

// bindingKey addresses one binding of one bind group.
type bindingKey struct {
	group, binding uint32
}

// bindGroupSlot is one copy of a bind group's buffers. Each draw of a program within a frame uses its
// own slot, so staged uniform values of earlier draws are not overwritten before submission.
type bindGroupSlot struct {
	buffers   map[uint32]*wgpu.Buffer
	bindGroup *wgpu.BindGroup
}

// bindGroupProvider owns the GPU resources of one bind group of a compiled program: the CPU staging
// copy of every buffer binding, the texture views and samplers bound to it, and the per-draw slots.
//
// Texture views are borrowed from the backend texture cache. Samplers, buffers and bind groups are
// owned and released by the provider.
type bindGroupProvider struct {
	// label is a debug label added for convenience.
	label string
	group uint32

	layout  *wgpu.BindGroupLayout
	entries []wgpu.BindGroupLayoutEntry

	staging      map[uint32][]byte
	textureViews map[uint32]*wgpu.TextureView
	samplers     map[uint32]*wgpu.Sampler

	slots []*bindGroupSlot
	used  int
}

// newBindGroupProvider allocates zeroed staging memory for every buffer entry of the layout.
func newBindGroupProvider(label string, group uint32, layout *wgpu.BindGroupLayout, entries []wgpu.BindGroupLayoutEntry) *bindGroupProvider {
	p := &bindGroupProvider{
		label:        label,
		group:        group,
		layout:       layout,
		entries:      entries,
		staging:      make(map[uint32][]byte),
		textureViews: make(map[uint32]*wgpu.TextureView),
		samplers:     make(map[uint32]*wgpu.Sampler),
	}
	for _, e := range entries {
		if isBufferEntry(e) {
			size := e.Buffer.MinBindingSize
			if size < minUniformBufferSize {
				size = minUniformBufferSize
			}
			p.staging[e.Binding] = make([]byte, roundUp(size, 16))
		}
	}
	return p
}

func isTextureEntry(e wgpu.BindGroupLayoutEntry) bool {
	return e.Texture.SampleType != wgpu.TextureSampleTypeUndefined
}

func isSamplerEntry(e wgpu.BindGroupLayoutEntry) bool {
	return e.Sampler.Type != wgpu.SamplerBindingTypeUndefined
}

func isBufferEntry(e wgpu.BindGroupLayoutEntry) bool {
	return e.Buffer.Type != wgpu.BufferBindingTypeUndefined
}

func roundUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}

// write copies data into the staging memory of a buffer binding. Writes past the end are clipped.
func (p *bindGroupProvider) write(binding uint32, offset uint64, data []byte) {
	buf, ok := p.staging[binding]
	if !ok || offset >= uint64(len(buf)) {
		return
	}
	copy(buf[offset:], data)
}

// setTextureView binds a view and invalidates every slot's bind group.
func (p *bindGroupProvider) setTextureView(binding uint32, view *wgpu.TextureView) {
	if p.textureViews[binding] == view {
		return
	}
	p.textureViews[binding] = view
	p.invalidate()
}

// setSampler takes ownership of s, releasing the sampler it replaces.
func (p *bindGroupProvider) setSampler(binding uint32, s *wgpu.Sampler) {
	if old := p.samplers[binding]; old != nil {
		old.Release()
	}
	p.samplers[binding] = s
	p.invalidate()
}

// replaceTextureView swaps every use of old for view.
func (p *bindGroupProvider) replaceTextureView(old, view *wgpu.TextureView) {
	for binding, tv := range p.textureViews {
		if tv == old {
			p.textureViews[binding] = view
			p.invalidate()
		}
	}
}

func (p *bindGroupProvider) invalidate() {
	for _, s := range p.slots {
		if s.bindGroup != nil {
			s.bindGroup.Release()
			s.bindGroup = nil
		}
	}
}

// resetFrame makes every slot available again. Called at the start of each frame.
func (p *bindGroupProvider) resetFrame() {
	p.used = 0
}

// nextSlot claims the next unused slot for a draw, creating its buffers and bind group on first use,
// and uploads the current staging memory into it.
func (p *bindGroupProvider) nextSlot(device *wgpu.Device, queue *wgpu.Queue) (*wgpu.BindGroup, error) {
	if p.used == len(p.slots) {
		p.slots = append(p.slots, &bindGroupSlot{buffers: make(map[uint32]*wgpu.Buffer)})
	}
	slot := p.slots[p.used]
	p.used++

	for _, e := range p.entries {
		if !isBufferEntry(e) {
			continue
		}
		data := p.staging[e.Binding]
		buf := slot.buffers[e.Binding]
		if buf == nil {
			usage := wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
			if e.Buffer.Type != wgpu.BufferBindingTypeUniform {
				usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
			}
			var err error
			buf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
				Label: p.label + " Buffer",
				Size:  uint64(len(data)),
				Usage: usage,
			})
			if err != nil {
				return nil, err
			}
			slot.buffers[e.Binding] = buf
		}
		queue.WriteBuffer(buf, 0, data)
	}

	if slot.bindGroup == nil {
		bg, err := p.createBindGroup(device, slot)
		if err != nil {
			return nil, err
		}
		slot.bindGroup = bg
	}
	return slot.bindGroup, nil
}

func (p *bindGroupProvider) createBindGroup(device *wgpu.Device, slot *bindGroupSlot) (*wgpu.BindGroup, error) {
	bindGroupEntries := make([]wgpu.BindGroupEntry, len(p.entries))
	for i, entry := range p.entries {
		switch {
		case isTextureEntry(entry):
			tv := p.textureViews[entry.Binding]
			if tv == nil {
				return nil, fmt.Errorf("%s: texture binding %d of group %d has no texture view", p.label, entry.Binding, p.group)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding:     entry.Binding,
				TextureView: tv,
			}
		case isSamplerEntry(entry):
			samp := p.samplers[entry.Binding]
			if samp == nil {
				return nil, fmt.Errorf("%s: sampler binding %d of group %d has no sampler", p.label, entry.Binding, p.group)
			}
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Sampler: samp,
			}
		default:
			bindGroupEntries[i] = wgpu.BindGroupEntry{
				Binding: entry.Binding,
				Buffer:  slot.buffers[entry.Binding],
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		}
	}

	return device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   fmt.Sprintf("%s Bind Group %d", p.label, p.group),
		Layout:  p.layout,
		Entries: bindGroupEntries,
	})
}

// release frees the samplers, buffers and bind groups owned by the provider. Texture views are borrowed
// and left alone. The layout belongs to the program.
func (p *bindGroupProvider) release() {
	for i, s := range p.samplers {
		if s != nil {
			s.Release()
			delete(p.samplers, i)
		}
	}
	for _, slot := range p.slots {
		if slot.bindGroup != nil {
			slot.bindGroup.Release()
		}
		for _, buf := range slot.buffers {
			buf.Release()
		}
	}
	p.slots = nil
	p.used = 0
}
