package system

import (
	"image"
	"sync"
)

// FramePool переиспользует выходные RGBA-кадры фиксированного размера,
// чтобы снизить нагрузку на GC во время экспорта.
type FramePool struct {
	pool sync.Pool
}

// NewFramePool creates a pool producing frames of the given size.
func NewFramePool(width, height int) *FramePool {
	return &FramePool{
		pool: sync.Pool{
			New: func() interface{} {
				return image.NewRGBA(image.Rect(0, 0, width, height))
			},
		},
	}
}

// Get returns a frame buffer; contents are undefined.
func (p *FramePool) Get() *image.RGBA {
	return p.pool.Get().(*image.RGBA)
}

// Put returns a frame buffer for reuse.
func (p *FramePool) Put(frame *image.RGBA) {
	if frame == nil {
		return
	}
	p.pool.Put(frame)
}
