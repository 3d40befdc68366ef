package gameserver

import "sync"

// FramePool переиспользует буферы кодирования кадров между сессиями.
// Кадр живёт недолго: writePump возвращает буфер сразу после записи в
// сокет, так что небольшой пул обслуживает весь сервер.
type FramePool struct {
	pool      sync.Pool
	maxRetain int
}

// NewFramePool создаёт пул. defaultCap — стартовая ёмкость новых буферов,
// maxRetain — порог, выше которого разросшийся буфер не возвращается в
// пул, чтобы редкий крупный кадр не удерживал память.
func NewFramePool(defaultCap, maxRetain int) *FramePool {
	p := &FramePool{maxRetain: maxRetain}
	p.pool.New = func() any {
		return make([]byte, 0, defaultCap)
	}
	return p
}

// Get возвращает пустой срез с запасом ёмкости под один кадр.
// Кадр дописывается append'ом, поэтому длина всегда ноль.
func (p *FramePool) Get() []byte {
	return p.pool.Get().([]byte)[:0]
}

// Put возвращает буфер в пул для переиспользования.
func (p *FramePool) Put(b []byte) {
	if b == nil || cap(b) > p.maxRetain {
		return
	}
	p.pool.Put(b[:0])
}
