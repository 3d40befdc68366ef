package gameserver

import "testing"

// BenchmarkFramePool_GetPut — горячий путь: буфер на каждый исходящий кадр
func BenchmarkFramePool_GetPut(b *testing.B) {
	b.ReportAllocs()

	pool := NewFramePool(512, 8<<10)

	b.ResetTimer()
	for range b.N {
		buf := pool.Get()
		buf = append(buf, "{\"cmd\":\"MOVE_RESULT\",\"payload\":{}}\n"...)
		pool.Put(buf)
	}
}

// BenchmarkFramePool_vs_MakeSlice — пул против make() на каждый кадр
func BenchmarkFramePool_vs_MakeSlice(b *testing.B) {
	frame := []byte("{\"cmd\":\"TURN_CHANGE\",\"payload\":{\"your_turn\":true}}\n")

	b.Run("FramePool", func(b *testing.B) {
		b.ReportAllocs()
		pool := NewFramePool(512, 8<<10)
		b.ResetTimer()
		for range b.N {
			buf := pool.Get()
			buf = append(buf, frame...)
			pool.Put(buf)
		}
	})

	b.Run("MakeSlice", func(b *testing.B) {
		b.ReportAllocs()
		b.ResetTimer()
		for range b.N {
			buf := make([]byte, 0, 512)
			buf = append(buf, frame...)
			_ = buf
		}
	})
}

// BenchmarkFramePool_Concurrent — пул делят writePump'ы всех сессий
func BenchmarkFramePool_Concurrent(b *testing.B) {
	b.ReportAllocs()

	pool := NewFramePool(512, 8<<10)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			buf := pool.Get()
			buf = append(buf, "{\"cmd\":\"PONG\",\"payload\":{\"timestamp\":0}}\n"...)
			pool.Put(buf)
		}
	})
}

// BenchmarkFramePool_OversizeDrop — разросшийся буфер выбрасывается,
// пул продолжает выдавать буферы стартовой ёмкости
func BenchmarkFramePool_OversizeDrop(b *testing.B) {
	b.ReportAllocs()

	pool := NewFramePool(512, 1<<10)
	big := make([]byte, 0, 64<<10)

	b.ResetTimer()
	for range b.N {
		pool.Put(big)
		buf := pool.Get()
		pool.Put(buf)
	}
}
