package core

import "math/rand/v2"

// Picker 随机挑选链接,不会连续两次挑到同一列
type Picker struct {
	intn func(n int) int
}

// NewPicker 创建挑选器
func NewPicker() *Picker {
	return &Picker{intn: rand.IntN}
}

// Pick 在[0, size)内均匀抽取,抽到avoid时重抽
// size<=1 时返回0
func (p *Picker) Pick(size, avoid int) int {
	if size <= 1 {
		return 0
	}
	for {
		idx := p.intn(size)
		if idx != avoid {
			return idx
		}
	}
}
