package studio

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"lumidecor/internal/catalog"
)

const (
	furnitureImage = "https://images.unsplash.com/photo-1555041469-a586c61ea9bc?auto=format&fit=crop&q=80&w=200"
	lightingImage  = "https://images.unsplash.com/photo-1507473885765-e6ed057f782c?auto=format&fit=crop&q=80&w=200"
)

// MockProducts places two placeholder products on every interior design.
type MockProducts struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewMockProducts seeds from the clock when src is nil.
func NewMockProducts(src rand.Source) *MockProducts {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &MockProducts{rnd: rand.New(src)}
}

func (m *MockProducts) Products(_ context.Context, style catalog.Style, _ catalog.Mode) ([]Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return []Product{
		{
			ID:    "p1",
			X:     35 + m.rnd.Float64()*30,
			Y:     50 + m.rnd.Float64()*20,
			Name:  style.Name + " 设计家具/饰件",
			Price: "¥ 5,999",
			Image: furnitureImage,
			Link:  "#",
		},
		{
			ID:    "p2",
			X:     15 + m.rnd.Float64()*20,
			Y:     20 + m.rnd.Float64()*15,
			Name:  "现代艺术照明",
			Price: "¥ 1,800",
			Image: lightingImage,
			Link:  "#",
		},
	}, nil
}
