package xmlrpc

import (
	"context"
	"errors"
	"time"
)

type FruitService struct{}

func (f *FruitService) Apple() string {
	return "Apple"
}

func (f *FruitService) Banana() error {
	return nil
}

func (f *FruitService) Cherry() (string, error) {
	return "Cherry", nil
}

func (f *FruitService) Durian() error {
	return errors.New("durian failure")
}

func (f *FruitService) Basket(fruits []string, counts map[string]int) int {
	total := 0
	for _, name := range fruits {
		total += counts[name]
	}
	return total
}

func (f *FruitService) Weight() int64 {
	return 1 << 40
}

type Point struct {
	X int `xmlrpc:"x"`
	Y int `xmlrpc:"y"`
}

type Calculator struct{}

func (c *Calculator) Add(a int, b int) int {
	return a + b
}

func (c *Calculator) Divide(a float64, b float64) (float64, error) {
	if b == 0 {
		return 0, NewFault(4, "division by zero")
	}
	return a / b, nil
}

func (c *Calculator) Mirror(p Point) Point {
	return Point{X: p.Y, Y: p.X}
}

func (c *Calculator) Sleep(ctx context.Context, ms int) (bool, error) {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return true, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Calculator) Explode() string {
	panic("boom")
}

func (c *Calculator) Sum(nums ...int) int {
	// Variadic methods are not exposed.
	return 0
}

type unexportedService struct{}

func (u *unexportedService) Hidden() string {
	return "hidden"
}
