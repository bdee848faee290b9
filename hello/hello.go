// Package hello is the demonstration handler served by default as test.*.
package hello

// Handler greets callers.
type Handler struct{}

// Hello returns a greeting for name.
func (h *Handler) Hello(name string) string {
	return "Hello " + name
}
