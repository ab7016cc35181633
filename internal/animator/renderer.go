// SPDX-License-Identifier: MIT
package animator

import "lipsync/internal/viseme"

// Renderer is told about every label change. It is called on the
// scheduler's thread and must not block.
type Renderer interface {
	RenderViseme(label viseme.Label)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(label viseme.Label)

func (f RendererFunc) RenderViseme(label viseme.Label) { f(label) }

type fanout []Renderer

func (f fanout) RenderViseme(label viseme.Label) {
	for _, r := range f {
		r.RenderViseme(label)
	}
}

// Fanout combines renderers into one, called in argument order. Nil
// entries are dropped.
func Fanout(renderers ...Renderer) Renderer {
	f := make(fanout, 0, len(renderers))
	for _, r := range renderers {
		if r != nil {
			f = append(f, r)
		}
	}
	if len(f) == 1 {
		return f[0]
	}
	return f
}
