package overlay

import "testing"

type hostContext struct {
	StaticContext
	pass string
}

func (h *hostContext) RenderPass() string { return h.pass }

func TestBindTexture(t *testing.T) {
	base := &StaticContext{ModelView: Translate4(3, 4, 0), Texture: fakeTexture{1, 1}}
	tex := fakeTexture{32, 16}

	dc := BindTexture(base, tex)
	if dc.BoundTexture() != Texture(tex) {
		t.Errorf("BoundTexture() = %v, want %v", dc.BoundTexture(), tex)
	}
	if dc.ModelViewMatrix() != base.ModelView {
		t.Error("ModelViewMatrix() not delegated to the host context")
	}

	if unbound := BindTexture(dc, nil); unbound.BoundTexture() != nil {
		t.Errorf("BindTexture(nil).BoundTexture() = %v, want nil", unbound.BoundTexture())
	}
}

func TestUnwrap(t *testing.T) {
	host := &hostContext{pass: "main"}
	dc := BindTexture(BindTexture(host, fakeTexture{1, 1}), fakeTexture{2, 2})

	got, ok := Unwrap[interface{ RenderPass() string }](dc)
	if !ok {
		t.Fatal("Unwrap did not find the host context")
	}
	if got.RenderPass() != "main" {
		t.Errorf("RenderPass() = %q, want %q", got.RenderPass(), "main")
	}

	if _, ok := Unwrap[*hostContext](BindTexture(&StaticContext{}, nil)); ok {
		t.Error("Unwrap matched a context of the wrong type")
	}
	if _, ok := Unwrap[*hostContext](nil); ok {
		t.Error("Unwrap(nil) reported a match")
	}
}
