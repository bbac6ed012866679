package host

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestNewDocument(t *testing.T) {
	type args struct {
		index []byte
	}
	tests := []struct {
		name       string
		args       args
		wantRender string
		wantErr    bool
	}{
		{
			name:       "default",
			wantRender: "<!DOCTYPE html><html><head></head><body></body></html>",
		},
		{
			name: "index",
			args: args{
				index: []byte(`<!DOCTYPE html><html><head><title>test</title></head><body><div id="root"></div></body></html>`),
			},
			wantRender: `<!DOCTYPE html><html><head><title>test</title></head><body><div id="root"></div></body></html>`,
		},
		{
			name: "fragment",
			args: args{
				index: []byte(`<p>test</p>`),
			},
			wantRender: `<html><head></head><body><p>test</p></body></html>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewDocument(tt.args.index)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewDocument() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			var buf bytes.Buffer
			if err := got.Render(&buf); err != nil {
				t.Errorf("Document.Render() error = %v", err)
				return
			}
			if buf.String() != tt.wantRender {
				t.Errorf("Document.Render() = %v, want %v", buf.String(), tt.wantRender)
			}
		})
	}
}

func TestDocumentAppendScript(t *testing.T) {
	d, err := NewDocument(nil)
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}

	el := d.CreateElement("SCRIPT")
	el.SetSrc("1.js")
	el.SetAttribute("type", "text/javascript")
	el.SetSrc("2.js")

	if err := d.Head().AppendChild(el); err != nil {
		t.Fatalf("Element.AppendChild() error = %v", err)
	}

	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		t.Fatalf("Document.Render() error = %v", err)
	}
	want := `<!DOCTYPE html><html><head><script src="2.js" type="text/javascript"></script></head><body></body></html>`
	if buf.String() != want {
		t.Errorf("Document.Render() = %v, want %v", buf.String(), want)
	}

	if got := el.TagName(); got != "script" {
		t.Errorf("Element.TagName() = %v, want %v", got, "script")
	}
	if got := el.State(); got != StateCreated {
		t.Errorf("Element.State() = %v, want %v", got, StateCreated)
	}
	if got := d.Scripts(); len(got) != 1 || got[0] != el {
		t.Errorf("Document.Scripts() = %v, want [%v]", got, el)
	}
	if got, ok := d.GetElementByID(el.ID()); !ok || got != el {
		t.Errorf("Document.GetElementByID() = %v, %v", got, ok)
	}
	if got := d.Environment(); got != nil {
		t.Errorf("Document.Environment() = %v, want nil", got)
	}
}

func TestElementAppendChildErrors(t *testing.T) {
	d1, _ := NewDocument(nil)
	d2, _ := NewDocument(nil)

	el := d1.CreateElement("script")
	if err := d1.Body().AppendChild(el); err != nil {
		t.Fatalf("Element.AppendChild() error = %v", err)
	}

	tests := []struct {
		name    string
		parent  *Element
		child   *Element
		wantErr error
	}{
		{
			name:    "already attached",
			parent:  d1.Head(),
			child:   el,
			wantErr: ErrAlreadyAttached,
		},
		{
			name:    "another document",
			parent:  d2.Head(),
			child:   d1.CreateElement("script"),
			wantErr: ErrWrongDocument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.parent.AppendChild(tt.child); !errors.Is(err, tt.wantErr) {
				t.Errorf("Element.AppendChild() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocumentScriptsOrder(t *testing.T) {
	d, _ := NewDocument([]byte(`<html><head><script src="index.js"></script></head><body></body></html>`))

	var srcs []string
	for _, src := range []string{"1.js", "2.js", "3.js"} {
		el := d.CreateElement("script")
		el.SetSrc(src)
		if err := d.Head().AppendChild(el); err != nil {
			t.Fatalf("Element.AppendChild() error = %v", err)
		}
	}
	for _, el := range d.Scripts() {
		srcs = append(srcs, el.Src())
	}

	if got := strings.Join(srcs, ","); got != "1.js,2.js,3.js" {
		t.Errorf("Document.Scripts() = %v, want %v", got, "1.js,2.js,3.js")
	}
}

func TestElementStateString(t *testing.T) {
	tests := []struct {
		state ElementState
		want  string
	}{
		{StateCreated, "created"},
		{StatePending, "pending"},
		{StateLoaded, "loaded"},
		{StateFailed, "failed"},
		{ElementState(42), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.state.String(); got != tt.want {
				t.Errorf("ElementState.String() = %v, want %v", got, tt.want)
			}
		})
	}
}
