package memhost

import (
	"io"

	"github.com/valyala/quicktemplate"
)

// StreamMarkup writes n as markup: text is escaped, elements render as
// <tag attr="v">children</tag> and containers render only their children.
// No whitespace is added between nodes.
func StreamMarkup(qw *quicktemplate.Writer, n *Node) {
	switch n.Kind {
	case TextNode:
		qw.E().S(n.Text)
	case ElementNode:
		qw.N().S("<")
		qw.E().S(n.Tag)
		for _, a := range n.attrs() {
			qw.N().S(" ")
			qw.E().S(a.Name)
			qw.N().S(`="`)
			qw.E().S(a.Value)
			qw.N().S(`"`)
		}
		qw.N().S(">")
		for _, c := range n.Children {
			StreamMarkup(qw, c)
		}
		qw.N().S("</")
		qw.E().S(n.Tag)
		qw.N().S(">")
	default:
		for _, c := range n.Children {
			StreamMarkup(qw, c)
		}
	}
}

func WriteMarkup(w io.Writer, n *Node) {
	qw := quicktemplate.AcquireWriter(w)
	StreamMarkup(qw, n)
	quicktemplate.ReleaseWriter(qw)
}

func Markup(n *Node) string {
	bb := quicktemplate.AcquireByteBuffer()
	WriteMarkup(bb, n)
	s := string(bb.B)
	quicktemplate.ReleaseByteBuffer(bb)
	return s
}
