package memhost

import (
	"io"

	"github.com/valyala/quicktemplate"
)

// Markup renders n and its subtree as HTML-like markup with attributes and
// style entries in sorted order.
func Markup(n *Node) string {
	bb := quicktemplate.AcquireByteBuffer()
	defer quicktemplate.ReleaseByteBuffer(bb)
	WriteMarkup(bb, n)
	return string(bb.B)
}

// InnerMarkup renders the children of n.
func InnerMarkup(n *Node) string {
	bb := quicktemplate.AcquireByteBuffer()
	defer quicktemplate.ReleaseByteBuffer(bb)

	qw := quicktemplate.AcquireWriter(bb)
	defer quicktemplate.ReleaseWriter(qw)
	for _, c := range n.Children {
		streamNode(qw, c)
	}
	return string(bb.B)
}

func WriteMarkup(w io.Writer, n *Node) {
	qw := quicktemplate.AcquireWriter(w)
	defer quicktemplate.ReleaseWriter(qw)
	streamNode(qw, n)
}

func streamNode(qw *quicktemplate.Writer, n *Node) {
	if n.Kind == TextNode {
		qw.E().S(n.Text)
		return
	}

	qw.N().S("<")
	qw.N().S(n.Tag)
	for _, k := range sortedKeys(n.Attrs) {
		qw.N().S(" ")
		qw.N().S(k)
		qw.N().S(`="`)
		qw.E().S(n.Attrs[k])
		qw.N().S(`"`)
	}
	if len(n.Style) > 0 {
		qw.N().S(` style="`)
		for _, k := range sortedKeys(n.Style) {
			qw.E().S(k)
			qw.N().S(":")
			qw.E().S(n.Style[k])
			qw.N().S(";")
		}
		qw.N().S(`"`)
	}
	qw.N().S(">")

	for _, c := range n.Children {
		streamNode(qw, c)
	}

	qw.N().S("</")
	qw.N().S(n.Tag)
	qw.N().S(">")
}
