package relay

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf8Stream decodes UTF-8 that arrives in arbitrary slices. A multi-byte
// sequence split across two reads is held back until it is complete.
type utf8Stream struct {
	t    transform.Transformer
	tail []byte
	dst  []byte
}

func newUTF8Stream() *utf8Stream {
	return &utf8Stream{t: unicode.UTF8.NewDecoder()}
}

// Decode returns the text completed by p. With atEOF set, any held-back
// bytes are flushed as replacement characters.
func (d *utf8Stream) Decode(p []byte, atEOF bool) string {
	src := append(d.tail, p...)
	d.tail = nil

	var out []byte
	for {
		if need := len(src)*3 + 16; len(d.dst) < need {
			d.dst = make([]byte, need)
		}
		nDst, nSrc, err := d.t.Transform(d.dst, src, atEOF)
		out = append(out, d.dst[:nDst]...)
		src = src[nSrc:]

		switch err {
		case transform.ErrShortDst:
			continue
		case transform.ErrShortSrc:
			d.tail = append([]byte(nil), src...)
		}
		return string(out)
	}
}
