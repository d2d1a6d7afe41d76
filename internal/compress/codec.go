package compress

import (
	"bytes"
	"compress/gzip"

	"github.com/andybalholm/brotli"
)

// Codec compresses payloads before they leave the process, typically on
// their way into a shared cache. Decode must accept anything Encode
// produced.
type Codec interface {
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

// Nop passes payloads through untouched. Useful when the cache lives in
// process or when payloads are too small to be worth compressing.
type Nop struct{}

func NewNop() Nop {
	return Nop{}
}

func (Nop) Encode(data []byte) ([]byte, error) {
	return data, nil
}

func (Nop) Decode(data []byte) ([]byte, error) {
	return data, nil
}

// GZip encodes payloads with the stdlib gzip format.
type GZip struct{}

func NewGZip() GZip {
	return GZip{}
}

func (GZip) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (GZip) Decode(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Brotli encodes payloads with the brotli format. Markdown bodies compress
// well under it, so it is the default codec for the shared published cache.
type Brotli struct {
	level int
}

func NewBrotli() Brotli {
	return Brotli{level: brotli.DefaultCompression}
}

// NewBrotliLevel selects an explicit quality level between
// brotli.BestSpeed and brotli.BestCompression.
func NewBrotliLevel(level int) Brotli {
	if level < brotli.BestSpeed {
		level = brotli.BestSpeed
	}
	if level > brotli.BestCompression {
		level = brotli.BestCompression
	}
	return Brotli{level: level}
}

func (b Brotli) Encode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, b.level)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b Brotli) Decode(data []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(data))

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var (
	_ Codec = Nop{}
	_ Codec = GZip{}
	_ Codec = Brotli{}
)
