package object

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// Envelope wraps payload as "type len\0payload". The length is the decimal
// byte length of the uncompressed payload.
func Envelope(objType ObjectType, payload []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(payload))
	out := make([]byte, 0, len(header)+len(payload))
	out = append(out, header...)
	return append(out, payload...)
}

// Encode builds the envelope for payload and returns its hash together with
// the zlib-compressed envelope ready for storage.
func Encode(objType ObjectType, payload []byte) (HashResult, error) {
	raw := Envelope(objType, payload)
	compressed, err := Compress(raw)
	if err != nil {
		return HashResult{}, fmt.Errorf("encode %s: %w", objType, err)
	}
	return HashResult{Hash: HashBytes(raw), Compressed: compressed}, nil
}

// Compress deflates data into the zlib format Git uses for loose objects.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: close: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress inflates zlib data produced by Compress.
func Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	return out, nil
}

// DecodeEnvelope splits a decompressed envelope into a GenericObject,
// validating the header against the payload.
func DecodeEnvelope(raw []byte) (*GenericObject, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return nil, fmt.Errorf("%w: no NUL after header", ErrMalformedObject)
	}
	header := raw[:nulIdx]
	content := raw[nulIdx+1:]

	parts := bytes.Split(header, []byte(" "))
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: invalid header %q", ErrMalformedObject, header)
	}
	objType, err := ParseObjectType(string(parts[0]))
	if err != nil {
		return nil, err
	}
	size, err := parseLength(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid length %q", ErrMalformedObject, parts[1])
	}
	if len(content) != size {
		return nil, fmt.Errorf("%w: length mismatch (header=%d, actual=%d)", ErrMalformedObject, size, len(content))
	}

	return &GenericObject{Type: objType, Size: size, Content: content}, nil
}

// parseLength accepts only canonical decimal lengths: digits with no sign
// and no leading zero unless the length is zero itself.
func parseLength(b []byte) (int, error) {
	if len(b) == 0 || (len(b) > 1 && b[0] == '0') {
		return 0, fmt.Errorf("non-canonical length %q", b)
	}
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-canonical length %q", b)
		}
	}
	return strconv.Atoi(string(b))
}
