package object

// HashBlob wraps raw file bytes into a blob object. The payload is stored
// verbatim with no line-ending normalization, so the hash matches
// `git hash-object` for the same bytes.
func HashBlob(content []byte) (HashResult, error) {
	return Encode(TypeBlob, content)
}

// WriteBlob hashes content as a blob and stores it.
func (s *Store) WriteBlob(content []byte) (Hash, error) {
	return s.Put(TypeBlob, content)
}

// ReadBlob reads a blob's raw bytes.
func (s *Store) ReadBlob(h Hash) ([]byte, error) {
	obj, err := s.ReadTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return obj.Content, nil
}
