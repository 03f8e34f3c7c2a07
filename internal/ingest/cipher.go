package ingest

// Cipher encrypts uploads and record payloads.
type Cipher interface {
	EncryptBytes(data []byte) ([]byte, error)
	DecryptBytes(token []byte) ([]byte, error)
	EncryptJSON(v any) (string, error)
	DecryptJSON(value string) any
	DecodeJSON(value string, dst any) error
}
