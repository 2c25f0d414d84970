package apicollectionv1

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// decodeNumbers unmarshals data keeping numbers as json.Number, so 64 bit
// integers reach the layout codec without going through float64.
func decodeNumbers(data []byte, v any) error {
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	err := d.Decode(v)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if _, err := d.Token(); err != io.EOF {
		return fmt.Errorf("%w: unexpected data after JSON value", ErrBadRequest)
	}
	return nil
}

func decodeBody(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	return decodeNumbers(data, v)
}
