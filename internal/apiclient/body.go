package apiclient

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"sort"

	"github.com/goccy/go-json"
)

// Body is a request payload.
type Body interface {
	// encode returns the payload reader and its content type.
	encode() (io.Reader, string, error)
}

type jsonBody struct {
	v interface{}
}

// JSON encodes v as the request body with Content-Type application/json.
func JSON(v interface{}) Body {
	return jsonBody{v: v}
}

func (b jsonBody) encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("encode request body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

type formBody struct {
	fields url.Values
}

// Form encodes fields as multipart/form-data. The content type carries the
// multipart boundary; no JSON content type is set.
func Form(fields url.Values) Body {
	return formBody{fields: fields}
}

func (b formBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range b.fields[k] {
			if err := w.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("encode form field %s: %w", k, err)
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
