package serializer

import (
	"bufio"
	"bytes"
	"net/http"
	"strconv"
	"time"
)

const storedAtHeaderName = "Edge-Stored-At"

// StoredResponse is an HTTP response together with the time it was written
// to a cache bucket.
type StoredResponse struct {
	Response *http.Response
	StoredAt time.Time
}

// ToBytes serializes a stored response into its HTTP/1.1 wire form.
// The stored-at timestamp travels in a private header that FromBytes strips.
// The response body is consumed and restored, so the response remains usable
// by the caller afterwards.
func ToBytes(sRes StoredResponse) ([]byte, error) {
	res := sRes.Response
	res.Header.Set(storedAtHeaderName, strconv.FormatInt(sRes.StoredAt.Unix(), 10))

	buf := &bytes.Buffer{}
	if err := res.Write(buf); err != nil {
		res.Header.Del(storedAtHeaderName)
		return nil, err
	}
	res.Header.Del(storedAtHeaderName)
	bts := buf.Bytes()

	// res.Write drained the body, read it back from the serialized form
	clone, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(bts)), res.Request)
	if err != nil {
		return nil, err
	}
	res.Body = clone.Body

	return bts, nil
}

// FromBytes parses a stored response from its serialized form.
func FromBytes(b []byte) (StoredResponse, error) {
	sRes := StoredResponse{}
	res, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(b)), nil)
	if err != nil {
		return sRes, err
	}
	if unix, err := strconv.ParseInt(res.Header.Get(storedAtHeaderName), 10, 64); err == nil {
		sRes.StoredAt = time.Unix(unix, 0)
	}
	res.Header.Del(storedAtHeaderName)
	sRes.Response = res
	return sRes, nil
}
