package tee

import (
	"bytes"
	"net/http"
)

// Recorder is an http.ResponseWriter that buffers the status, headers and
// body of a response instead of writing them out. The buffered response is
// written to a real writer with WriteTo, which gives middleware a chance to
// inspect and mutate headers after the inner handler has run.
type Recorder struct {
	header      http.Header
	body        *bytes.Buffer
	status      int
	wroteHeader bool
}

func NewRecorder() *Recorder {
	return &Recorder{
		header: http.Header{},
		body:   &bytes.Buffer{},
	}
}

// Implementation of http.ResponseWriter
func (rec *Recorder) Header() http.Header {
	return rec.header
}

// Implementation of http.ResponseWriter
func (rec *Recorder) WriteHeader(statusCode int) {
	if rec.wroteHeader {
		return
	}
	rec.wroteHeader = true
	rec.status = statusCode
}

// Implementation of http.ResponseWriter
func (rec *Recorder) Write(b []byte) (int, error) {
	if !rec.wroteHeader {
		rec.WriteHeader(http.StatusOK)
	}
	return rec.body.Write(b)
}

// Status returns the recorded status code, defaulting to 200 if the handler
// never called WriteHeader.
func (rec *Recorder) Status() int {
	if !rec.wroteHeader {
		return http.StatusOK
	}
	return rec.status
}

// Body returns the recorded response body.
func (rec *Recorder) Body() []byte {
	return rec.body.Bytes()
}

// WriteTo replays the recorded response onto w.
func (rec *Recorder) WriteTo(w http.ResponseWriter) error {
	copyHeader(w.Header(), rec.header)
	w.WriteHeader(rec.Status())
	_, err := w.Write(rec.body.Bytes())
	return err
}

// WriteHeadersTo replays only the headers onto w with the given status,
// dropping the body. Used for 304 responses, which must not carry one.
func (rec *Recorder) WriteHeadersTo(w http.ResponseWriter, statusCode int) {
	copyHeader(w.Header(), rec.header)
	w.Header().Del("Content-Length")
	w.WriteHeader(statusCode)
}

func copyHeader(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
}
