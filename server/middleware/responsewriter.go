package middleware

import (
	"bufio"
	"bytes"
	"fmt"
	"net"
	"net/http"
)

// statusWriter records the status and the number of body bytes written
// through it. Flush and Unwrap are delegated so streaming keeps working.
type statusWriter struct {
	http.ResponseWriter
	status      int
	written     int64
	wroteHeader bool
}

func newStatusWriter(w http.ResponseWriter) *statusWriter {
	return &statusWriter{ResponseWriter: w, status: http.StatusOK}
}

func (sw *statusWriter) WriteHeader(code int) {
	if !sw.wroteHeader {
		sw.status = code
		sw.wroteHeader = true
	}
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *statusWriter) Write(b []byte) (int, error) {
	sw.wroteHeader = true
	n, err := sw.ResponseWriter.Write(b)
	sw.written += int64(n)
	return n, err
}

// Flush implements http.Flusher, required for streaming and SSE responses.
func (sw *statusWriter) Flush() {
	if f, ok := sw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying ResponseWriter so http.ResponseController
// can discover optional interfaces on the original writer.
func (sw *statusWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}

// bufferedWriter holds the status, headers and body written by a handler
// until commit is called, so the response can still be replaced.
// An explicit Flush (or Hijack) commits early and switches to direct mode,
// after which the response can no longer be rewritten.
type bufferedWriter struct {
	w           http.ResponseWriter
	header      http.Header
	buf         bytes.Buffer
	status      int
	wroteHeader bool
	direct      bool
	hijacked    bool
}

func newBufferedWriter(w http.ResponseWriter) *bufferedWriter {
	return &bufferedWriter{w: w, header: make(http.Header), status: http.StatusOK}
}

func (bw *bufferedWriter) Header() http.Header {
	if bw.direct {
		return bw.w.Header()
	}
	return bw.header
}

func (bw *bufferedWriter) WriteHeader(code int) {
	// 1xx informational headers go straight through.
	if code >= 100 && code < 200 && code != http.StatusSwitchingProtocols {
		copyHeader(bw.w.Header(), bw.header)
		bw.w.WriteHeader(code)
		return
	}
	if bw.wroteHeader {
		return
	}
	bw.status = code
	bw.wroteHeader = true
}

func (bw *bufferedWriter) Write(p []byte) (int, error) {
	if !bw.wroteHeader {
		bw.WriteHeader(http.StatusOK)
	}
	if bw.direct {
		return bw.w.Write(p)
	}
	return bw.buf.Write(p)
}

// Status returns the status the handler set, 200 if it set none.
func (bw *bufferedWriter) Status() int {
	return bw.status
}

// Committed reports whether the response already reached the client.
func (bw *bufferedWriter) Committed() bool {
	return bw.direct
}

// Flush commits the buffered response and flushes the underlying writer.
func (bw *bufferedWriter) Flush() {
	if err := bw.commit(); err != nil {
		return
	}
	if f, ok := bw.w.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack commits the response and hands the connection to the caller.
func (bw *bufferedWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := bw.w.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("middleware: underlying ResponseWriter does not implement http.Hijacker")
	}
	copyHeader(bw.w.Header(), bw.header)
	bw.direct = true
	bw.hijacked = true
	return hj.Hijack()
}

// Unwrap returns the underlying ResponseWriter so http.ResponseController
// can set deadlines on the original writer.
func (bw *bufferedWriter) Unwrap() http.ResponseWriter {
	return bw.w
}

// commit writes the buffered status, headers and body to the underlying
// writer and switches to direct mode. It is a no-op once committed.
func (bw *bufferedWriter) commit() error {
	if bw.direct {
		return nil
	}
	bw.direct = true
	copyHeader(bw.w.Header(), bw.header)
	bw.w.WriteHeader(bw.status)
	if bw.buf.Len() == 0 {
		return nil
	}
	_, err := bw.w.Write(bw.buf.Bytes())
	bw.buf.Reset()
	return err
}

// reset discards the status and body the handler wrote, along with the
// headers describing that body. Other headers, such as X-Request-Id, are
// kept. It has no effect once committed.
func (bw *bufferedWriter) reset() {
	if bw.direct {
		return
	}
	bw.buf.Reset()
	for _, h := range bodyHeaders {
		bw.header.Del(h)
	}
	bw.status = http.StatusOK
	bw.wroteHeader = false
}

var bodyHeaders = []string{"Content-Length", "Content-Type", "Content-Encoding", "Content-Disposition", "Etag", "Last-Modified"}

func copyHeader(dst, src http.Header) {
	for k, v := range src {
		dst[k] = append([]string(nil), v...)
	}
}
