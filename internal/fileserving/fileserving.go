package fileserving

import (
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cbltproxy/cblt/internal/httpwire"
	"github.com/cbltproxy/cblt/internal/pipelineerr"
)

// indexFile is appended when the resolved target is a directory.
const indexFile = "index.html"

// Serve resolves req against rootPath (falling back to fallback on an
// open failure, per spec §4.3), and writes the resulting response
// directly to w: headers plus a streamed body, honoring Range and
// gzip negotiation. The returned status mirrors what was written, for
// access logging.
func Serve(w io.Writer, req *httpwire.Request, rootPath, fallback string) (int, error) {
	target, err := SafePath(rootPath, req.Path)
	if err != nil {
		return 0, err
	}

	f, info, err := openResolved(target)
	if err != nil {
		if fallback == "" {
			return 0, pipelineerr.NotFound("file not found")
		}
		f, info, err = openResolved(filepath.Join(rootPath, fallback))
		if err != nil {
			return 0, pipelineerr.NotFound("file and fallback not found")
		}
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(info.Name()))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if rangeHeader := req.Header.Get("Range"); rangeHeader != "" {
		return serveRange(w, f, info.Size(), contentType, rangeHeader)
	}

	if httpwire.AcceptsGzip(req.Header.Get("Accept-Encoding")) {
		return serveGzipped(w, f, contentType)
	}

	resp := httpwire.NewResponse(200)
	resp.Header.Set("Content-Type", contentType)
	resp.Header.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	if err := httpwire.WriteHead(w, resp); err != nil {
		return 0, err
	}
	if _, err := io.Copy(w, f); err != nil {
		return 0, err
	}
	return 200, nil
}

// openResolved opens target, resolving a directory to its index file.
// Resolving to a directory without an index is treated as not found.
func openResolved(target string) (*os.File, os.FileInfo, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}
	if info.IsDir() {
		target = filepath.Join(target, indexFile)
		info, err = os.Stat(target)
		if err != nil {
			return nil, nil, err
		}
		if info.IsDir() {
			return nil, nil, os.ErrNotExist
		}
	}
	f, err := os.Open(target)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

func serveRange(w io.Writer, f *os.File, size int64, contentType, rangeHeader string) (int, error) {
	rng, err := httpwire.ParseRange(rangeHeader, size)
	if err != nil {
		return 0, pipelineerr.RangeNotSatisfiable(err.Error())
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		return 0, err
	}

	resp := httpwire.NewResponse(206)
	resp.Header.Set("Content-Type", contentType)
	resp.Header.Set("Content-Length", strconv.FormatInt(rng.Len(), 10))
	resp.Header.Set("Content-Range", "bytes "+strconv.FormatInt(rng.Start, 10)+"-"+
		strconv.FormatInt(rng.End, 10)+"/"+strconv.FormatInt(size, 10))
	if err := httpwire.WriteHead(w, resp); err != nil {
		return 0, err
	}
	if _, err := io.CopyN(w, f, rng.Len()); err != nil {
		return 0, err
	}
	return 206, nil
}

// serveGzipped streams f through a gzip encoder; the compressed size
// isn't known up front, so the body goes out chunked rather than with
// a Content-Length, per spec §4.2's encoding-negotiation note.
func serveGzipped(w io.Writer, f *os.File, contentType string) (int, error) {
	resp := httpwire.NewResponse(200)
	resp.Header.Set("Content-Type", contentType)
	resp.Header.Set("Content-Encoding", "gzip")
	resp.Header.Set("Vary", "Accept-Encoding")
	if err := httpwire.WriteChunked(w, resp, httpwire.GzipBody(f)); err != nil {
		return 0, err
	}
	return 200, nil
}
