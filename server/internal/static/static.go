package static

import (
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"strconv"
	"strings"
)

//go:embed public
var public embed.FS

const indexFile = "index.html"

// contentTypes is the fixed extension table; anything else is served as
// application/octet-stream.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".txt":  "text/plain; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".webp": "image/webp",
}

// Embedded returns the default front-end compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(public, "public")
	if err != nil {
		// Only fails for an invalid literal path.
		panic(err)
	}
	return sub
}

// Responder serves files from root.
type Responder struct {
	root fs.FS
}

// New returns a Responder over root.
func New(root fs.FS) *Responder {
	return &Responder{root: root}
}

// NewDir returns a Responder over the directory dir, or over the embedded
// front-end when dir is empty.
func NewDir(dir string) *Responder {
	if dir == "" {
		return New(Embedded())
	}
	return New(os.DirFS(dir))
}

func (s *Responder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		plain(w, http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	name, ok := resolve(r.URL.Path)
	if !ok {
		plain(w, http.StatusForbidden, "Forbidden")
		return
	}

	data, name, err := s.read(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		plain(w, http.StatusNotFound, "Not Found")
		return
	case err != nil:
		slog.Error("static: read failed", "path", r.URL.Path, "err", err)
		plain(w, http.StatusInternalServerError, "Server Error")
		return
	}

	w.Header().Set("Content-Type", ContentType(name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	w.Write(data) //nolint:errcheck
}

// read returns the contents of name, descending into index.html when name is
// a directory. It also returns the name actually read.
func (s *Responder) read(name string) ([]byte, string, error) {
	info, err := fs.Stat(s.root, name)
	if err != nil {
		return nil, name, err
	}
	if info.IsDir() {
		name = path.Join(name, indexFile)
	}
	data, err := fs.ReadFile(s.root, name)
	return data, name, err
}

// resolve turns a URL path into a name relative to the root. It reports false
// when the cleaned path escapes the root.
func resolve(urlPath string) (string, bool) {
	name := path.Join(".", urlPath)
	if name == ".." || strings.HasPrefix(name, "../") {
		return "", false
	}
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

// ContentType returns the MIME type for name from the fixed extension table.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func plain(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(msg)) //nolint:errcheck
}
