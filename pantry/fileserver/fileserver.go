// pantry/fileserver/fileserver.go

// Package fileserver serves the site's static pages and assets, preferring
// pre-compressed .br/.gz siblings when the client accepts them.
package fileserver

import (
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"
)

// Handler serves files under rootDir at the URL root. cacheControl, when
// non-empty, is sent on every file response.
//
//	r.Handle("/*", fileserver.Handler("public", "public, max-age=300"))
func Handler(rootDir, cacheControl string) http.Handler {
	root := http.Dir(rootDir)
	files := http.FileServer(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		if cacheControl != "" {
			w.Header().Set("Cache-Control", cacheControl)
		}

		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}

		for _, enc := range []struct{ ext, encoding string }{{".br", "br"}, {".gz", "gzip"}} {
			if !acceptsEncoding(r, enc.encoding) {
				continue
			}
			f, err := root.Open(name + enc.ext)
			if err != nil {
				continue
			}
			fi, err := f.Stat()
			if err != nil || fi.IsDir() {
				_ = f.Close()
				continue
			}
			w.Header().Set("Content-Encoding", enc.encoding)
			w.Header().Add("Vary", "Accept-Encoding")
			w.Header().Set("Content-Type", contentType(name))
			http.ServeContent(w, r, name, fi.ModTime(), f)
			_ = f.Close()
			return
		}

		files.ServeHTTP(w, r)
	})
}

func acceptsEncoding(r *http.Request, encoding string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		enc := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(enc, encoding) {
			return true
		}
	}
	return false
}

func contentType(name string) string {
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mt != "" {
		return mt
	}
	return "application/octet-stream"
}
