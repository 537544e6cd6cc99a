package checkout

import (
	"io"
	"mime/multipart"
	"net/http"
)

// sniffContentType reads the first bytes of an upload whose part header did
// not name a usable type.
func sniffContentType(fh *multipart.FileHeader) string {
	f, err := fh.Open()
	if err != nil {
		return ""
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return ""
	}
	return http.DetectContentType(buf[:n])
}
