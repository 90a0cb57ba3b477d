package fetch

import (
	"bufio"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

const sniffLen = 1024

// decodeBody converts the response body to UTF-8. The Content-Type charset wins;
// otherwise the first bytes are sniffed for a BOM or meta declaration,
// and UTF-8 is assumed when neither is present.
func decodeBody(r io.Reader, contentType string) (string, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	enc := encodingFromHeader(contentType)
	if enc == nil {
		prefix, _ := br.Peek(sniffLen)
		sniffed, name, certain := charset.DetermineEncoding(prefix, contentType)
		enc = sniffed
		if name == "windows-1252" && !certain {
			// the sniffer's fallback guess; pages without a declaration are UTF-8
			enc = encoding.Nop
		}
	}

	data, err := io.ReadAll(transform.NewReader(br, enc.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encodingFromHeader(contentType string) encoding.Encoding {
	if contentType == "" {
		return nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil
	}
	name := strings.TrimSpace(params["charset"])
	if name == "" {
		return nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil
	}
	return enc
}
