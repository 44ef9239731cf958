package form

import (
	"encoding/hex"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
)

// encodeText returns s as a PDF text string. Printable ASCII is kept as
// single bytes; anything else becomes UTF-16BE with a byte order mark.
func encodeText(s string) (types.HexLiteral, error) {
	if isPrintableASCII(s) {
		return types.HexLiteral(hex.EncodeToString([]byte(s))), nil
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	b, err := enc.Bytes([]byte(s))
	if err != nil {
		return "", eris.Wrap(err, "encode UTF-16 text")
	}
	return types.HexLiteral(hex.EncodeToString(b)), nil
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			if c != '\n' && c != '\r' && c != '\t' {
				return false
			}
		}
	}
	return true
}
