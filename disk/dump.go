package disk

import (
	"fmt"
	"io"
)

// Dump writes a hex listing of bytes, twelve per line, with printable
// ASCII alongside.
func Dump(w io.Writer, bytes []byte, base int) {
	perline := 0xC
	ascii := ""
	for i, v := range bytes {
		if i%perline == 0 {
			if i > 0 {
				fmt.Fprintln(w, " "+ascii)
			}
			ascii = ""
			fmt.Fprintf(w, "%.4X:", base+i)
		}
		c := v & 0x7F
		if c >= 32 && c < 127 {
			ascii += string(rune(c))
		} else {
			ascii += "."
		}
		fmt.Fprintf(w, " %.2X", v)
	}
	if len(bytes) > 0 {
		if pad := len(bytes) % perline; pad != 0 {
			for i := pad; i < perline; i++ {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprintln(w, " "+ascii)
	}
}
