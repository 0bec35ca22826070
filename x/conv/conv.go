// Package conv formats integers into caller buffers without fmt or strconv,
// for println-only firmware logging.
package conv

const hexd = "0123456789ABCDEF"

// Utoa writes the base-10 representation of n into buf and returns the used
// tail. buf should hold 20 bytes for any uint64.
func Utoa(buf []byte, n uint64) []byte {
	i := len(buf)
	if i == 0 {
		return buf
	}
	if n == 0 {
		i--
		buf[i] = '0'
		return buf[i:]
	}
	for n > 0 && i > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return buf[i:]
}

// Hex writes the low digits hex digits of n, uppercase and zero-padded.
// It returns an empty slice if buf is shorter than digits.
func Hex(buf []byte, n uint32, digits int) []byte {
	if digits <= 0 || digits > 8 || len(buf) < digits {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < digits; j++ {
		i--
		buf[i] = hexd[n&0xF]
		n >>= 4
	}
	return buf[i:]
}

// Bits writes the low width bits of v, most significant first, as '0'/'1'.
func Bits(buf []byte, v uint8, width int) []byte {
	if width <= 0 || width > 8 || len(buf) < width {
		return buf[:0]
	}
	i := len(buf)
	for j := 0; j < width; j++ {
		i--
		buf[i] = '0' + v&1
		v >>= 1
	}
	return buf[i:]
}
