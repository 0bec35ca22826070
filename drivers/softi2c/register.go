package softi2c

import (
	"clickcode-go/errcode"

	"tinygo.org/x/drivers"
)

var _ drivers.I2C = (*Bus)(nil)

// Tx performs one addressed transaction: START, address+W, w, then (when r is
// non-empty) a repeated START, address+R and len(r) bytes with the last one
// NACKed, then STOP. With w empty only the read phase is issued; with both
// empty the address is probed. Every phase runs even when an earlier one
// failed so the bus always ends with a STOP; the returned error folds all
// failures (see errcode.Fold).
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.tx(addr, nil, w, r)
}

// WriteRegister writes data to consecutive registers starting at reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, data []byte) error {
	b.reg[0] = reg
	return b.tx(uint16(addr), b.reg[:], data, nil)
}

// ReadRegister reads len(data) consecutive registers starting at reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, data []byte) error {
	b.reg[0] = reg
	return b.tx(uint16(addr), b.reg[:], nil, data)
}

func (b *Bus) tx(addr uint16, head, w, r []byte) error {
	if addr > 0x7F {
		return ErrAddress
	}
	b.txns.Add(1)
	ad := byte(addr) << 1

	var f errcode.Fold
	writing := len(head)+len(w) > 0
	if writing || len(r) == 0 {
		f.Add(b.WriteByteFrame(ad, true, false))
		for _, v := range head {
			f.Add(b.WriteByteFrame(v, false, false))
		}
		for _, v := range w {
			f.Add(b.WriteByteFrame(v, false, false))
		}
	}
	if len(r) > 0 {
		// Start repeats when the write phase above left the transaction open.
		f.Add(b.WriteByteFrame(ad|1, true, false))
		last := len(r) - 1
		for i := range r {
			v, err := b.ReadByteFrame(i == last, i == last)
			f.Add(err)
			r[i] = v
		}
	} else {
		f.Add(b.Stop())
	}
	return f.Err()
}

// Probe reports whether a device acknowledges addr.
func (b *Bus) Probe(addr uint8) bool {
	return errcode.Of(b.Tx(uint16(addr), nil, nil)) == errcode.OK
}
