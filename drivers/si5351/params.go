package si5351

import "clickcode-go/x/mathx"

// Frac is a divider or multiplier A + B/C.
type Frac struct {
	A, B, C uint32
}

// Integer reports whether the fractional part is zero.
func (f Frac) Integer() bool { return f.B == 0 }

func (f Frac) valid() bool { return f.C > 0 && f.C <= MaxDenom && f.B < f.C }

// EncodeParams packs a divider into the eight parameter registers shared by
// the PLL (MSNx) and multisynth (MSx) blocks:
//
//	P1 = 128*A + floor(128*B/C) - 512   (18 bits)
//	P2 = 128*B - C*floor(128*B/C)       (20 bits)
//	P3 = C                              (20 bits)
//
// rdiv (0..7, divide by 2^rdiv) and divBy4 only apply to multisynths; pass 0
// and false for PLLs. With divBy4 the P values are ignored by the chip and
// written as P1=0, P2=0, P3=1.
func EncodeParams(f Frac, rdiv uint8, divBy4 bool) [8]byte {
	var p1, p2, p3 uint32
	var d4 byte
	if divBy4 {
		p3 = 1
		d4 = 0x03
	} else {
		fl := 128 * f.B / f.C
		p1 = 128*f.A + fl - 512
		p2 = 128*f.B - f.C*fl
		p3 = f.C
	}
	return [8]byte{
		byte(p3 >> 8),
		byte(p3),
		(rdiv&0x07)<<4 | d4<<2 | byte(p1>>16)&0x03,
		byte(p1 >> 8),
		byte(p1),
		byte(p3>>16)&0x0F<<4 | byte(p2>>16)&0x0F,
		byte(p2 >> 8),
		byte(p2),
	}
}

// Plan is a synthesis plan for one output frequency.
type Plan struct {
	PLL    Frac  // VCO = xtal * PLL
	MS     Frac  // output multisynth divider
	RDiv   uint8 // extra divide by 2^RDiv
	DivBy4 bool
	VCO    uint32
}

// Hz returns the output frequency the plan produces from xtalHz.
func (p Plan) Hz(xtalHz uint32) float64 {
	vco := float64(xtalHz) * (float64(p.PLL.A) + float64(p.PLL.B)/float64(p.PLL.C))
	ms := float64(p.MS.A) + float64(p.MS.B)/float64(p.MS.C)
	return vco / ms / float64(uint32(1)<<p.RDiv)
}

// NewPlan picks dividers for hz. Outputs up to VCOMax/8 run from a fixed
// 900 MHz VCO so several outputs can share a PLL; higher outputs use the
// integer divide-by-6 and divide-by-4 modes and need a PLL of their own. Low
// outputs are brought into multisynth range with the R divider.
func NewPlan(xtalHz, hz uint32) (Plan, error) {
	if hz == 0 || hz > MaxHz || xtalHz == 0 {
		return Plan{}, ErrRange
	}
	var p Plan
	vco := uint64(VCOMax)
	switch {
	case uint64(hz)*4 >= VCOMin && hz > 150_000_000:
		p.DivBy4 = true
		p.MS = Frac{A: 4, C: 1}
		vco = uint64(hz) * 4
	case uint64(hz)*minMSDiv > VCOMax:
		p.MS = Frac{A: 6, C: 1}
		vco = uint64(hz) * 6
	default:
		for uint64(hz)<<p.RDiv*maxMSDiv < vco {
			if p.RDiv == maxRDiv {
				return Plan{}, ErrRange
			}
			p.RDiv++
		}
		p.MS = ratio(vco, uint64(hz)<<p.RDiv)
	}
	if vco < VCOMin || vco > VCOMax {
		return Plan{}, ErrRange
	}
	p.VCO = uint32(vco)
	p.PLL = ratio(vco, uint64(xtalHz))
	if !mathx.Between(p.PLL.A, minPLLMult, maxPLLMult) {
		return Plan{}, ErrParams
	}
	return p, nil
}

// ratio expresses num/den as A + B/C with C <= MaxDenom, rounding B when the
// reduced denominator does not fit.
func ratio(num, den uint64) Frac {
	a := num / den
	rem := num % den
	if rem == 0 {
		return Frac{A: uint32(a), C: 1}
	}
	g := mathx.GCD(rem, den)
	rem, den = rem/g, den/g
	if den > MaxDenom {
		rem = mathx.RoundDiv(rem*MaxDenom, den)
		den = MaxDenom
		if rem == den {
			a++
			rem = 0
		}
	}
	if rem == 0 {
		den = 1
	}
	return Frac{A: uint32(a), B: uint32(rem), C: uint32(den)}
}
