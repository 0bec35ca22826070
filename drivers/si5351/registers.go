package si5351

// I2C address.
const Address = 0x60

// Register map (Si5351A, AN619).
const (
	regDeviceStatus    = 0
	regInterruptStatus = 1
	regInterruptMask   = 2
	regOutputEnable    = 3
	regOEBPinEnable    = 9
	regPLLInputSource  = 15
	regCLK0Control     = 16 // CLK0..CLK7 control at 16..23
	regCLK30Disable    = 24
	regCLK74Disable    = 25
	regPLLAParams      = 26 // 8 bytes
	regPLLBParams      = 34 // 8 bytes
	regMS0Params       = 42 // 8 bytes per output
	regCLK0PhaseOffset = 165
	regPLLReset        = 177
	regCrystalLoad     = 183
)

// Device status bits (register 0).
const (
	StatusSysInit  = 0x80 // device still initialising
	StatusLOLB     = 0x40 // PLLB loss of lock
	StatusLOLA     = 0x20 // PLLA loss of lock
	StatusLOSClkin = 0x10
	StatusLOSXtal  = 0x08
)

// CLKx control bits.
const (
	clkPowerDown  = 0x80
	clkMSInt      = 0x40
	clkSrcPLLB    = 0x20
	clkInvert     = 0x10
	clkInputMS    = 0x0C
	clkDriveMask  = 0x03
	pllResetA     = 0x20
	pllResetB     = 0x80
	xtalLoadFixed = 0x12 // reserved low bits, must be written as 010010b
)

// Crystal load capacitance (register 183, bits 7:6).
type Load byte

const (
	Load6pF  Load = 1 << 6
	Load8pF  Load = 2 << 6
	Load10pF Load = 3 << 6
)

// Output drive strength.
type Drive uint8

const (
	Drive2mA Drive = iota
	Drive4mA
	Drive6mA
	Drive8mA
)

// PLL selects one of the two PLLs.
type PLL uint8

const (
	PLLA PLL = iota
	PLLB
)

// Outputs is the number of clock outputs on the 10-pin Si5351A.
const Outputs = 3

// Divider limits.
const (
	MaxDenom   = 1<<20 - 1
	minPLLMult = 15
	maxPLLMult = 90
	minMSDiv   = 8
	maxMSDiv   = 2048
	maxRDiv    = 7

	VCOMin = 600_000_000
	VCOMax = 900_000_000

	// MaxHz is the highest output frequency (multisynth divide-by-4).
	MaxHz = 200_000_000
)
