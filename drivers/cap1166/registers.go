package cap1166

// I2C address (ADDR_COMM strapped for 0x28 on the Cap Touch 2 Click).
const Address = 0x28

// Inputs is the number of capacitive sensor inputs (CS1..CS6).
const Inputs = 6

const allInputs = 1<<Inputs - 1

// Register map.
const (
	regMainControl     = 0x00
	regGeneralStatus   = 0x02
	regInputStatus     = 0x03
	regLEDStatus       = 0x04
	regNoiseStatus     = 0x0A
	regInputDelta      = 0x10 // 0x10..0x15, two's complement
	regSensitivity     = 0x1F
	regConfiguration   = 0x20
	regInputEnable     = 0x21
	regCalibrate       = 0x26
	regInterruptEnable = 0x27
	regRepeatEnable    = 0x28
	regMultiTouch      = 0x2A
	regThreshold       = 0x30 // 0x30..0x35
	regStandbyChannel  = 0x40
	regLEDLinking      = 0x72
	regProductID       = 0xFD
	regManufacturerID  = 0xFE
	regRevision        = 0xFF
)

// Main control bits.
const (
	mainInt     = 0x01
	mainDSleep  = 0x10
	mainStandby = 0x20
	mainGain    = 0xC0
)

// General status bits.
const (
	StatusTouch    = 0x01
	StatusMTP      = 0x02
	StatusMulti    = 0x04
	StatusPower    = 0x10
	StatusACalFail = 0x20
	StatusBCOut    = 0x40
)

const (
	productID      = 0x51
	manufacturerID = 0x5D

	multiBlockEnable = 0x80
	baseShift        = 0x0F
	defaultThreshold = 0x40
)
