// Copyright (c) 2026 xwdoor
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// MPU-9250 register addresses (register map, document RM-MPU-9250A-00).
const (
	regSmplrtDiv    = 0x19
	regConfig       = 0x1A
	regAccelConfig  = 0x1C
	regAccelConfig2 = 0x1D
	regIntPinCfg    = 0x37
	regAccelXoutH   = 0x3B
	regPwrMgmt1     = 0x6B
	regPwrMgmt2     = 0x6C
	regWhoAmI       = 0x75
)

// WHO_AM_I identities this driver accepts. The MPU-9255 is register
// compatible for everything used here.
const (
	devIDMPU9250 = 0x71
	devIDMPU9255 = 0x73
)

// PWR_MGMT_1 and INT_PIN_CFG bits.
const (
	bitHReset     = 0x80 // PWR_MGMT_1: device reset
	bitClkSelAuto = 0x01 // PWR_MGMT_1: auto-select best clock source
	bitBypassEn   = 0x02 // INT_PIN_CFG: route the aux I2C bus to the host
)

// AK8963 magnetometer, reachable directly on the bus once bypass is on.
const (
	ak8963Addr = 0x0C

	akRegWia   = 0x00
	akRegSt1   = 0x02
	akRegHxl   = 0x03
	akRegCntl1 = 0x0A
	akRegCntl2 = 0x0B
	akRegAsax  = 0x10
)

// AK8963 identity, status bits, and CNTL1 operation modes.
const (
	akDevID   = 0x48
	akBitDrdy = 0x01 // ST1: data ready
	akBitHofl = 0x08 // ST2: magnetic overflow

	akModePowerDown = 0x00
	akModeFuseROM   = 0x0F
	// 16-bit output, continuous measurement mode 2 (100 Hz).
	akModeCont100Hz16Bit = 0x16

	akBitSoftReset = 0x01 // CNTL2
)

// accelScales maps the ACCEL_CONFIG full-scale selector to g per LSB.
var accelScales = [4]float64{
	2.0 / 32768.0,
	4.0 / 32768.0,
	8.0 / 32768.0,
	16.0 / 32768.0,
}

// magScale is µT per LSB in 16-bit output mode (±4912 µT over ±32760).
const magScale = 4912.0 / 32760.0

// beInt16 assembles a big-endian int16, the MPU-9250 sensor data order.
func beInt16(hi, lo byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}

// leInt16 assembles a little-endian int16, the AK8963 data order.
func leInt16(lo, hi byte) int16 {
	return int16(uint16(hi)<<8 | uint16(lo))
}

// sensitivityAdj converts an AK8963 fuse-ROM ASA byte into the factory
// per-axis sensitivity multiplier.
func sensitivityAdj(asa byte) float64 {
	return (float64(asa)-128.0)/256.0 + 1.0
}
