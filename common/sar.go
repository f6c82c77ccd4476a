// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package common

// Register indices of the SAR register window. The window gathers the
// RTC_CNTL, analog config and SENS registers used by the on-die sensors.
const (
	RegAnaConf    uint8 = 0x00 // RTC_CNTL_ANA_CONF_REG
	RegAnaConfig  uint8 = 0x04 // ANA_CONFIG_REG
	RegAnaConfig2 uint8 = 0x08 // ANA_CONFIG2_REG
	RegTctrl      uint8 = 0x50 // SENS_SAR_TSENS_CTRL_REG
	RegTctrl2     uint8 = 0x54 // SENS_SAR_TSENS_CTRL2_REG
)

// Analog I²C (regi2c) path bits.
const (
	SarI2CForcePD uint32 = 1 << 21 // in RegAnaConf
	SarI2CForcePU uint32 = 1 << 22 // in RegAnaConf
	I2CSar        uint32 = 1 << 18 // in RegAnaConfig
	AnaSarCfg2    uint32 = 1 << 16 // in RegAnaConfig2
)

// Temperature sensor control fields.
var (
	TsensOut          = Field{Reg: RegTctrl, Shift: 0, Width: 8}
	TsensReady        = Field{Reg: RegTctrl, Shift: 8, Width: 1}
	TsensClkDiv       = Field{Reg: RegTctrl, Shift: 14, Width: 8}
	TsensPowerUp      = Field{Reg: RegTctrl, Shift: 22, Width: 1}
	TsensPowerUpForce = Field{Reg: RegTctrl, Shift: 23, Width: 1}
	TsensDumpOut      = Field{Reg: RegTctrl, Shift: 24, Width: 1}

	TsensXpdWait   = Field{Reg: RegTctrl2, Shift: 0, Width: 12}
	TsensClkGateEn = Field{Reg: RegTctrl2, Shift: 15, Width: 1}
	TsensReset     = Field{Reg: RegTctrl2, Shift: 16, Width: 1}
)

// Analog I²C block hosting the SAR ADC, and the temperature sensor DAC
// field inside it.
const RegI2CSarADC uint16 = 0x69

var TsensDAC = Field{Reg: 6, Shift: 0, Width: 4}
