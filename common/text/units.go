// Copyright (C) MongoDB, Inc. 2014-present.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package text provides utilities for formatting units for display.
package text

import (
	"fmt"
	"math"
)

const (
	decimal = 1000
	binary  = 1024
)

var (
	longByteUnits  = []string{"B", "KB", "MB", "GB"}
	shortByteUnits = []string{"B", "K", "M", "G"}
	shortBitUnits  = []string{"b", "k", "m", "g"}
)

// FormatByteAmount takes an int64 representing a size in bytes and
// returns a formatted string of a minimum amount of significant figures.
//
//	e.g. 12.4GB, 0B, 124KB, 1024GB
func FormatByteAmount(size int64) string {
	return formatUnitAmount(binary, size, longByteUnits)
}

// FormatMegabyteAmount is equivalent to FormatByteAmount but expects
// an amount of MB instead of bytes.
func FormatMegabyteAmount(size int64) string {
	return formatUnitAmount(binary, size*1024*1024, shortByteUnits)
}

// FormatBits takes in a int64 representing a size in bits and returns a
// formatted string including units with three significant digits.
func FormatBits(size int64) string {
	return formatUnitAmount(decimal, size, shortBitUnits)
}

// formatUnitAmount formats size as a value in the largest unit it exceeds,
// with three significant figures. Values that fit in the base unit are
// printed as plain integers; values beyond the largest unit stay in that
// unit, however large.
func formatUnitAmount(base, size int64, units []string) string {
	result := float64(size)
	divisor := float64(base)
	var shifts int
	for result >= divisor && shifts < len(units)-1 {
		result /= divisor
		shifts++
	}
	if shifts == 0 {
		return fmt.Sprintf("%v%v", size, units[0])
	}

	rounded := roundSignificant(result, 3)
	var precision int
	switch {
	case rounded < 10:
		precision = 2
	case rounded < 100:
		precision = 1
	default:
		precision = 0
	}
	return fmt.Sprintf("%.*f%v", precision, rounded, units[shifts])
}

// roundSignificant rounds val to the given number of significant figures.
func roundSignificant(val float64, figures int) float64 {
	if val == 0 {
		return 0
	}
	scale := math.Pow(10, math.Floor(math.Log10(val))-float64(figures-1))
	return math.Round(val/scale) * scale
}
