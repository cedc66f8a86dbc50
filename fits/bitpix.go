package fits

// Element sizes for the BITPIX values allowed by FITS standard 4.0,
// table 8. Negative values are IEEE floats.
func elementSize(bitpix int) (int, error) {
	switch bitpix {
	case 8:
		return 1, nil
	case 16:
		return 2, nil
	case 32, -32:
		return 4, nil
	case 64, -64:
		return 8, nil
	}

	return 0, formatErrorf("unsupported BITPIX %d", bitpix)
}

// BitpixType names the Go type that holds one element of the given BITPIX.
func BitpixType(bitpix int) string {
	switch bitpix {
	case 8:
		return "uint8"
	case 16:
		return "int16"
	case 32:
		return "int32"
	case 64:
		return "int64"
	case -32:
		return "float32"
	case -64:
		return "float64"
	}

	return "unknown"
}
