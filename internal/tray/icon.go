package tray

// getIcon returns a minimal 16x16 32-bit ICO, generated in-process so
// the binary ships with no external icon asset.
func getIcon() []byte {
	return createSimpleIcon()
}

func createSimpleIcon() []byte {
	width := 16
	height := 16

	header := []byte{
		0x00, 0x00, // Reserved
		0x01, 0x00, // Type: 1 = ICO
		0x01, 0x00, // Count: 1 image
	}

	imageSize := width * height * 4 // 32-bit RGBA
	bmpHeaderSize := 40
	totalImageSize := bmpHeaderSize + imageSize

	entry := []byte{
		byte(width),
		byte(height),
		0x00, // Color palette
		0x00, // Reserved
		0x01, 0x00, // Color planes
		0x20, 0x00, // Bits per pixel (32)
		byte(totalImageSize),
		byte(totalImageSize >> 8),
		byte(totalImageSize >> 16),
		byte(totalImageSize >> 24),
		0x16, 0x00, 0x00, 0x00, // Offset to image data
	}

	bmpHeader := []byte{
		0x28, 0x00, 0x00, 0x00, // Header size (40)
		byte(width), 0x00, 0x00, 0x00,
		byte(height * 2), 0x00, 0x00, 0x00, // doubled for XOR + AND mask
		0x01, 0x00, // Planes
		0x20, 0x00, // Bits per pixel
		0x00, 0x00, 0x00, 0x00, // Compression
		0x00, 0x00, 0x00, 0x00, // Image size
		0x00, 0x00, 0x00, 0x00, // X pixels per meter
		0x00, 0x00, 0x00, 0x00, // Y pixels per meter
		0x00, 0x00, 0x00, 0x00, // Colors used
		0x00, 0x00, 0x00, 0x00, // Important colors
	}

	pixels := make([]byte, imageSize)

	// Green circle with a white checkmark, bottom-up BGRA per ICO layout.
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			idx := ((height - 1 - y) * width + x) * 4

			b, g, r, a := byte(0), byte(0), byte(0), byte(0)

			cx, cy := float64(x)-7.5, float64(y)-7.5
			dist := cx*cx + cy*cy

			if dist < 56 {
				// Green background (#107C10)
				b, g, r, a = 0x10, 0x7C, 0x10, 0xFF

				if onCheckmark(x, y) {
					b, g, r = 0xFF, 0xFF, 0xFF
				}
			}

			pixels[idx+0] = b
			pixels[idx+1] = g
			pixels[idx+2] = r
			pixels[idx+3] = a
		}
	}

	result := make([]byte, 0, len(header)+len(entry)+len(bmpHeader)+len(pixels))
	result = append(result, header...)
	result = append(result, entry...)
	result = append(result, bmpHeader...)
	result = append(result, pixels...)

	return result
}

// onCheckmark reports whether (x, y) lies on a simple two-stroke
// checkmark within the 16x16 icon grid.
func onCheckmark(x, y int) bool {
	// Short down-stroke from (5,8) to (7,10).
	if y >= 8 && y <= 10 && x == 5+(y-8) {
		return true
	}
	// Long up-stroke from (7,10) to (11,5).
	if y >= 5 && y <= 10 && x == 11-(y-5)*4/5 {
		return true
	}
	return false
}
