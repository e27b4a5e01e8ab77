package ui

// iconBytes is a 16x16 PNG of a film frame.
var iconBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff, 0x61, 0x00, 0x00, 0x00,
	0x39, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda, 0x63, 0xd0, 0xd0, 0xd0, 0xf8,
	0x4f, 0x09, 0x66, 0x00, 0x11, 0x40, 0xc0, 0x40, 0xaa, 0x46, 0x98, 0x1e,
	0x06, 0xaa, 0xb8, 0x00, 0x86, 0x3f, 0x44, 0x11, 0x87, 0xa9, 0x6f, 0x00,
	0xcc, 0x3f, 0xa4, 0x18, 0x80, 0x35, 0x0c, 0x06, 0xce, 0x0b, 0xa3, 0x61,
	0x40, 0xc5, 0x30, 0x18, 0xf8, 0xbc, 0x40, 0x0e, 0x06, 0x00, 0xf3, 0x1b,
	0xe4, 0xe8, 0xd2, 0x07, 0xd6, 0x59, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45,
	0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}
