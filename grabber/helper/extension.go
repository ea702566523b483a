package helper

import (
	"github.com/spance/openterface-grab/constants"
	"github.com/spance/openterface-grab/grabber/definitions"
)

func ParseFormat(s string) definitions.ImageFormat {
	switch definitions.ImageFormat(s) {
	case definitions.FormatJPEG:
		return definitions.FormatJPEG
	case definitions.FormatRaw:
		return definitions.FormatRaw
	default:
		return definitions.FormatUnknown
	}
}

// ChooseExtension picks a file extension for a payload. "raw" is the
// server's historical label for a saved JPEG, not uncompressed pixels.
func ChooseExtension(format definitions.ImageFormat, command string) string {
	switch format {
	case definitions.FormatJPEG, definitions.FormatRaw:
		return ".jpg"
	}
	if command == constants.CmdGetTargetScreen {
		return ".jpg"
	}
	return ".bin"
}

func MimeType(format definitions.ImageFormat) string {
	switch format {
	case definitions.FormatJPEG, definitions.FormatRaw:
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
