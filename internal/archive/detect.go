package archive

import (
	"errors"
	"fmt"
	"io"
)

// magicLen is the number of leading bytes inspected by Detect.
const magicLen = 4

// Detect classifies the container format of r from its first bytes and
// restores the read position before returning. Only a failing read or seek is
// an error; short or unrecognised headers yield FormatUnknown.
func Detect(r io.ReadSeeker) (Format, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: seek: %v", ErrUnsupportedFormat, err)
	}

	buf := make([]byte, magicLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return FormatUnknown, fmt.Errorf("%w: read header: %v", ErrUnsupportedFormat, err)
	}

	if _, err := r.Seek(start, io.SeekStart); err != nil {
		return FormatUnknown, fmt.Errorf("%w: rewind: %v", ErrUnsupportedFormat, err)
	}

	return DetectBytes(buf[:n]), nil
}

// DetectBytes classifies a format from a header prefix.
//
//	1F 8B                   gzip tar
//	50 4B 03 04|05 06|07 08 zip
func DetectBytes(header []byte) Format {
	if len(header) < 2 {
		return FormatUnknown
	}

	if header[0] == 0x1f && header[1] == 0x8b {
		return FormatGzipTar
	}

	if header[0] == 'P' && header[1] == 'K' && len(header) >= 4 {
		switch {
		case header[2] == 0x03 && header[3] == 0x04,
			header[2] == 0x05 && header[3] == 0x06,
			header[2] == 0x07 && header[3] == 0x08:
			return FormatZip
		}
	}

	return FormatUnknown
}
