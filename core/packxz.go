package core

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// PackXzChecksumsEntry is the jar entry that holds the checksum block of an unpacked pack.xz file
const PackXzChecksumsEntry = "checksums.sha1"

// UnpackXZ decompresses the pack.xz file at src into a jar at dst, returning the checksum block.
//
// The decompressed stream is laid out as payload, checksums, a little endian uint32 holding the
// length of the checksums, then the ASCII marker "SIGN". The payload must already be a jar.
func UnpackXZ(src string, dst string) ([]byte, error) {
	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	xr, err := xz.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read xz stream %s: %w", src, err)
	}
	data, err := io.ReadAll(xr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", src, err)
	}

	payload, checksums, err := splitSignedPayload(data)
	if err != nil {
		return nil, fmt.Errorf("invalid pack.xz file %s: %w", src, err)
	}

	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("payload of %s is not a jar (pack200 payloads are not supported): %w", src, err)
	}
	if err := writeJarWithChecksums(zr, checksums, dst); err != nil {
		_ = os.Remove(dst)
		return nil, fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return checksums, nil
}

func splitSignedPayload(data []byte) (payload []byte, checksums []byte, err error) {
	if len(data) < 8 || string(data[len(data)-4:]) != "SIGN" {
		return nil, nil, fmt.Errorf("missing SIGN trailer")
	}
	checksumLength := int(binary.LittleEndian.Uint32(data[len(data)-8 : len(data)-4]))
	if checksumLength > len(data)-8 {
		return nil, nil, fmt.Errorf("checksum length %d exceeds file size", checksumLength)
	}
	end := len(data) - 8
	return data[:end-checksumLength], data[end-checksumLength : end], nil
}

func writeJarWithChecksums(zr *zip.Reader, checksums []byte, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	zw := zip.NewWriter(out)
	for _, f := range zr.File {
		if f.Name == PackXzChecksumsEntry {
			continue
		}
		if err := zw.Copy(f); err != nil {
			_ = out.Close()
			return err
		}
	}
	w, err := zw.Create(PackXzChecksumsEntry)
	if err != nil {
		_ = out.Close()
		return err
	}
	if _, err := w.Write(checksums); err != nil {
		_ = out.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
