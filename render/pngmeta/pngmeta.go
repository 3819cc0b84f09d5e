// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package pngmeta reads and writes tEXt metadata chunks in PNG files.
//
// The standard library encoder does not emit ancillary chunks, so Encode
// splices tEXt chunks into the encoded stream just before IEND. Decoders
// that ignore ancillary chunks see an ordinary PNG.
package pngmeta

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"sort"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Encode writes img as a PNG with one tEXt chunk per metadata entry.
// Keys are written in sorted order so output is reproducible.
func Encode(w io.Writer, img image.Image, meta map[string]string) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("pngmeta: encode: %w", err)
	}

	raw := buf.Bytes()
	// IEND is always the final 12 bytes of a well-formed PNG.
	if len(raw) < len(pngSignature)+12 {
		return fmt.Errorf("pngmeta: encoded PNG too short (%d bytes)", len(raw))
	}
	body, iend := raw[:len(raw)-12], raw[len(raw)-12:]

	if _, err := w.Write(body); err != nil {
		return err
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeTextChunk(w, k, meta[k]); err != nil {
			return err
		}
	}

	_, err := w.Write(iend)
	return err
}

// writeTextChunk emits one tEXt chunk: keyword, NUL separator, text.
func writeTextChunk(w io.Writer, key, value string) error {
	if key == "" || len(key) > 79 {
		return fmt.Errorf("pngmeta: invalid tEXt keyword %q", key)
	}
	data := make([]byte, 0, len(key)+1+len(value))
	data = append(data, key...)
	data = append(data, 0)
	data = append(data, value...)

	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(data)))
	copy(hdr[4:], "tEXt")

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(data)
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], crc.Sum32())

	for _, b := range [][]byte{hdr[:], data, tail[:]} {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

// Decode extracts all tEXt entries from a PNG stream. A PNG without
// metadata yields an empty map.
func Decode(r io.Reader) (map[string]string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(raw) < len(pngSignature) || !bytes.Equal(raw[:len(pngSignature)], pngSignature) {
		return nil, fmt.Errorf("pngmeta: not a PNG stream")
	}

	meta := make(map[string]string)
	off := len(pngSignature)
	for off+12 <= len(raw) {
		length := int(binary.BigEndian.Uint32(raw[off : off+4]))
		typ := string(raw[off+4 : off+8])
		dataEnd := off + 8 + length
		if dataEnd+4 > len(raw) {
			return nil, fmt.Errorf("pngmeta: truncated %s chunk", typ)
		}
		if typ == "tEXt" {
			data := raw[off+8 : dataEnd]
			if i := bytes.IndexByte(data, 0); i > 0 {
				meta[string(data[:i])] = string(data[i+1:])
			}
		}
		if typ == "IEND" {
			break
		}
		off = dataEnd + 4
	}
	return meta, nil
}
