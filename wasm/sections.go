package wasm

import (
	"errors"
	"fmt"
	"io"

	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// SectionHeader locates one section in a module binary.
type SectionHeader struct {
	Name   string // custom section name; empty for known sections
	Offset int    // file offset of the section payload
	Size   int    // payload size in bytes, including a custom section's name
	ID     byte
}

// Kind returns the custom section name, or the section ID name for known sections.
func (h SectionHeader) Kind() string {
	if h.ID == SectionCustom {
		return h.Name
	}
	return SectionIDName(h.ID)
}

// ScanSections walks the section headers of a module binary without
// decoding section bodies.
func ScanSections(data []byte) ([]SectionHeader, error) {
	r := binary.NewReader(data)
	if err := readHeader(r); err != nil {
		return nil, err
	}

	var headers []SectionHeader
	for {
		id, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return headers, nil
			}
			return nil, r.WrapError("section header", err)
		}
		payload, err := r.ReadVec()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		h := SectionHeader{
			ID:     id,
			Offset: r.Position() - len(payload),
			Size:   len(payload),
		}
		if id == SectionCustom {
			name, err := binary.NewReaderAt(payload, h.Offset).ReadName()
			if err != nil {
				return nil, fmt.Errorf("custom section at %d: %w", h.Offset, err)
			}
			h.Name = name
		}
		headers = append(headers, h)
	}
}

// CustomSectionPayload returns the payload of the custom section named name
// as it appears in data. It fails unless exactly one such section exists.
// The result aliases data.
func CustomSectionPayload(data []byte, name string) ([]byte, error) {
	headers, err := ScanSections(data)
	if err != nil {
		return nil, err
	}
	var found []SectionHeader
	for _, h := range headers {
		if h.ID == SectionCustom && h.Name == name {
			found = append(found, h)
		}
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("want exactly one custom section %q, found %d", name, len(found))
	}
	h := found[0]
	r := binary.NewReaderAt(data[h.Offset:h.Offset+h.Size], h.Offset)
	if _, err := r.ReadName(); err != nil {
		return nil, err
	}
	return r.ReadRemaining(), nil
}
