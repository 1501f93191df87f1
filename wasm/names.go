package wasm

import (
	"fmt"
	"sort"

	"github.com/wippyai/simple-wasm/wasm/internal/binary"
)

// NameSectionName is the custom section holding debug names.
const NameSectionName = "name"

// Name subsection IDs.
const (
	nameSubsectionModule byte = 0
	nameSubsectionFuncs  byte = 1
	nameSubsectionLocals byte = 2
)

// NameSection holds the module, function and local names of the "name"
// custom section. Maps are keyed by function index and local index.
type NameSection struct {
	Funcs  map[uint32]string
	Locals map[uint32]map[uint32]string
	Module string
}

// Encode returns the payload of the "name" custom section.
// Subsections are written in ID order and name maps in index order.
func (n *NameSection) Encode() []byte {
	w := binary.NewWriter()
	if n.Module != "" {
		sub := binary.NewWriter()
		sub.WriteName(n.Module)
		w.Byte(nameSubsectionModule)
		w.WriteVec(sub.Bytes())
	}
	if len(n.Funcs) > 0 {
		sub := binary.NewWriter()
		writeNameMap(sub, n.Funcs)
		w.Byte(nameSubsectionFuncs)
		w.WriteVec(sub.Bytes())
	}
	if len(n.Locals) > 0 {
		sub := binary.NewWriter()
		funcs := sortedKeys(n.Locals)
		sub.WriteU32(uint32(len(funcs)))
		for _, idx := range funcs {
			sub.WriteU32(idx)
			writeNameMap(sub, n.Locals[idx])
		}
		w.Byte(nameSubsectionLocals)
		w.WriteVec(sub.Bytes())
	}
	return w.Bytes()
}

func writeNameMap(w *binary.Writer, names map[uint32]string) {
	keys := sortedKeys(names)
	w.WriteU32(uint32(len(keys)))
	for _, k := range keys {
		w.WriteU32(k)
		w.WriteName(names[k])
	}
}

func sortedKeys[V any](m map[uint32]V) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ParseNameSection decodes the payload of a "name" custom section.
// Unknown subsections are skipped.
func ParseNameSection(data []byte) (*NameSection, error) {
	n := &NameSection{}
	r := binary.NewReader(data)
	for r.Len() > 0 {
		id, _ := r.ReadByte()
		payload, err := r.ReadVec()
		if err != nil {
			return nil, fmt.Errorf("name subsection %d: %w", id, err)
		}
		sr := binary.NewReaderAt(payload, r.Position()-len(payload))

		switch id {
		case nameSubsectionModule:
			n.Module, err = sr.ReadName()
		case nameSubsectionFuncs:
			n.Funcs, err = readNameMap(sr)
		case nameSubsectionLocals:
			n.Locals, err = readIndirectNameMap(sr)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("name subsection %d: %w", id, err)
		}
	}
	return n, nil
}

func readNameMap(r *binary.Reader) (map[uint32]string, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	names := make(map[uint32]string, count)
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		name, err := r.ReadName()
		if err != nil {
			return nil, err
		}
		names[idx] = name
	}
	return names, nil
}

func readIndirectNameMap(r *binary.Reader) (map[uint32]map[uint32]string, error) {
	count, err := readCount(r)
	if err != nil {
		return nil, err
	}
	out := make(map[uint32]map[uint32]string, count)
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		if out[idx], err = readNameMap(r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Names decodes the module's "name" custom section, if present.
func (m *Module) Names() (*NameSection, error) {
	cs, count := m.CustomSection(NameSectionName)
	if count == 0 {
		return nil, nil
	}
	return ParseNameSection(cs.Data)
}
