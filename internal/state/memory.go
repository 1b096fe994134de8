package state

import "github.com/vtsse/dsvcheck/internal/bv"

// BinaryInfo is the external binary-info oracle: section bounds and a
// raw byte-read primitive over the program image. Implementations live
// outside this module; spec §6 treats ELF discovery as out of scope
// for the core.
type BinaryInfo interface {
	InRodata(addr uint64) bool
	InData(addr uint64) bool
	InText(addr uint64) bool
	// ReadBytes returns the little-endian bytes at the absolute address
	// addr, and false if the read falls outside the image.
	ReadBytes(addr uint64, length uint) (value uint64, ok bool)
}

// Memory is the sparse byte-addressable symbolic store described in
// spec §3.2 and §4.1.3: a concrete map keyed by the address of the low
// byte, and a symbolic map keyed by the address expression's symbol
// name when the address itself cannot be resolved to a constant.
type Memory struct {
	Concrete map[uint64]bv.BitVec
	Symbolic map[string]bv.BitVec
}

func NewMemory() *Memory {
	return &Memory{Concrete: map[uint64]bv.BitVec{}, Symbolic: map[string]bv.BitVec{}}
}

func (m *Memory) Clone() *Memory {
	c := NewMemory()
	for k, v := range m.Concrete {
		c.Concrete[k] = v
	}
	for k, v := range m.Symbolic {
		c.Symbolic[k] = v
	}
	return c
}

// extractBytes pulls bytes [lo, hi) (byte offsets, hi exclusive) out
// of sym, which spec §4.1.3 expresses as "extracted via the oracle".
func extractBytes(o bv.Oracle, hiByte, loByte uint, sym bv.BitVec) bv.BitVec {
	return o.Extract(hiByte*8-1, loByte*8, sym)
}

// Write implements spec §4.1.3's Write: for a concrete address, any
// prior entry overlapping [addr, addr+byteLen) is split or truncated
// so the new entry replaces exactly those bytes; a symbolic address
// is stored under its symbolic key with no overlap resolution.
func (m *Memory) Write(o bv.Oracle, addr, val bv.BitVec) {
	byteLen := val.Width / 8
	if !addr.IsConst() {
		m.Symbolic[addr.Sym] = val
		return
	}
	a := addr.Val.Uint64()

	if prev, ok := m.Concrete[a]; ok {
		prevLen := prev.Width / 8
		if byteLen < prevLen {
			m.Concrete[a+uint64(byteLen)] = extractBytes(o, prevLen, byteLen, prev)
		}
	}
	m.Concrete[a] = val

	for offset := -7; offset < int(byteLen); offset++ {
		if offset == 0 {
			continue
		}
		currAddr := uint64(int64(a) + int64(offset))
		prev, ok := m.Concrete[currAddr]
		if !ok {
			continue
		}
		prevLen := prev.Width / 8
		switch {
		case offset < 0 && prevLen > uint(-offset):
			m.Concrete[currAddr] = extractBytes(o, uint(-offset), 0, prev)
		case offset > 0:
			delete(m.Concrete, currAddr)
			if int(prevLen)-int(byteLen)+offset > 0 {
				newAddr := a + uint64(byteLen)
				newSym := extractBytes(o, prevLen, uint(int(byteLen)-offset), prev)
				m.Concrete[newAddr] = newSym
			}
			return
		}
	}
}

// Read implements spec §4.1.3's Read: an 8-byte lookback probe for a
// containing entry, concatenation of adjacent entries when the found
// entry is shorter than requested, and a fall back to the binary image
// (cached as a concrete entry) or a fresh free symbol on total miss.
func (m *Memory) Read(o bv.Oracle, addr bv.BitVec, width uint, img BinaryInfo) bv.BitVec {
	byteLen := width / 8
	if !addr.IsConst() {
		if v, ok := m.Symbolic[addr.Sym]; ok {
			return v
		}
		fresh := o.Fresh(width)
		m.Symbolic[addr.Sym] = fresh
		return fresh
	}
	a := addr.Val.Uint64()

	var startAddr uint64
	var lookbackOffset uint
	found := false
	for off := uint(0); off < 8; off++ {
		if off > a {
			break
		}
		cand := a - off
		if _, ok := m.Concrete[cand]; ok {
			startAddr, lookbackOffset, found = cand, off, true
			break
		}
	}

	if found {
		sym := m.Concrete[startAddr]
		symLen := sym.Width / 8
		if symLen > lookbackOffset {
			rightBound := symLen
			if byteLen+lookbackOffset < rightBound {
				rightBound = byteLen + lookbackOffset
			}
			first := extractBytes(o, rightBound, lookbackOffset, sym)
			have := rightBound - lookbackOffset
			if have < byteLen {
				parts := []bv.BitVec{first}
				tmpLen := have
				for tmpLen < byteLen {
					nextAddr := a + uint64(tmpLen)
					next, ok := m.Concrete[nextAddr]
					if !ok {
						break
					}
					nextLen := next.Width / 8
					rBound := nextLen
					if byteLen-tmpLen < rBound {
						rBound = byteLen - tmpLen
					}
					parts = append(parts, extractBytes(o, rBound, 0, next))
					tmpLen += rBound
				}
				if tmpLen == byteLen {
					reversed := make([]bv.BitVec, len(parts))
					for i, p := range parts {
						reversed[len(parts)-1-i] = p
					}
					return o.Concat(reversed...)
				}
			} else {
				return first
			}
		}
	}

	return m.readFromImageOrFresh(o, a, width, img)
}

func (m *Memory) readFromImageOrFresh(o bv.Oracle, a uint64, width uint, img BinaryInfo) bv.BitVec {
	byteLen := width / 8
	if img != nil && (img.InRodata(a) || img.InData(a) || img.InText(a)) {
		if val, ok := img.ReadBytes(a, byteLen); ok {
			cv := bv.Const(val, width)
			m.Concrete[a] = cv
			return cv
		}
	}
	fresh := o.Fresh(width)
	m.Concrete[a] = fresh
	return fresh
}
