package vm

import "defs"

// byteAt returns the backing byte slice for va's page plus the offset
// within it, or an error if va is unmapped in this address space. Must be
// called with as.mu held (mirrors biscuit's Userdmap8_inner contract).
func (as *AddrSpace_t) byteAt(va int) ([]byte, defs.Err_t) {
	pt, _, ok := as.Lookup(va)
	if !ok {
		return nil, -defs.EFAULT
	}
	frame, _ := pt.frameFor(va)
	if frame == 0 {
		return nil, -defs.EFAULT
	}
	off := va & (defs.PGSIZE - 1)
	return as.cm.FrameBytes(frame)[off:], 0
}

/// CopyOut copies src into this address space starting at uva, crossing
/// page boundaries as needed. Named after biscuit's K2user.
func (as *AddrSpace_t) CopyOut(uva int, src []byte) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()
	off := 0
	for off < len(src) {
		dst, err := as.byteAt(uva + off)
		if err != 0 {
			return err
		}
		n := copy(dst, src[off:])
		if n == 0 {
			return -defs.EFAULT
		}
		off += n
	}
	return 0
}

/// CopyIn copies len(dst) bytes starting at uva out of this address space
/// into dst. Named after biscuit's User2k.
func (as *AddrSpace_t) CopyIn(uva int, dst []byte) defs.Err_t {
	as.mu.Lock()
	defer as.mu.Unlock()
	off := 0
	for off < len(dst) {
		src, err := as.byteAt(uva + off)
		if err != 0 {
			return err
		}
		n := copy(dst[off:], src)
		if n == 0 {
			return -defs.EFAULT
		}
		off += n
	}
	return 0
}

/// CopyInString reads a NUL-terminated string from uva, up to lenmax
/// bytes, named after biscuit's Userstr.
func (as *AddrSpace_t) CopyInString(uva int, lenmax int) (string, defs.Err_t) {
	as.mu.Lock()
	defer as.mu.Unlock()
	buf := make([]byte, 0, 64)
	off := 0
	for {
		src, err := as.byteAt(uva + off)
		if err != 0 {
			return "", err
		}
		for _, c := range src {
			if c == 0 {
				return string(buf), 0
			}
			buf = append(buf, c)
			if len(buf) > lenmax {
				return "", -defs.EFAULT
			}
		}
		off += len(src)
	}
}
