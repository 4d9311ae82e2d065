package comm

// Synchronizer reassembles inbound frames from a byte stream.
// It is fed one byte at a time and never fails: any framing anomaly
// discards the bytes of the current attempt and scanning resumes from the
// next header.
type Synchronizer struct {
	state syncState
	buf   [MaxFrameLen]byte
	recv  int
	desc  Descriptor
}

// SyncResult is the result after one parsing step.
type SyncResult struct {
	// Frame is the complete encoded frame if one is finished in this step.
	// It is only valid until the next call to the Synchronizer.
	Frame []byte
	// Desc describes Frame.
	Desc Descriptor
	// Discarded is the number of bytes dropped in this step.
	Discarded int
}

type syncState int

const (
	stateSeekMark   syncState = iota // waiting for 0xff
	stateSeekMarker                  // waiting for inbound marker
	stateLength                      // waiting for length byte
	stateCode                        // waiting for message code
	stateBody                        // waiting for payload and checksum
)

// Reset drops any partially received frame and returns the number of
// bytes dropped.
func (s *Synchronizer) Reset() int {
	n := s.recv
	s.state, s.recv = stateSeekMark, 0
	return n
}

// Pending returns the number of bytes of the frame being received.
func (s *Synchronizer) Pending() int {
	return s.recv
}

// Parse consumes one byte.
func (s *Synchronizer) Parse(b byte) (r SyncResult) {
	switch s.state {
	case stateSeekMark:
		if b != HeaderMark {
			r.Discarded = 1
			return
		}
		s.push(b)
		s.state = stateSeekMarker
	case stateSeekMarker:
		switch b {
		case InboundMarker:
			s.push(b)
			s.state = stateLength
		case HeaderMark:
			// the previous mark was noise, this one may start a frame.
			r.Discarded = 1
		default:
			r.Discarded = s.resync(b)
		}
	case stateLength:
		if size := int(b) + 2; size < Overhead || size > MaxFrameLen {
			r.Discarded = s.resync(b)
			return
		}
		s.push(b)
		s.state = stateCode
	case stateCode:
		desc, err := LookupResponse(ResponseCode(b))
		if err != nil || desc.Length != int(s.buf[2])+2 {
			r.Discarded = s.resync(b)
			return
		}
		s.push(b)
		s.desc, s.state = desc, stateBody
	case stateBody:
		s.push(b)
		if s.recv >= s.desc.Length {
			r.Frame, r.Desc = s.buf[:s.recv], s.desc
			s.state, s.recv = stateSeekMark, 0
		}
	}
	return
}

func (s *Synchronizer) push(b byte) {
	s.buf[s.recv] = b
	s.recv++
}

// resync drops the current attempt together with b. If b is a header
// mark it is kept as the start of the next attempt.
func (s *Synchronizer) resync(b byte) int {
	dropped := s.recv + 1
	s.state, s.recv = stateSeekMark, 0
	if b == HeaderMark {
		s.push(b)
		s.state = stateSeekMarker
		dropped--
	}
	return dropped
}
