package protocol

// EncodeFrame appends one frame carrying the payload written by body.
// Payload beyond MessagePayloadMax is cut off.
func EncodeFrame(out OutputBuffer, seq uint8, body func(OutputBuffer)) {
	var payload ScratchOutput
	body(&payload)
	p := payload.Result()
	if len(p) > MessagePayloadMax {
		p = p[:MessagePayloadMax]
	}

	start := out.CurPosition()
	out.Output([]byte{uint8(len(p) + MessageLengthMin), MessageDest | seq&MessageSeqMask})
	out.Output(p)
	crc := CRC16(out.DataSince(start))
	out.Output([]byte{uint8(crc >> 8), uint8(crc), MessageValueSync})
}

// FrameHandler receives the payload of each valid frame. The payload
// aliases the input and is only valid during the call.
type FrameHandler func(seq uint8, payload []byte)

// Decoder splits a byte stream into frames, dropping anything that fails the
// length, destination, sync or CRC checks and resynchronising on the next
// sync byte.
type Decoder struct {
	handler FrameHandler
	synced  bool
	lastSeq int

	// Dropped counts frames rejected as malformed.
	Dropped uint32
	// Gaps counts breaks in the sequence numbering, i.e. frames lost
	// upstream.
	Gaps uint32
}

// NewDecoder returns a decoder that passes valid frames to handler.
func NewDecoder(handler FrameHandler) *Decoder {
	return &Decoder{handler: handler, synced: true, lastSeq: -1}
}

// Synchronized reports whether the decoder is aligned to frame boundaries.
func (d *Decoder) Synchronized() bool { return d.synced }

func (d *Decoder) desync() {
	d.synced = false
	d.Dropped++
}

// Receive consumes every complete frame in input and leaves a trailing
// partial frame for the next call.
func (d *Decoder) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !d.synced {
			i := 0
			for i < len(data) && data[i] != MessageValueSync {
				i++
			}
			if i == len(data) {
				data = nil
				break
			}
			data = data[i+1:]
			d.synced = true
			continue
		}

		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			d.desync()
			continue
		}
		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			d.desync()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			d.desync()
			continue
		}
		want := uint16(data[msgLen-MessageTrailerCRC])<<8 | uint16(data[msgLen-MessageTrailerCRC+1])
		if CRC16(data[:msgLen-MessageTrailerSize]) != want {
			d.desync()
			continue
		}

		payload := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		seq &= MessageSeqMask
		if d.lastSeq >= 0 && int(seq) != (d.lastSeq+1)&MessageSeqMask {
			d.Gaps++
		}
		d.lastSeq = int(seq)

		if d.handler != nil {
			d.handler(seq, payload)
		}
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}
