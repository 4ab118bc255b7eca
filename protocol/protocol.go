// Package protocol frames diagnostic records for the serial log link.
//
// The envelope is the one Klipper uses between host and MCU: a length byte,
// a sequence byte, the payload, a CRC16 and a 0x7E sync byte. The receiver
// resynchronises on the sync byte after any malformed frame, so a viewer can
// attach to a running board at any point of the stream.
package protocol

// Version is the log stream format version.
const Version = "1"

// Frame layout.
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin

	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E

	// MessageDest is carried in the high nibble of every sequence byte.
	MessageDest    = 0x10
	MessageSeqMask = 0x0F
)
