package protocol

import (
	"errors"

	"rpasync/core"
)

// MaxLogMessage is the longest message that fits one frame next to the
// level and a full 64-bit timestamp. Longer messages are truncated.
const MaxLogMessage = MessagePayloadMax - 1 - 5 - 5 - 1

var ErrBadRecord = errors.New("protocol: malformed log record")

// EncodeLogRecord writes rec as level, timestamp high word, timestamp low
// word and message.
func EncodeLogRecord(out OutputBuffer, rec core.LogRecord) {
	msg := rec.Message
	if len(msg) > MaxLogMessage {
		msg = msg[:MaxLogMessage]
	}
	EncodeVLQUint(out, uint32(rec.Level))
	EncodeVLQUint(out, uint32(rec.Timestamp>>32))
	EncodeVLQUint(out, uint32(rec.Timestamp))
	EncodeVLQString(out, msg)
}

// DecodeLogRecord parses a frame payload written by EncodeLogRecord.
func DecodeLogRecord(payload []byte) (core.LogRecord, error) {
	level, err := DecodeVLQUint(&payload)
	if err != nil {
		return core.LogRecord{}, err
	}
	hi, err := DecodeVLQUint(&payload)
	if err != nil {
		return core.LogRecord{}, err
	}
	lo, err := DecodeVLQUint(&payload)
	if err != nil {
		return core.LogRecord{}, err
	}
	msg, err := DecodeVLQString(&payload)
	if err != nil {
		return core.LogRecord{}, err
	}
	if len(payload) != 0 || level > uint32(core.LevelTrace) {
		return core.LogRecord{}, ErrBadRecord
	}
	return core.LogRecord{
		Level:     core.Level(level),
		Timestamp: uint64(hi)<<32 | uint64(lo),
		Message:   msg,
	}, nil
}
