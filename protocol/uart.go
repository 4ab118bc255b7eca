package protocol

import (
	"sync"

	"tinygo.org/x/drivers"

	"rpasync/core"
)

type uartLogSink struct {
	mu   sync.Mutex
	uart drivers.UART
	seq  uint8
	out  ScratchOutput
}

// NewUARTLogWriter returns a core.LogWriter that sends each record as one
// frame on uart. It blocks on the UART, so interrupt handlers must only log
// after core.InitAsyncLog has moved output to a goroutine.
func NewUARTLogWriter(uart drivers.UART) core.LogWriter {
	s := &uartLogSink{uart: uart}
	return s.write
}

func (s *uartLogSink) write(rec core.LogRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.out.Reset()
	EncodeFrame(&s.out, s.seq, func(out OutputBuffer) {
		EncodeLogRecord(out, rec)
	})
	s.seq = (s.seq + 1) & MessageSeqMask
	// nothing useful can be done with a write error on the log link itself
	_, _ = s.uart.Write(s.out.Result())
}
