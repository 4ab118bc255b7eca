// Package logview reads framed log records from a board's log UART.
package logview

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"rpasync/core"
	"rpasync/protocol"
)

// Entry is one decoded record with its link sequence number.
type Entry struct {
	Seq    uint8
	Record core.LogRecord
}

// Stats counts link errors seen by a Monitor.
type Stats struct {
	Records    uint32
	Dropped    uint32 // malformed frames
	Gaps       uint32 // sequence breaks
	BadRecords uint32 // valid frames whose payload did not decode
}

// Monitor owns a port and turns its byte stream into Entries.
type Monitor struct {
	port io.ReadCloser

	mu      sync.Mutex
	input   *protocol.FifoBuffer
	decoder *protocol.Decoder
	stats   Stats
	pending []Entry

	entries  chan Entry
	stopChan chan struct{}
	doneChan chan struct{}
	stopOnce sync.Once
}

// NewMonitor starts reading port. Entries are delivered on Entries until the
// port reports EOF or Close is called.
func NewMonitor(port io.ReadCloser) *Monitor {
	m := &Monitor{
		port:     port,
		input:    protocol.NewFifoBuffer(4 * protocol.MessageLengthMax),
		entries:  make(chan Entry, 64),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	m.decoder = protocol.NewDecoder(m.handleFrame)
	go m.readLoop()
	return m
}

// Entries returns the channel of decoded records. It is closed when the
// monitor stops.
func (m *Monitor) Entries() <-chan Entry {
	return m.entries
}

// Stats returns a snapshot of the link counters.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.stats
	s.Dropped = m.decoder.Dropped
	s.Gaps = m.decoder.Gaps
	return s
}

// Close stops the reader and closes the port.
func (m *Monitor) Close() error {
	var err error
	m.stopOnce.Do(func() {
		close(m.stopChan)
		err = m.port.Close()
	})
	<-m.doneChan
	return err
}

func (m *Monitor) readLoop() {
	defer close(m.doneChan)
	defer close(m.entries)

	buffer := make([]byte, 256)
	for {
		select {
		case <-m.stopChan:
			return
		default:
		}

		n, err := m.port.Read(buffer)
		if n > 0 {
			m.receive(buffer[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (m *Monitor) receive(data []byte) {
	m.mu.Lock()
	var ready []Entry
	for len(data) > 0 {
		n := m.input.Write(data)
		data = data[n:]
		m.decoder.Receive(m.input)
		if n == 0 {
			// a full buffer the decoder cannot consume is garbage
			m.input.Reset()
		}
		ready = append(ready, m.pending...)
		m.pending = m.pending[:0]
	}
	m.mu.Unlock()

	for _, e := range ready {
		select {
		case m.entries <- e:
		case <-m.stopChan:
			return
		}
	}
}

func (m *Monitor) handleFrame(seq uint8, payload []byte) {
	rec, err := protocol.DecodeLogRecord(payload)
	if err != nil {
		m.stats.BadRecords++
		return
	}
	m.stats.Records++
	m.pending = append(m.pending, Entry{Seq: seq, Record: rec})
}

// Format renders e as "[seconds.micros] LEVEL message".
func Format(e Entry) string {
	ts := e.Record.Timestamp
	return fmt.Sprintf("[%6d.%06d] %-5s %s", ts/1_000_000, ts%1_000_000, e.Record.Level, e.Record.Message)
}
