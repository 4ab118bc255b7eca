package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"rpasync/config"
	"rpasync/core"
	"rpasync/host/logview"
	"rpasync/host/serial"
)

var (
	device    = flag.String("device", "/dev/ttyUSB0", "Serial device path")
	baud      = flag.Int("baud", 0, "Baud rate (default: log_baud from -config, else 115200)")
	boardFile = flag.String("config", "", "Board configuration JSON")
	level     = flag.String("level", "trace", "Hide records less severe than this")
	showStats = flag.Bool("stats", false, "Print link counters on exit")
	keys      = flag.Bool("keys", true, "Read single-key commands from the terminal")
)

func main() {
	flag.Parse()

	minLevel, ok := core.ParseLevel(*level)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: unknown level %q\n", *level)
		os.Exit(2)
	}

	cfg := serial.DefaultConfig(*device)
	if *boardFile != "" {
		board, err := config.LoadFile(*boardFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Baud = int(board.LogBaud)
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}

	port, err := serial.Open(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := port.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: flush: %v\n", err)
	}

	// raw mode turns off output post-processing, so lines need \r\n
	newline := "\n"
	var keyCh <-chan rune
	if *keys {
		kb, err := openKeyboard()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: no terminal, key commands disabled: %v\n", err)
		} else {
			defer kb.close()
			keyCh = kb.keys
			newline = "\r\n"
		}
	}

	fmt.Fprintf(os.Stderr, "Listening on %s at %d baud%s", cfg.Device, cfg.Baud, newline)
	if keyCh != nil {
		fmt.Fprintf(os.Stderr, "Keys: q quit, s stats, +/- more/less detail%s", newline)
	}

	mon := logview.NewMonitor(port)
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	printStats := func() {
		s := mon.Stats()
		fmt.Fprintf(os.Stderr, "records=%d dropped=%d gaps=%d bad=%d%s",
			s.Records, s.Dropped, s.Gaps, s.BadRecords, newline)
	}

loop:
	for {
		select {
		case e, ok := <-mon.Entries():
			if !ok {
				break loop
			}
			if e.Record.Level <= minLevel {
				fmt.Print(logview.Format(e), newline)
			}
		case k, ok := <-keyCh:
			if !ok {
				keyCh = nil
				continue
			}
			switch k {
			case 'q', keyCtrlC:
				break loop
			case 's':
				printStats()
			case '+':
				if minLevel < core.LevelTrace {
					minLevel++
				}
				fmt.Fprintf(os.Stderr, "showing %s and above%s", minLevel, newline)
			case '-':
				if minLevel > core.LevelError {
					minLevel--
				}
				fmt.Fprintf(os.Stderr, "showing %s and above%s", minLevel, newline)
			}
		case <-interrupt:
			break loop
		}
	}

	mon.Close()
	if *showStats {
		printStats()
	}
}
