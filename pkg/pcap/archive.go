package pcap

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const defaultArchiveBuffer = 10000

type archivedFrame struct {
	ci   gopacket.CaptureInfo
	data []byte
}

// Archiver writes captured frames to a pcap file from a single goroutine so
// frames stay in capture order.
type Archiver struct {
	frames chan archivedFrame
	file   *os.File
	writer *pcapgo.Writer
	wg     sync.WaitGroup
	once   sync.Once
}

// NewArchiver creates <dir>/<timestamp>.pcap and starts the writer goroutine.
func NewArchiver(dir string, snapshotLen uint32, linkType layers.LinkType) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	path := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+".pcap")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive file: %w", err)
	}

	writer := pcapgo.NewWriter(file)
	if err := writer.WriteFileHeader(snapshotLen, linkType); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	a := &Archiver{
		frames: make(chan archivedFrame, defaultArchiveBuffer),
		file:   file,
		writer: writer,
	}
	a.wg.Add(1)
	go a.run()
	log.Printf("Archiving captured frames to %s", path)
	return a, nil
}

func (a *Archiver) run() {
	defer a.wg.Done()
	for f := range a.frames {
		if err := a.writer.WritePacket(f.ci, f.data); err != nil {
			log.Printf("Archiver: Error writing frame: %v", err)
		}
	}
}

// Enqueue copies a frame into the archive queue. Frames are dropped when
// the queue is full.
func (a *Archiver) Enqueue(ci gopacket.CaptureInfo, data []byte) {
	buf := make([]byte, len(data))
	copy(buf, data)
	ci.CaptureLength = len(buf)

	select {
	case a.frames <- archivedFrame{ci: ci, data: buf}:
	default:
		log.Println("Archiver: Channel is full, dropping frame.")
	}
}

// Close flushes queued frames and closes the file. Enqueue must not be
// called afterwards.
func (a *Archiver) Close() error {
	var err error
	a.once.Do(func() {
		close(a.frames)
		a.wg.Wait()
		err = a.file.Close()
		log.Println("Archiver stopped and file closed.")
	})
	return err
}
