package protocol

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ReplyHandler is a function type for handling replies received outside
// of a Request call, such as unsolicited telemetry broadcasts.
type ReplyHandler func(reply CommandReply)

// Transport drives the VESC protocol over a byte-stream link. It owns the
// serial port, accumulates raw reads until complete frames are available,
// resynchronizes on the next start marker after corrupted or misaligned
// data, and delivers decoded replies. The codec itself stays free of I/O;
// Transport is the caller the codec contract assumes.
type Transport struct {
	// Serial I/O
	port io.ReadWriteCloser

	// Inbound frame reassembly
	input *FifoBuffer

	// Channel for decoded replies
	replyChan chan CommandReply

	// Optional callback for async replies, guarded by handlerMutex so it
	// can be installed or swapped while the reader is running
	replyHandler ReplyHandler
	handlerMutex sync.Mutex

	// Mutex for thread-safe operations
	writeMutex sync.Mutex
	readMutex  sync.Mutex

	// Stop channel for graceful shutdown
	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewTransport creates a transport over an open port and starts its
// background reader.
func NewTransport(port io.ReadWriteCloser) *Transport {
	t := &Transport{
		port:      port,
		input:     NewFifoBuffer(2 * FrameMax),
		replyChan: make(chan CommandReply, 16),
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}

	go t.readLoop()

	return t
}

// Send encodes cmd and writes the frame to the port without waiting for
// a reply. Used for setpoint commands, which the controller does not
// acknowledge.
func (t *Transport) Send(cmd Command) error {
	var buf [FrameMax]byte
	n, err := Encode(cmd, buf[:])
	if err != nil {
		return fmt.Errorf("failed to encode command: %w", err)
	}
	return t.writeFrame(buf[:n])
}

// Request sends cmd and waits for the next decoded reply.
func (t *Transport) Request(cmd Command, timeout time.Duration) (CommandReply, error) {
	// Drop replies from abandoned requests so the reply received below
	// matches the command sent now.
	t.drainReplies()

	if err := t.Send(cmd); err != nil {
		return nil, err
	}

	select {
	case reply := <-t.replyChan:
		return reply, nil

	case <-time.After(timeout):
		return nil, fmt.Errorf("reply timeout after %v", timeout)

	case <-t.stopChan:
		return nil, fmt.Errorf("transport stopped")
	}
}

// SetReplyHandler sets a callback invoked for every decoded reply in
// addition to channel delivery.
func (t *Transport) SetReplyHandler(handler ReplyHandler) {
	t.handlerMutex.Lock()
	t.replyHandler = handler
	t.handlerMutex.Unlock()
}

// Close stops the background reader and closes the port.
func (t *Transport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.stopChan)
		err = t.port.Close()
		<-t.doneChan
	})
	return err
}

// writeFrame sends one encoded frame to the port.
func (t *Transport) writeFrame(frame []byte) error {
	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	n, err := t.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

// readLoop continuously reads from the port and processes frames
func (t *Transport) readLoop() {
	defer close(t.doneChan)

	buffer := make([]byte, 256)

	for {
		select {
		case <-t.stopChan:
			return
		default:
		}

		n, err := t.port.Read(buffer)
		if err != nil {
			if err == io.EOF {
				return
			}
			select {
			case <-t.stopChan:
				return
			case <-time.After(10 * time.Millisecond):
			}
			continue
		}

		if n > 0 {
			t.input.Write(buffer[:n])
			t.processFrames()
		}
	}
}

// processFrames decodes and dispatches complete frames from the input
// buffer. Bytes before a start marker, and frames that fail to decode,
// are skipped one byte at a time until the stream realigns.
func (t *Transport) processFrames() {
	t.readMutex.Lock()
	defer t.readMutex.Unlock()

	data := t.input.Data()

	for len(data) > 0 {
		if data[0] != FrameStartShort {
			data = data[1:]
			continue
		}

		// Wait for the length byte and the full declared frame.
		if len(data) < FrameHeaderSize {
			break
		}
		frameLen := int(data[1]) + FrameOverhead
		if len(data) < frameLen {
			break
		}

		n, reply, err := Decode(data[:frameLen])
		if err != nil {
			// Corrupted, truncated, or unknown frame; resynchronize
			// past this start marker.
			data = data[1:]
			continue
		}

		data = data[n:]
		t.dispatchReply(reply)
	}

	consumed := t.input.Available() - len(data)
	if consumed > 0 {
		t.input.Pop(consumed)
	}
}

// dispatchReply delivers a reply to the handler and the reply channel,
// dropping the oldest queued reply when the channel is full.
func (t *Transport) dispatchReply(reply CommandReply) {
	t.handlerMutex.Lock()
	handler := t.replyHandler
	t.handlerMutex.Unlock()
	if handler != nil {
		handler(reply)
	}

	select {
	case t.replyChan <- reply:
	default:
		select {
		case <-t.replyChan:
		default:
		}
		t.replyChan <- reply
	}
}

// drainReplies discards any queued replies.
func (t *Transport) drainReplies() {
	for {
		select {
		case <-t.replyChan:
		default:
			return
		}
	}
}
