package server

import (
	"testing"
	"time"
)

func TestClientQueuesFrames(t *testing.T) {
	c := NewClient(nil, nil, "1.2.3.4")
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "x"}})
	c.SendBinary([]byte{1, 2})

	if f := <-c.send; f.binary || len(f.data) == 0 {
		t.Errorf("expected a text frame first, got %+v", f)
	}
	if f := <-c.send; !f.binary || len(f.data) != 2 {
		t.Errorf("expected the binary frame unchanged, got %+v", f)
	}
}

func TestSendAfterCloseIsDropped(t *testing.T) {
	c := NewClient(nil, nil, "1.2.3.4")
	c.close()
	c.close()
	c.SendJSON(Envelope{T: MsgError})
	c.SendBinary([]byte{1})
	if _, ok := <-c.send; ok {
		t.Error("expected closed send queue to stay empty")
	}
}

func TestSlowClientDropsFrames(t *testing.T) {
	c := NewClient(nil, nil, "1.2.3.4")
	for i := 0; i < sendBufSize+10; i++ {
		c.SendBinary([]byte{byte(i)})
	}
	if len(c.send) != sendBufSize {
		t.Errorf("expected %d queued frames, got %d", sendBufSize, len(c.send))
	}
}

func TestAllowMessageWindow(t *testing.T) {
	c := NewClient(nil, nil, "1.2.3.4")
	now := c.msgResetAt.AddDate(1, 0, 0)
	for i := 0; i < maxMessagesPerSec; i++ {
		if !c.allowMessage(now) {
			t.Fatalf("message %d rejected inside the limit", i)
		}
	}
	if c.allowMessage(now) {
		t.Error("expected message over the limit rejected")
	}
	if !c.allowMessage(now.Add(2 * time.Second)) {
		t.Error("expected a new window to accept messages")
	}
}
