package protocol

import "testing"

func TestPingPongRoundTrip(t *testing.T) {
	data := EncodeControl(ControlPing, &PingPong{Timestamp: 1724600000000})

	ct, payload, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl: %v", err)
	}
	if ct != ControlPing {
		t.Errorf("expected Ping, got %s", ct)
	}

	pp, ok := payload.(*PingPong)
	if !ok {
		t.Fatalf("expected PingPong payload, got %T", payload)
	}
	if pp.Timestamp != 1724600000000 {
		t.Errorf("expected timestamp to survive, got %d", pp.Timestamp)
	}
}

func TestCloseMessageRoundTrip(t *testing.T) {
	data := EncodeControl(ControlClose, &CloseMessage{
		Reason:  CloseServerShutdown,
		Message: "shutting down",
	})

	ct, payload, err := DecodeControl(data)
	if err != nil {
		t.Fatalf("DecodeControl: %v", err)
	}
	if ct != ControlClose {
		t.Errorf("expected Close, got %s", ct)
	}

	cm, ok := payload.(*CloseMessage)
	if !ok {
		t.Fatalf("expected CloseMessage payload, got %T", payload)
	}
	if cm.Reason != CloseServerShutdown || cm.Message != "shutting down" {
		t.Errorf("expected ServerShutdown/shutting down, got %s/%q", cm.Reason, cm.Message)
	}
}

func TestAckRoundTrip(t *testing.T) {
	ack, err := DecodeAck(EncodeAck(&Ack{LastSeq: 77}))
	if err != nil {
		t.Fatalf("DecodeAck: %v", err)
	}
	if ack.LastSeq != 77 {
		t.Errorf("expected LastSeq 77, got %d", ack.LastSeq)
	}
}

func TestClientHelloRoundTrip(t *testing.T) {
	ch := &ClientHello{
		Version:   CurrentVersion,
		SessionID: "abc123",
		LastSeq:   12,
	}

	decoded, err := DecodeClientHello(EncodeClientHello(ch))
	if err != nil {
		t.Fatalf("DecodeClientHello: %v", err)
	}
	if decoded.Version != CurrentVersion {
		t.Errorf("expected version %v, got %v", CurrentVersion, decoded.Version)
	}
	if decoded.SessionID != "abc123" || decoded.LastSeq != 12 {
		t.Errorf("expected abc123/12, got %s/%d", decoded.SessionID, decoded.LastSeq)
	}
}

func TestServerHelloRoundTrip(t *testing.T) {
	sh := &ServerHello{
		Status:     HelloOK,
		SessionID:  "s1",
		NextSeq:    5,
		ServerTime: 1724600000000,
	}

	decoded, err := DecodeServerHello(EncodeServerHello(sh))
	if err != nil {
		t.Fatalf("DecodeServerHello: %v", err)
	}
	if decoded.Status != HelloOK || decoded.SessionID != "s1" || decoded.NextSeq != 5 {
		t.Errorf("expected OK/s1/5, got %s/%s/%d", decoded.Status, decoded.SessionID, decoded.NextSeq)
	}
}

func TestErrorMessageRoundTrip(t *testing.T) {
	em := NewFatalError(ErrHandlerPanic, "handler blew up")

	decoded, err := DecodeErrorMessage(EncodeErrorMessage(em))
	if err != nil {
		t.Fatalf("DecodeErrorMessage: %v", err)
	}
	if decoded.Code != ErrHandlerPanic || !decoded.Fatal {
		t.Errorf("expected fatal HandlerPanic, got %s fatal=%v", decoded.Code, decoded.Fatal)
	}
	if decoded.Error() != "fatal: HandlerPanic: handler blew up" {
		t.Errorf("unexpected Error() string: %s", decoded.Error())
	}
}
